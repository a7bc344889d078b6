// Package patients binds the backend endpoints to the query cache and the
// mutation executor. Screens and commands read hospitals and patients through
// Service and never call the api package directly.
package patients

import (
	"context"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/mutation"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/registration"
)

// Resource kinds used as the first key element.
const (
	KindHospitals = "hospitals"
	KindPatients  = "patients"
)

// Backend is the subset of api.Client the service needs.
type Backend interface {
	GetHospitals(params *api.PaginationParams) api.Request[api.HospitalsResponse]
	GetHospital(id string) api.Request[api.Hospital]
	GetPatients(params api.PatientsParams) api.Request[api.PatientsResponse]
	GetPatient(id string) api.Request[api.Patient]
	RegisterPatient(payload api.RegisterPatientPayload) api.Request[api.Patient]
}

// Service is the read/write surface over hospitals and patients.
type Service struct {
	cache     *query.Client
	backend   Backend
	navigator nav.Navigator
}

// NewService wires a service. All three collaborators are required.
func NewService(cache *query.Client, backend Backend, navigator nav.Navigator) *Service {
	return &Service{cache: cache, backend: backend, navigator: navigator}
}

// Cache exposes the underlying query client, for subscribing to entry events.
func (s *Service) Cache() *query.Client {
	return s.cache
}

// HospitalsKey keys the hospitals list. Pagination does not take part in it.
func HospitalsKey() query.Key {
	return query.NewKey(KindHospitals)
}

// HospitalKey keys a single hospital.
func HospitalKey(id string) query.Key {
	return query.NewKey(KindHospitals, id)
}

// PatientsKey keys a patients page. A nil params value yields a key whose
// discriminators are all undefined.
func PatientsKey(params *api.PatientsParams) query.Key {
	if params == nil {
		return query.NewKey(KindPatients, nil, nil, nil, nil, nil)
	}
	return query.NewKey(KindPatients,
		params.HospitalID,
		params.Limit,
		params.Offset,
		params.SearchTerm,
		params.Ordering,
	)
}

// PatientKey keys a single patient.
func PatientKey(id string) query.Key {
	return query.NewKey(KindPatients, id)
}

func logFetchError(key query.Key) query.Option {
	return query.WithOnError(func(err error) {
		log.ErrorErr(log.CatQuery, "query failed", err, "key", key)
	})
}

func readOpts(key query.Key, extra []query.Option) []query.Option {
	opts := []query.Option{query.WithRetry(false), logFetchError(key)}
	return append(opts, extra...)
}

// Hospitals reads the hospitals list.
func (s *Service) Hospitals(ctx context.Context, params *api.PaginationParams, opts ...query.Option) query.Result[api.HospitalsResponse] {
	key := HospitalsKey()
	return query.Fetch(ctx, s.cache, key, s.backend.GetHospitals(params).Do, readOpts(key, opts)...)
}

// Hospital reads one hospital.
func (s *Service) Hospital(ctx context.Context, id string, opts ...query.Option) query.Result[api.Hospital] {
	key := HospitalKey(id)
	return query.Fetch(ctx, s.cache, key, s.backend.GetHospital(id).Do, readOpts(key, opts)...)
}

// Patients reads a page of patients. Without a hospital the call is skipped:
// no request goes out and the cache is left alone.
func (s *Service) Patients(ctx context.Context, params *api.PatientsParams, opts ...query.Option) query.Result[api.PatientsResponse] {
	key := PatientsKey(params)
	if params == nil || params.HospitalID == nil {
		return query.Fetch[api.PatientsResponse](ctx, s.cache, key, nil, query.WithEnabled(false))
	}
	return query.Fetch(ctx, s.cache, key, s.backend.GetPatients(*params).Do, readOpts(key, opts)...)
}

// Patient reads one patient.
func (s *Service) Patient(ctx context.Context, id string, opts ...query.Option) query.Result[api.Patient] {
	key := PatientKey(id)
	return query.Fetch(ctx, s.cache, key, s.backend.GetPatient(id).Do, readOpts(key, opts)...)
}

// RegisterPatient returns an executor that submits registration forms. On
// success the cached patients pages are dropped and the navigator replaces
// the current location with the patients list.
func (s *Service) RegisterPatient() *mutation.Executor[registration.Form, api.Patient] {
	write := func(ctx context.Context, form registration.Form) (api.Patient, error) {
		return s.backend.RegisterPatient(registration.ToRegisterPayload(form)).Do(ctx)
	}
	return mutation.New("register-patient", write, mutation.Handlers[registration.Form, api.Patient]{
		OnSuccess: func(p api.Patient, _ registration.Form) {
			log.Info(log.CatMutation, "patient registered", "id", p.ID)
			s.cache.InvalidateKind(KindPatients)
			s.navigator.Replace(nav.Patients())
		},
		OnError: func(err error, _ registration.Form) {
			log.ErrorErr(log.CatMutation, "registration failed", err)
		},
	})
}
