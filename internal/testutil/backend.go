package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intakehq/intake/internal/api"
)

// Routes served by Backend, in net/http pattern syntax.
const (
	RouteHospitals = "GET /hospitals/"
	RouteHospital  = "GET /hospitals/{id}/"
	RoutePatients  = "GET /patients/"
	RoutePatient   = "GET /patients/{id}/"
	RouteRegister  = "POST /patients/"
)

// Backend is a fake registration backend. It filters, orders and pages
// patients the way the real one does and records every registration.
type Backend struct {
	srv *httptest.Server

	mu         sync.Mutex
	hospitals  []api.Hospital
	patients   []api.Patient
	failures   map[string]int
	hits       map[string]int
	registered []api.RegisterPatientPayload
}

func start(t *testing.T, hospitals []api.Hospital, patients []api.Patient, failures map[string]int) *Backend {
	t.Helper()

	b := &Backend{
		hospitals: append([]api.Hospital(nil), hospitals...),
		patients:  append([]api.Patient(nil), patients...),
		failures:  make(map[string]int, len(failures)),
		hits:      make(map[string]int),
	}
	for route, status := range failures {
		b.failures[route] = status
	}

	mux := http.NewServeMux()
	mux.HandleFunc(RouteHospitals, b.handle(RouteHospitals, b.listHospitals))
	mux.HandleFunc(RouteHospital, b.handle(RouteHospital, b.getHospital))
	mux.HandleFunc(RoutePatients, b.handle(RoutePatients, b.listPatients))
	mux.HandleFunc(RoutePatient, b.handle(RoutePatient, b.getPatient))
	mux.HandleFunc(RouteRegister, b.handle(RouteRegister, b.register))

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

// URL is the backend's base URL.
func (b *Backend) URL() string {
	return b.srv.URL
}

// Client returns an api client pointed at the backend.
func (b *Backend) Client(t *testing.T) *api.Client {
	t.Helper()
	client, err := api.NewClient(api.Config{BaseURL: b.URL(), Timeout: 5 * time.Second})
	require.NoError(t, err)
	return client
}

// Hits reports how many requests route has served, failures included.
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// Registered returns the payloads of successful registrations in order.
func (b *Backend) Registered() []api.RegisterPatientPayload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]api.RegisterPatientPayload(nil), b.registered...)
}

// SetFailure makes route answer with status. Zero clears it.
func (b *Backend) SetFailure(route string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if status == 0 {
		delete(b.failures, route)
		return
	}
	b.failures[route] = status
}

func (b *Backend) handle(route string, fn func(w http.ResponseWriter, r *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[route]++
		status := b.failures[route]
		b.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
			return
		}
		fn(w, r)
	}
}

func (b *Backend) listHospitals(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	all := append([]api.Hospital(nil), b.hospitals...)
	b.mu.Unlock()

	page := paginate(all, r)
	writeJSON(w, http.StatusOK, api.HospitalsResponse{Count: len(all), Results: page})
}

func (b *Backend) getHospital(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, h := range b.hospitals {
		if h.ID == id {
			writeJSON(w, http.StatusOK, h)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (b *Backend) listPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hospitalID := q.Get("hospital_id")
	search := strings.ToLower(q.Get("search_term"))

	b.mu.Lock()
	var matched []api.Patient
	for _, p := range b.patients {
		if hospitalID != "" && p.HospitalID != hospitalID {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.FullName), search) {
			continue
		}
		matched = append(matched, p)
	}
	b.mu.Unlock()

	order(matched, q.Get("ordering"))
	page := paginate(matched, r)
	writeJSON(w, http.StatusOK, api.PatientsResponse{Count: len(matched), Results: page})
}

func (b *Backend) getPatient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.patients {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var payload api.RegisterPatientPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if payload.HospitalID == "" || strings.TrimSpace(payload.FullName) == "" || payload.PatientHospitalID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "hospital_id, full_name and patient_hospital_id are required"})
		return
	}

	b.mu.Lock()
	p := api.Patient{
		ID:                fmt.Sprintf("p%d", len(b.patients)+1),
		HospitalID:        payload.HospitalID,
		FullName:          payload.FullName,
		YearOfBirth:       payload.YearOfBirth,
		Age:               payload.Age,
		NationalID:        payload.NationalID,
		PatientHospitalID: payload.PatientHospitalID,
		Gender:            payload.Gender,
		Address:           payload.Address,
		Phone1:            payload.Phone1,
		Phone2:            payload.Phone2,
	}
	b.patients = append(b.patients, p)
	b.registered = append(b.registered, payload)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func order(patients []api.Patient, ordering string) {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")

	var key func(api.Patient) string
	switch field {
	case "full_name":
		key = func(p api.Patient) string { return p.FullName }
	case "created_at":
		key = func(p api.Patient) string {
			if p.CreatedAt == nil {
				return ""
			}
			return *p.CreatedAt
		}
	default:
		return
	}

	sort.SliceStable(patients, func(i, j int) bool {
		if desc {
			return key(patients[i]) > key(patients[j])
		}
		return key(patients[i]) < key(patients[j])
	})
}

func paginate[T any](items []T, r *http.Request) []T {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
