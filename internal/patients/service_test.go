package patients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/mocks"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/registration"
)

type backend struct {
	srv *httptest.Server

	hospitals atomic.Int32
	patients  atomic.Int32
	registers atomic.Int32

	mu       sync.Mutex
	lastBody map[string]any

	// release, when set, holds hospitals responses until closed.
	release chan struct{}
	// failPatients makes the patients endpoint return 500.
	failPatients atomic.Bool
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /hospitals/", func(w http.ResponseWriter, r *http.Request) {
		b.hospitals.Add(1)
		if b.release != nil {
			<-b.release
		}
		writeJSON(w, api.HospitalsResponse{Count: 1, Results: []api.Hospital{{ID: "h1", Name: "St. Mary"}}})
	})
	mux.HandleFunc("GET /patients/", func(w http.ResponseWriter, r *http.Request) {
		b.patients.Add(1)
		if b.failPatients.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		writeJSON(w, api.PatientsResponse{Count: 1, Results: []api.Patient{{ID: "p1", HospitalID: r.URL.Query().Get("hospital_id")}}})
	})
	mux.HandleFunc("POST /patients/", func(w http.ResponseWriter, r *http.Request) {
		b.registers.Add(1)
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.lastBody = body
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, api.Patient{ID: "p2", FullName: "Ada Lovelace"})
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newService(t *testing.T, b *backend, navigator nav.Navigator) *Service {
	t.Helper()
	client, err := api.NewClient(api.Config{BaseURL: b.srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	cache := query.NewClient()
	t.Cleanup(cache.Close)
	return NewService(cache, client, navigator)
}

func TestPatients_NoHospitalIsSkipped(t *testing.T) {
	b := newBackend(t)
	svc := newService(t, b, mocks.NewMockNavigator(t))

	res := svc.Patients(context.Background(), nil)
	require.True(t, res.Skipped)
	require.NoError(t, res.Err)
	require.Zero(t, res.Data)

	res = svc.Patients(context.Background(), &api.PatientsParams{Limit: api.Ptr(25)})
	require.True(t, res.Skipped)

	require.Zero(t, b.patients.Load())
	_, ok := svc.Cache().Entry(PatientsKey(nil))
	require.False(t, ok)
}

func TestPatients_CachedByFullKey(t *testing.T) {
	b := newBackend(t)
	svc := newService(t, b, mocks.NewMockNavigator(t))
	ctx := context.Background()

	params := &api.PatientsParams{HospitalID: api.Ptr("h1"), Limit: api.Ptr(25), Offset: api.Ptr(0)}
	res := svc.Patients(ctx, params)
	require.NoError(t, res.Err)
	require.Equal(t, "h1", res.Data.Results[0].HospitalID)

	svc.Patients(ctx, params)
	require.Equal(t, int32(1), b.patients.Load())

	ordered := *params
	ordered.Ordering = api.Ptr("-created_at")
	svc.Patients(ctx, &ordered)
	require.Equal(t, int32(2), b.patients.Load())
}

func TestPatientsKey_Layout(t *testing.T) {
	key := PatientsKey(&api.PatientsParams{HospitalID: api.Ptr("h1"), Limit: api.Ptr(25), Offset: api.Ptr(50)})
	require.Equal(t, `["patients","h1",25,50,null,null]`, key.String())
	require.Equal(t, `["hospitals"]`, HospitalsKey().String())
	require.Equal(t, `["hospitals","h1"]`, HospitalKey("h1").String())
}

func TestPatients_FailureKeepsPreviousData(t *testing.T) {
	b := newBackend(t)
	svc := newService(t, b, mocks.NewMockNavigator(t))
	ctx := context.Background()
	params := &api.PatientsParams{HospitalID: api.Ptr("h1")}

	first := svc.Patients(ctx, params)
	require.NoError(t, first.Err)

	b.failPatients.Store(true)
	var calls int
	res := svc.Patients(ctx, params, query.WithRefetch(), query.WithOnError(func(error) { calls++ }))

	require.Equal(t, query.StatusError, res.Status)
	var apiErr *api.Error
	require.ErrorAs(t, res.Err, &apiErr)
	require.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	require.Equal(t, first.Data, res.Data)
	require.Equal(t, 1, calls)
	require.Equal(t, int32(2), b.patients.Load())
}

func TestHospitals_OverlappingCallersShareOneRequest(t *testing.T) {
	b := newBackend(t)
	b.release = make(chan struct{})
	svc := newService(t, b, mocks.NewMockNavigator(t))

	const callers = 5
	results := make([]query.Result[api.HospitalsResponse], callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = svc.Hospitals(context.Background(), nil)
		}()
	}

	require.Eventually(t, func() bool {
		e, ok := svc.Cache().Entry(HospitalsKey())
		return ok && e.Status == query.StatusLoading
	}, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(b.release)
	wg.Wait()

	require.Equal(t, int32(1), b.hospitals.Load())
	for _, res := range results {
		require.NoError(t, res.Err)
		require.Equal(t, "h1", res.Data.Results[0].ID)
	}
}

func TestRegisterPatient_MapsFormAndNavigates(t *testing.T) {
	b := newBackend(t)
	navigator := mocks.NewMockNavigator(t)
	navigator.EXPECT().Replace(nav.Patients()).Return().Once()
	svc := newService(t, b, navigator)
	ctx := context.Background()

	svc.Patients(ctx, &api.PatientsParams{HospitalID: api.Ptr("h1")})
	require.Equal(t, int32(1), b.patients.Load())

	exec := svc.RegisterPatient()
	got, err := exec.Mutate(ctx, registration.Form{
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Hospital:          &registration.Option{Label: "St. Mary", Value: "h1"},
		YearOfBirth:       1815,
		PatientHospitalID: "PH1",
	})
	require.NoError(t, err)
	require.Equal(t, "p2", got.ID)
	require.False(t, exec.IsLoading())
	require.Equal(t, query.StatusSuccess, exec.State().Status)

	b.mu.Lock()
	body := b.lastBody
	b.mu.Unlock()
	require.Equal(t, "Ada Lovelace", body["full_name"])
	require.Equal(t, "h1", body["hospital_id"])
	require.EqualValues(t, 1815, body["year_of_birth"])
	require.Equal(t, "PH1", body["patient_hospital_id"])

	// The patients page was invalidated by the registration.
	svc.Patients(ctx, &api.PatientsParams{HospitalID: api.Ptr("h1")})
	require.Equal(t, int32(2), b.patients.Load())
}

func TestRegisterPatient_FailureDoesNotNavigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"patient_hospital_id":["taken"]}`, http.StatusBadRequest)
	}))
	t.Cleanup(srv.Close)
	client, err := api.NewClient(api.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	navigator := mocks.NewMockNavigator(t)
	svc := NewService(query.NewClient(), client, navigator)

	exec := svc.RegisterPatient()
	_, err = exec.Mutate(context.Background(), registration.Form{FirstName: "A", LastName: "B"})
	require.Error(t, err)

	state := exec.State()
	require.Equal(t, query.StatusError, state.Status)
	require.False(t, state.IsLoading)
	var apiErr *api.Error
	require.ErrorAs(t, state.Err, &apiErr)
	navigator.AssertNotCalled(t, "Replace", nav.Patients())
}
