package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL + "/api/", Token: "secret", Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)

	_, err = NewClient(Config{BaseURL: "ftp://example.com"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "http or https")

	_, err = NewClient(Config{BaseURL: "https://example.com/api"})
	require.NoError(t, err)
}

func TestGetHospitals_EncodesPagination(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/hospitals/", r.URL.Path)
		require.Equal(t, "0", r.URL.Query().Get("offset"))
		require.Equal(t, "100", r.URL.Query().Get("limit"))
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NotEmpty(t, r.Header.Get("X-Request-ID"))

		_ = json.NewEncoder(w).Encode(HospitalsResponse{
			Count:   1,
			Results: []Hospital{{ID: "h1", Name: "St. Mary"}},
		})
	})

	req := c.GetHospitals(&PaginationParams{Offset: Ptr(0), Limit: Ptr(100)})
	require.Equal(t, "/hospitals/", req.Path)

	got, err := req.Do(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, got.Count)
	require.Equal(t, "St. Mary", got.Results[0].Name)
}

func TestGetHospitals_NilParamsOmitsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`{"count":0,"results":[]}`))
	})

	_, err := c.GetHospitals(nil).Do(context.Background())
	require.NoError(t, err)
}

func TestGetPatients_EncodesFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "h1", q.Get("hospital_id"))
		require.Equal(t, "25", q.Get("limit"))
		require.Equal(t, "50", q.Get("offset"))
		require.Equal(t, "love", q.Get("search_term"))
		require.False(t, q.Has("ordering"))
		_, _ = w.Write([]byte(`{"count":1,"results":[{"id":"p1","full_name":"Ada Lovelace","year_of_birth":1815}]}`))
	})

	got, err := c.GetPatients(PatientsParams{
		HospitalID: Ptr("h1"),
		Limit:      Ptr(25),
		Offset:     Ptr(50),
		SearchTerm: Ptr("love"),
	}).Do(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Ada Lovelace", got.Results[0].FullName)
}

func TestGetPatient_EscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/patients/a%2Fb/", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"id":"a/b"}`))
	})

	got, err := c.GetPatient("a/b").Do(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a/b", got.ID)
}

func TestRegisterPatient_PostsJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Ada Lovelace", body["full_name"])
		require.Equal(t, "h1", body["hospital_id"])
		require.Equal(t, float64(1815), body["year_of_birth"])
		require.Equal(t, "PH1", body["patient_hospital_id"])
		require.NotContains(t, body, "age")

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"p9","full_name":"Ada Lovelace"}`))
	})

	got, err := c.RegisterPatient(RegisterPatientPayload{
		HospitalID:        "h1",
		FullName:          "Ada Lovelace",
		YearOfBirth:       1815,
		PatientHospitalID: "PH1",
	}).Do(context.Background())
	require.NoError(t, err)
	require.Equal(t, "p9", got.ID)
}

func TestDo_Non2xxIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"patient_hospital_id":["already exists"]}`, http.StatusBadRequest)
	})

	_, err := c.RegisterPatient(RegisterPatientPayload{}).Do(context.Background())

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Contains(t, apiErr.Body, "already exists")
	require.Contains(t, apiErr.Error(), "POST /patients/: status 400")
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.GetHospital("h1").Do(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "GET /hospitals/h1/")
}

func TestDo_BadJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.GetHospital("h1").Do(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "decoding GET /hospitals/h1/ response")
}
