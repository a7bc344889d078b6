package patientlist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/config"
	"github.com/intakehq/intake/internal/mode"
	"github.com/intakehq/intake/internal/mode/shared"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/patients"
	"github.com/intakehq/intake/internal/pubsub"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/testutil"
)

type fixture struct {
	history *nav.History
	cache   *query.Client

	mu       sync.Mutex
	requests []url.Values
	noHosp   bool
}

func (f *fixture) patientRequests() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]url.Values(nil), f.requests...)
}

func newFixture(t *testing.T) (*fixture, mode.Services) {
	t.Helper()
	f := &fixture{history: nav.NewHistory(nav.Patients()), cache: query.NewClient()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /hospitals/", func(w http.ResponseWriter, r *http.Request) {
		resp := api.HospitalsResponse{Results: []api.Hospital{}}
		f.mu.Lock()
		empty := f.noHosp
		f.mu.Unlock()
		if !empty {
			resp = api.HospitalsResponse{Count: 2, Results: []api.Hospital{{ID: "h1", Name: "St. Mary"}, {ID: "h2", Name: "General"}}}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("GET /patients/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f.mu.Lock()
		f.requests = append(f.requests, q)
		f.mu.Unlock()

		offset, _ := strconv.Atoi(q.Get("offset"))
		next := "more"
		resp := api.PatientsResponse{
			Count: 30,
			Next:  &next,
			Results: []api.Patient{
				{ID: "p" + q.Get("offset"), FullName: "Ada Lovelace " + q.Get("hospital_id"), YearOfBirth: 1815, PatientHospitalID: "PH" + strconv.Itoa(offset)},
			},
		}
		if offset > 0 {
			resp.Next = nil
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := api.NewClient(api.Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	cfg := config.Defaults()
	return f, mode.Services{
		Patients:  patients.NewService(f.cache, client, f.history),
		Navigator: f.history,
		Config:    &cfg,
	}
}

func update(t *testing.T, c mode.Controller, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := c.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	return m, cmd
}

// settle runs cmd and feeds its message back until no command is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		m, cmd = update(t, m, cmd())
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func started(t *testing.T, services mode.Services) Model {
	t.Helper()
	m := New(services)
	return settle(t, m, m.Init())
}

func TestInit_SelectsFirstHospitalAndLoadsPage(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	require.Equal(t, "h1", m.hospital.ID)
	require.False(t, m.loading)
	require.Len(t, m.table.Rows(), 1)
	require.Equal(t, "Ada Lovelace h1", m.table.Rows()[0][0])

	reqs := f.patientRequests()
	require.Len(t, reqs, 1)
	require.Equal(t, "h1", reqs[0].Get("hospital_id"))
	require.Equal(t, "25", reqs[0].Get("limit"))
	require.Equal(t, "0", reqs[0].Get("offset"))
	require.False(t, reqs[0].Has("search_term"))
}

func TestNoHospitals_PatientsAreSkipped(t *testing.T) {
	f, services := newFixture(t)
	f.noHosp = true
	m := started(t, services)

	require.Nil(t, m.hospital)
	require.Nil(t, m.Params())
	require.Empty(t, f.patientRequests())
	require.Contains(t, m.View(), "No hospitals available")
}

func TestSearch(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	m, _ = update(t, m, runes("/"))
	require.True(t, m.searching)
	m, _ = update(t, m, runes("ada"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	require.False(t, m.searching)
	reqs := f.patientRequests()
	require.Len(t, reqs, 2)
	require.Equal(t, "ada", reqs[1].Get("search_term"))

	// Esc clears the search and returns to the cached first page.
	m, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	m = settle(t, m, cmd)
	require.Empty(t, m.searchTerm)
	require.Len(t, f.patientRequests(), 2)
}

func TestPaging(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	m, cmd := update(t, m, runes("]"))
	m = settle(t, m, cmd)
	require.Equal(t, 25, m.offset)
	require.Equal(t, "25", f.patientRequests()[1].Get("offset"))
	require.Contains(t, m.status(), "26–26 of 30")

	// Last page: no further paging.
	_, cmd = update(t, m, runes("]"))
	require.Nil(t, cmd)

	m, cmd = update(t, m, runes("["))
	m = settle(t, m, cmd)
	require.Zero(t, m.offset)
	require.Len(t, f.patientRequests(), 2, "first page comes from the cache")
}

func TestOrdering_IsPartOfTheQuery(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	m, cmd := update(t, m, runes("o"))
	settle(t, m, cmd)

	reqs := f.patientRequests()
	require.Len(t, reqs, 2)
	require.Equal(t, Orderings[1], reqs[1].Get("ordering"))
}

func TestHospitalPicker(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	m, _ = update(t, m, runes("h"))
	require.True(t, m.picking)
	m, _ = update(t, m, runes("j"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = settle(t, m, cmd)

	require.False(t, m.picking)
	require.Equal(t, "h2", m.hospital.ID)
	require.Equal(t, "h2", f.patientRequests()[1].Get("hospital_id"))
}

func TestStalePageIsDropped(t *testing.T) {
	_, services := newFixture(t)
	m := started(t, services)

	old := m.table.Rows()
	stale := PatientsLoadedMsg{
		Key:    patients.PatientsKey(&api.PatientsParams{HospitalID: api.Ptr("h2")}),
		Result: query.Result[api.PatientsResponse]{Status: query.StatusSuccess, Data: api.PatientsResponse{Results: []api.Patient{{FullName: "Someone Else"}}}},
	}
	m, _ = update(t, m, stale)
	require.Equal(t, old, m.table.Rows())
}

func TestInvalidation_Reloads(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	f.cache.InvalidateKind(patients.KindPatients)
	m, cmd := update(t, m, pubsub.Event[query.Entry]{
		Type:    pubsub.InvalidatedEvent,
		Payload: query.Entry{Key: patients.PatientsKey(m.Params())},
	})
	settle(t, m, cmd)

	require.Len(t, f.patientRequests(), 2)
}

func TestAddPatient_Navigates(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	update(t, m, runes("a"))
	require.Equal(t, nav.RegisterPatient(), f.history.Current())
}

func TestOpen_PushesSelectedPatient(t *testing.T) {
	f, services := newFixture(t)
	m := started(t, services)

	p, ok := m.Selected()
	require.True(t, ok)
	require.Equal(t, "p0", p.ID)

	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, nav.Patient("p0"), f.history.Current())
}

func TestOpen_EmptyPageDoesNothing(t *testing.T) {
	f, services := newFixture(t)
	m := New(services)

	_, ok := m.Selected()
	require.False(t, ok)

	update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, nav.Patients(), f.history.Current())
	require.Equal(t, 1, f.history.Len())
}

type program struct {
	c mode.Controller
}

func (p program) Init() tea.Cmd { return p.c.Init() }

func (p program) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	c, cmd := p.c.Update(msg)
	p.c = c
	return p, cmd
}

func (p program) View() string { return p.c.View() }

func TestPatientList_Renders(t *testing.T) {
	_, services := newFixture(t)
	tm := teatest.NewTestModel(t, program{c: New(services)}, teatest.WithInitialTermSize(120, 40))

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		s := string(out)
		return strings.Contains(s, "St. Mary") && strings.Contains(s, "Ada Lovelace h1")
	}, teatest.WithDuration(2*time.Second))

	tm.Send(runes("q"))
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

func TestRows_ShowWhenPatientWasAdded(t *testing.T) {
	backend := testutil.NewBuilder(t).WithStandardTestData().Build()
	history := nav.NewHistory(nav.Patients())
	cfg := config.Defaults()
	cfg.UI.Ordering = "-created_at"
	services := mode.Services{
		Patients:  patients.NewService(query.NewClient(), backend.Client(t), history),
		Navigator: history,
		Config:    &cfg,
		Clock:     shared.FixedClock(time.Date(2024, 4, 3, 9, 0, 0, 0, time.UTC)),
	}

	m := started(t, services)

	rows := m.table.Rows()
	require.Len(t, rows, 4)
	require.Equal(t, "Barbara Liskov", rows[0][0])
	require.Equal(t, "2d ago", rows[0][5])
	require.Equal(t, 1, backend.Hits(testutil.RoutePatients))
}
