// Package patientlist implements the patients screen: a hospital picker and
// a paged, searchable patients table.
package patientlist

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/keys"
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/mode"
	"github.com/intakehq/intake/internal/mode/shared"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/patients"
	"github.com/intakehq/intake/internal/pubsub"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/ui/picker"
	"github.com/intakehq/intake/internal/ui/styles"
	"github.com/intakehq/intake/internal/ui/toaster"
)

// Orderings cycles through the server-side sort options. The empty string
// leaves ordering to the backend.
var Orderings = []string{"", "full_name", "-full_name", "-created_at"}

// HospitalsLoadedMsg carries the hospital list.
type HospitalsLoadedMsg struct {
	Result query.Result[api.HospitalsResponse]
}

// PatientsLoadedMsg carries one patients page and the key it was read under.
type PatientsLoadedMsg struct {
	Key    query.Key
	Result query.Result[api.PatientsResponse]
}

// Model is the patients screen state.
type Model struct {
	services mode.Services
	keys     keys.ListKeyMap
	help     help.Model

	table     table.Model
	search    textinput.Model
	searching bool

	hospitals []api.Hospital
	loaded    bool
	hospital  *api.Hospital
	picking   bool
	picker    picker.Model

	pageSize   int
	offset     int
	searchTerm string
	ordering   int // index into Orderings

	page    api.PatientsResponse
	loading bool
	err     error

	clock shared.Clock

	width  int
	height int
}

// New builds the screen. Nothing is fetched until Init.
func New(services mode.Services) Model {
	pageSize := 25
	if services.Config != nil && services.Config.UI.PageSize > 0 {
		pageSize = services.Config.UI.PageSize
	}

	t := table.New(
		table.WithColumns(columns(80)),
		table.WithFocused(true),
		table.WithHeight(pageSize),
	)
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.BorderDefaultColor).
		BorderBottom(true).
		Bold(true)
	ts.Selected = ts.Selected.Foreground(styles.ButtonTextColor).Background(styles.ButtonPrimaryBgColor)
	t.SetStyles(ts)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "name or hospital ID"

	m := Model{
		services: services,
		keys:     keys.DefaultListKeyMap(),
		help:     help.New(),
		table:    t,
		search:   search,
		pageSize: pageSize,
		clock:    services.Clock,
	}
	if m.clock == nil {
		m.clock = shared.RealClock{}
	}
	if services.Config != nil {
		for i, o := range Orderings {
			if o == services.Config.UI.Ordering {
				m.ordering = i
			}
		}
	}
	return m
}

func columns(width int) []table.Column {
	name := max(width-4-8-14-14-16-10, 16)
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Born", Width: 8},
		{Title: "Hospital ID", Width: 14},
		{Title: "National ID", Width: 14},
		{Title: "Phone", Width: 16},
		{Title: "Added", Width: 10},
	}
}

// Init loads the hospitals.
func (m Model) Init() tea.Cmd {
	return m.loadHospitals()
}

func (m Model) loadHospitals() tea.Cmd {
	svc := m.services.Patients
	limit := 100
	if m.services.Config != nil {
		limit = m.services.Config.UI.HospitalLimit
	}
	return func() tea.Msg {
		return HospitalsLoadedMsg{Result: svc.Hospitals(context.Background(), &api.PaginationParams{Offset: api.Ptr(0), Limit: api.Ptr(limit)})}
	}
}

// Params returns the patients query for the current view, or nil when no
// hospital is chosen.
func (m Model) Params() *api.PatientsParams {
	if m.hospital == nil {
		return nil
	}
	p := &api.PatientsParams{
		HospitalID: api.Ptr(m.hospital.ID),
		Limit:      api.Ptr(m.pageSize),
		Offset:     api.Ptr(m.offset),
	}
	if m.searchTerm != "" {
		p.SearchTerm = api.Ptr(m.searchTerm)
	}
	if o := Orderings[m.ordering]; o != "" {
		p.Ordering = api.Ptr(o)
	}
	return p
}

func (m Model) loadPatients(opts ...query.Option) (Model, tea.Cmd) {
	params := m.Params()
	pk := patients.PatientsKey(params)
	svc := m.services.Patients

	if params != nil {
		m.loading = true
	}
	return m, func() tea.Msg {
		return PatientsLoadedMsg{Key: pk, Result: svc.Patients(context.Background(), params, opts...)}
	}
}

// Update implements mode.Controller.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil

	case HospitalsLoadedMsg:
		if msg.Result.Err != nil {
			m.err = msg.Result.Err
			return m, mode.ShowToast("Could not load hospitals", toaster.StyleError)
		}
		m.hospitals = msg.Result.Data.Results
		m.loaded = true
		if m.hospital == nil && len(m.hospitals) > 0 {
			m.hospital = &m.hospitals[0]
		}
		return m.loadPatients()

	case PatientsLoadedMsg:
		if !msg.Key.Equal(patients.PatientsKey(m.Params())) {
			log.Debug(log.CatUI, "dropping patients page for old view", "key", msg.Key)
			return m, nil
		}
		m.loading = false
		if msg.Result.Skipped {
			return m, nil
		}
		m.err = msg.Result.Err
		m.page = msg.Result.Data
		m.table.SetRows(rows(m.page.Results, m.clock))
		return m, nil

	case pubsub.Event[query.Entry]:
		if msg.Type == pubsub.InvalidatedEvent && msg.Payload.Key.Kind() == patients.KindPatients && m.hospital != nil {
			return m.loadPatients()
		}
		return m, nil

	case picker.SelectMsg:
		m.picking = false
		for i := range m.hospitals {
			if m.hospitals[i].ID == msg.Option.Value {
				m.hospital = &m.hospitals[i]
			}
		}
		m.offset = 0
		return m.loadPatients()

	case picker.CancelMsg:
		m.picking = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.searching {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			m.searchTerm = strings.TrimSpace(m.search.Value())
			m.offset = 0
			return m.loadPatients()
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			m.search.SetValue(m.searchTerm)
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Escape):
		if m.searchTerm == "" {
			return m, nil
		}
		m.searchTerm = ""
		m.search.SetValue("")
		m.offset = 0
		return m.loadPatients()
	case key.Matches(msg, m.keys.Hospital):
		return m.openPicker(), nil
	case key.Matches(msg, m.keys.Order):
		m.ordering = (m.ordering + 1) % len(Orderings)
		m.offset = 0
		return m.loadPatients()
	case key.Matches(msg, m.keys.NextPage):
		if m.page.Next == nil {
			return m, nil
		}
		m.offset += m.pageSize
		return m.loadPatients()
	case key.Matches(msg, m.keys.PrevPage):
		if m.offset == 0 {
			return m, nil
		}
		m.offset = max(m.offset-m.pageSize, 0)
		return m.loadPatients()
	case key.Matches(msg, m.keys.Refresh):
		return m.loadPatients(query.WithRefetch())
	case key.Matches(msg, m.keys.New):
		m.services.Navigator.Push(nav.RegisterPatient())
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if p, ok := m.Selected(); ok {
			m.services.Navigator.Push(nav.Patient(p.ID))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// Selected returns the patient under the table cursor.
func (m Model) Selected() (api.Patient, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.page.Results) {
		return api.Patient{}, false
	}
	return m.page.Results[i], true
}

func (m Model) openPicker() Model {
	opts := make([]picker.Option, len(m.hospitals))
	for i, h := range m.hospitals {
		opts[i] = picker.Option{Label: h.Name, Value: h.ID}
	}
	p := picker.New("Hospital", opts).SetBoxWidth(40).SetSize(m.width, m.height)
	if m.hospital != nil {
		p = p.SetSelected(picker.FindIndexByValue(opts, m.hospital.ID))
	}
	m.picker = p
	m.picking = true
	return m
}

func rows(list []api.Patient, clock shared.Clock) []table.Row {
	out := make([]table.Row, len(list))
	for i, p := range list {
		out[i] = table.Row{p.FullName, strconv.Itoa(p.YearOfBirth), p.PatientHospitalID, p.NationalID, p.Phone1, shared.Added(p.CreatedAt, clock)}
	}
	return out
}

// SetSize implements mode.Controller.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.help.Width = width
	m.table.SetColumns(columns(width))
	m.table.SetHeight(max(min(m.pageSize, height-8), 3))
	m.picker = m.picker.SetSize(width, height)
	return m
}

// Close implements mode.Controller.
func (m Model) Close() {}

// View implements mode.Controller.
func (m Model) View() string {
	var b strings.Builder

	title := "Patients"
	if m.hospital != nil {
		title += " · " + m.hospital.Name
	}
	b.WriteString(styles.PageTitleStyle.Render(title))
	b.WriteString("\n")

	switch {
	case m.searching:
		b.WriteString(m.search.View())
	case m.searchTerm != "":
		b.WriteString(styles.HintStyle.Render(fmt.Sprintf(" search: %q (esc to clear)", m.searchTerm)))
	}
	b.WriteString("\n")

	switch {
	case m.hospital == nil && m.loaded:
		b.WriteString(styles.HintStyle.Render(" No hospitals available"))
	case m.hospital == nil:
		b.WriteString(styles.HintStyle.Render(" Loading hospitals…"))
	case m.err != nil && len(m.page.Results) == 0:
		b.WriteString(styles.ErrorStyle.Render("Could not load patients: " + m.err.Error()))
	case len(m.page.Results) == 0 && !m.loading:
		b.WriteString(styles.HintStyle.Render(" No patients found"))
	default:
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")
	b.WriteString(styles.StatusBarStyle.Render(m.status()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	view := b.String()
	if m.picking {
		return m.picker.Overlay(view)
	}
	return view
}

func (m Model) status() string {
	if m.loading {
		return "loading…"
	}
	if m.page.Count == 0 {
		return ""
	}
	from := m.offset + 1
	to := m.offset + len(m.page.Results)
	s := fmt.Sprintf("%d–%d of %d", from, to, m.page.Count)
	if o := Orderings[m.ordering]; o != "" {
		s += " · ordered by " + o
	}
	return s
}
