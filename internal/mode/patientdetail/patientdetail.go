// Package patientdetail implements the read-only patient page.
package patientdetail

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/keys"
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/mode"
	"github.com/intakehq/intake/internal/mode/shared"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/patients"
	"github.com/intakehq/intake/internal/pubsub"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/ui/markdown"
	"github.com/intakehq/intake/internal/ui/styles"
)

// PatientLoadedMsg carries the patient record.
type PatientLoadedMsg struct {
	ID     string
	Result query.Result[api.Patient]
}

// HospitalLoadedMsg carries the patient's hospital.
type HospitalLoadedMsg struct {
	ID     string
	Result query.Result[api.Hospital]
}

// Model is the patient page state.
type Model struct {
	services mode.Services
	keys     keys.DetailKeyMap
	help     help.Model
	viewport viewport.Model
	renderer *markdown.Renderer
	clock    shared.Clock

	id       string
	patient  *api.Patient
	hospital *api.Hospital
	loading  bool
	err      error

	width  int
	height int
}

// New builds the page for patient id. Nothing is fetched until Init.
func New(services mode.Services, id string) Model {
	m := Model{
		services: services,
		keys:     keys.DefaultDetailKeyMap(),
		help:     help.New(),
		viewport: viewport.New(80, 20),
		clock:    services.Clock,
		id:       id,
		loading:  true,
	}
	if m.clock == nil {
		m.clock = shared.RealClock{}
	}
	return m
}

// ID returns the patient being shown.
func (m Model) ID() string {
	return m.id
}

// Init loads the patient.
func (m Model) Init() tea.Cmd {
	return m.loadPatient()
}

func (m Model) loadPatient(opts ...query.Option) tea.Cmd {
	svc := m.services.Patients
	id := m.id
	return func() tea.Msg {
		return PatientLoadedMsg{ID: id, Result: svc.Patient(context.Background(), id, opts...)}
	}
}

func (m Model) loadHospital(id string) tea.Cmd {
	svc := m.services.Patients
	return func() tea.Msg {
		return HospitalLoadedMsg{ID: id, Result: svc.Hospital(context.Background(), id)}
	}
}

// Update implements mode.Controller.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil

	case PatientLoadedMsg:
		if msg.ID != m.id {
			return m, nil
		}
		m.loading = false
		m.err = msg.Result.Err
		// A failed refetch still carries the last good record
		p := msg.Result.Data
		if p.ID == "" {
			return m, nil
		}
		m.patient = &p
		m = m.refresh()
		if m.hospital != nil && m.hospital.ID == p.HospitalID {
			return m, nil
		}
		return m, m.loadHospital(p.HospitalID)

	case HospitalLoadedMsg:
		if m.patient == nil || msg.ID != m.patient.HospitalID {
			return m, nil
		}
		if msg.Result.Err != nil {
			log.Warn(log.CatUI, "hospital lookup failed", "id", msg.ID, "error", msg.Result.Err)
			return m, nil
		}
		h := msg.Result.Data
		m.hospital = &h
		return m.refresh(), nil

	case pubsub.Event[query.Entry]:
		if msg.Type == pubsub.InvalidatedEvent && msg.Payload.Key.Equal(patients.PatientKey(m.id)) {
			m.loading = true
			return m, m.loadPatient()
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.services.Navigator.Push(nav.Patients())
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.loadPatient(query.WithRefetch())
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Card returns the markdown shown for the loaded patient.
func (m Model) Card() string {
	if m.patient == nil {
		return ""
	}
	p := m.patient

	hospital := p.HospitalID
	if m.hospital != nil {
		hospital = m.hospital.Name
	}
	age := ""
	if p.Age != nil {
		age = strconv.Itoa(*p.Age)
	}
	born := ""
	if p.YearOfBirth > 0 {
		born = strconv.Itoa(p.YearOfBirth)
	}

	return markdown.Card(p.FullName, []markdown.Field{
		{Label: "Hospital", Value: hospital},
		{Label: "Hospital ID", Value: p.PatientHospitalID},
		{Label: "National ID", Value: p.NationalID},
		{Label: "Born", Value: born},
		{Label: "Age", Value: age},
		{Label: "Gender", Value: p.Gender},
		{Label: "Address", Value: p.Address},
		{Label: "Phone", Value: p.Phone1},
		{Label: "Phone 2", Value: p.Phone2},
		{Label: "Added", Value: shared.Added(p.CreatedAt, m.clock)},
	})
}

// refresh re-renders the card into the viewport.
func (m Model) refresh() Model {
	if m.patient == nil {
		return m
	}
	width := max(m.viewport.Width-2, 20)
	if m.renderer == nil || m.renderer.Width() != width {
		r, err := markdown.New(width)
		if err != nil {
			log.ErrorErr(log.CatUI, "markdown renderer", err)
			m.viewport.SetContent(m.Card())
			return m
		}
		m.renderer = r
	}

	out, err := m.renderer.Render(m.Card())
	if err != nil {
		log.ErrorErr(log.CatUI, "render patient card", err, "id", m.id)
		out = m.Card()
	}
	m.viewport.SetContent(out)
	return m
}

// SetSize implements mode.Controller.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.help.Width = width
	m.viewport.Width = width
	m.viewport.Height = max(height-4, 3)
	return m.refresh()
}

// Close implements mode.Controller.
func (m Model) Close() {}

// View implements mode.Controller.
func (m Model) View() string {
	var b strings.Builder

	title := "Patient"
	if m.patient != nil {
		title += " · " + m.patient.FullName
	}
	b.WriteString(styles.PageTitleStyle.Render(title))
	b.WriteString("\n")

	switch {
	case m.patient == nil && m.err != nil:
		b.WriteString(styles.ErrorStyle.Render("Could not load patient: " + m.err.Error()))
	case m.patient == nil:
		b.WriteString(styles.HintStyle.Render(" Loading patient…"))
	default:
		b.WriteString(m.viewport.View())
	}
	b.WriteString("\n")

	status := ""
	if m.loading && m.patient != nil {
		status = "refreshing…"
	}
	b.WriteString(styles.StatusBarStyle.Render(status))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
