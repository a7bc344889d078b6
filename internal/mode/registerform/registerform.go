// Package registerform implements the add-new-patient screen.
package registerform

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/keys"
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/mode"
	"github.com/intakehq/intake/internal/mutation"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/registration"
	"github.com/intakehq/intake/internal/ui/modal"
	"github.com/intakehq/intake/internal/ui/picker"
	"github.com/intakehq/intake/internal/ui/styles"
	"github.com/intakehq/intake/internal/ui/toaster"
)

const fieldWidth = 44

type field int

const (
	fieldHospital field = iota
	fieldFirstName
	fieldLastName
	fieldYearOfBirth
	fieldAge
	fieldNationalID
	fieldPatientHospitalID
	fieldGender
	fieldAddress
	fieldPhone1
	fieldPhone2
	fieldSubmit
)

type fieldSpec struct {
	name     string // FieldErrors key
	label    string
	required bool
	numeric  bool
}

var specs = [...]fieldSpec{
	fieldHospital:          {name: "hospital", label: "Hospital", required: true},
	fieldFirstName:         {name: "firstName", label: "First name", required: true},
	fieldLastName:          {name: "lastName", label: "Last name", required: true},
	fieldYearOfBirth:       {name: "yearOfBirth", label: "Year of birth", required: true, numeric: true},
	fieldAge:               {name: "age", label: "Age", numeric: true},
	fieldNationalID:        {name: "nationalId", label: "National ID"},
	fieldPatientHospitalID: {name: "patientHospitalId", label: "Patient hospital ID", required: true},
	fieldGender:            {name: "gender", label: "Gender"},
	fieldAddress:           {name: "address", label: "Address"},
	fieldPhone1:            {name: "phone1", label: "Phone 1"},
	fieldPhone2:            {name: "phone2", label: "Phone 2"},
}

// HospitalsLoadedMsg carries the hospitals used by the selector.
type HospitalsLoadedMsg struct {
	Result query.Result[api.HospitalsResponse]
}

// SubmittedMsg reports a settled registration write.
type SubmittedMsg struct {
	Patient api.Patient
	Err     error
}

// Model is the registration screen state.
type Model struct {
	services mode.Services
	exec     *mutation.Executor[registration.Form, api.Patient]
	guard    *registration.Guard

	keys    keys.FormKeyMap
	help    help.Model
	spinner spinner.Model

	inputs    []textinput.Model // indexed by field; hospital and submit slots unused
	hospital  *registration.Option
	hospitals []api.Hospital
	loaded    bool
	focus     field
	touched   map[field]bool

	errs       registration.FieldErrors
	submitting bool

	picking bool
	picker  picker.Model

	confirm modal.Model

	width  int
	height int
}

// New builds the screen with a fresh executor and a clean form.
func New(services mode.Services) Model {
	inputs := make([]textinput.Model, fieldSubmit)
	for f := fieldFirstName; f < fieldSubmit; f++ {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Width = fieldWidth - 4
		ti.Placeholder = specs[f].label
		if specs[f].numeric {
			ti.CharLimit = 4
		}
		inputs[f] = ti
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	m := Model{
		services: services,
		exec:     services.Patients.RegisterPatient(),
		guard:    registration.NewGuard(services.Navigator, registration.Form{}),
		keys:     keys.DefaultFormKeyMap(),
		help:     help.New(),
		spinner:  sp,
		inputs:   inputs,
		touched:  map[field]bool{},
	}
	m.confirm = modal.New(confirmConfig())
	m.errs = registration.Validate(m.Form())
	return m
}

// digitsOnly reports whether a key press may go into a numeric field.
func digitsOnly(msg tea.KeyMsg) bool {
	if msg.Type != tea.KeyRunes {
		return true
	}
	for _, r := range msg.Runes {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Init loads the hospitals for the selector.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadHospitals(), m.spinner.Tick)
}

func (m Model) loadHospitals() tea.Cmd {
	svc := m.services.Patients
	limit := 100
	if m.services.Config != nil {
		limit = m.services.Config.UI.HospitalLimit
	}
	return func() tea.Msg {
		res := svc.Hospitals(context.Background(), &api.PaginationParams{Offset: api.Ptr(0), Limit: api.Ptr(limit)})
		return HospitalsLoadedMsg{Result: res}
	}
}

// Form returns the current form values.
func (m Model) Form() registration.Form {
	f := registration.Form{
		Hospital:          m.hospital,
		FirstName:         m.inputs[fieldFirstName].Value(),
		LastName:          m.inputs[fieldLastName].Value(),
		NationalID:        m.inputs[fieldNationalID].Value(),
		PatientHospitalID: m.inputs[fieldPatientHospitalID].Value(),
		Gender:            m.inputs[fieldGender].Value(),
		Address:           m.inputs[fieldAddress].Value(),
		Phone1:            m.inputs[fieldPhone1].Value(),
		Phone2:            m.inputs[fieldPhone2].Value(),
	}
	f.YearOfBirth, _ = strconv.Atoi(m.inputs[fieldYearOfBirth].Value())
	if age, err := strconv.Atoi(m.inputs[fieldAge].Value()); err == nil {
		f.Age = &age
	}
	return f
}

// Errors returns the current validation result.
func (m Model) Errors() registration.FieldErrors {
	return m.errs
}

// CanSubmit reports whether the submit button is enabled.
func (m Model) CanSubmit() bool {
	return registration.CanSubmit(m.errs, m.exec.IsLoading(), m.submitting)
}

// Confirming reports whether the leave confirmation is showing.
func (m Model) Confirming() bool {
	return m.guard.Confirming()
}

// Update implements mode.Controller.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.SetSize(msg.Width, msg.Height), nil

	case HospitalsLoadedMsg:
		if msg.Result.Err != nil {
			return m, mode.ShowToast("Could not load hospitals", toaster.StyleError)
		}
		m.hospitals = msg.Result.Data.Results
		m.loaded = true
		return m, nil

	case SubmittedMsg:
		m.submitting = false
		if msg.Err != nil {
			return m, mode.ShowToast("Registration failed: "+rootCause(msg.Err), toaster.StyleError)
		}
		// The executor's success handler has already navigated away; the app
		// announces the new patient.
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case modal.ConfirmMsg:
		m.guard.ConfirmExit()
		return m, nil

	case modal.CancelMsg:
		m.guard.DismissExit()
		return m, nil

	case picker.SelectMsg:
		m.picking = false
		m.hospital = &registration.Option{Label: msg.Option.Label, Value: msg.Option.Value}
		m.touched[fieldHospital] = true
		return m.changed(), nil

	case picker.CancelMsg:
		m.picking = false
		m.touched[fieldHospital] = true
		return m.changed(), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if !m.guard.Confirming() {
			return m, nil
		}
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	if m.focus != fieldHospital && m.focus != fieldSubmit {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	if m.guard.Confirming() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}
	if m.picking {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		if m.guard.RequestExit() {
			m.confirm = modal.New(confirmConfig())
			m.confirm.SetSize(m.width, m.height)
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Next):
		return m.moveFocus(1), nil
	case key.Matches(msg, m.keys.Prev):
		return m.moveFocus(-1), nil
	case key.Matches(msg, m.keys.Select):
		switch m.focus {
		case fieldHospital:
			return m.openPicker(), nil
		case fieldSubmit:
			return m.submit()
		default:
			return m.moveFocus(1), nil
		}
	}

	if m.focus == fieldHospital || m.focus == fieldSubmit {
		return m, nil
	}
	if specs[m.focus].numeric && !digitsOnly(msg) {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m.changed(), cmd
}

func confirmConfig() modal.Config {
	return modal.Config{
		Title:          registration.ConfirmTitle,
		Message:        registration.ConfirmMessage,
		ConfirmLabel:   registration.ConfirmButton,
		ConfirmVariant: modal.ButtonDanger,
		MinWidth:       50,
	}
}

// changed revalidates and lets the guard see the new values.
func (m Model) changed() Model {
	form := m.Form()
	m.errs = registration.Validate(form)
	m.guard.Observe(form)
	return m
}

func (m Model) moveFocus(delta int) Model {
	m.touched[m.focus] = true
	if m.focus != fieldHospital && m.focus != fieldSubmit {
		m.inputs[m.focus].Blur()
	}
	next := (int(m.focus) + delta + int(fieldSubmit) + 1) % (int(fieldSubmit) + 1)
	m.focus = field(next)
	if m.focus != fieldHospital && m.focus != fieldSubmit {
		m.inputs[m.focus].Focus()
	}
	return m
}

func (m Model) openPicker() Model {
	opts := make([]picker.Option, len(m.hospitals))
	for i, h := range m.hospitals {
		opts[i] = picker.Option{Label: h.Name, Value: h.ID}
	}
	p := picker.New("Hospital", opts).SetBoxWidth(fieldWidth).SetSize(m.width, m.height)
	if m.hospital != nil {
		p = p.SetSelected(picker.FindIndexByValue(opts, m.hospital.Value))
	}
	m.picker = p
	m.picking = true
	return m
}

func (m Model) submit() (mode.Controller, tea.Cmd) {
	m = m.changed()
	if !m.CanSubmit() {
		for f := fieldHospital; f < fieldSubmit; f++ {
			m.touched[f] = true
		}
		log.Debug(log.CatForm, "submit blocked", "errors", len(m.errs), "loading", m.exec.IsLoading())
		return m, nil
	}

	m.submitting = true
	exec := m.exec
	form := m.Form()
	return m, func() tea.Msg {
		p, err := exec.Mutate(context.Background(), form)
		return SubmittedMsg{Patient: p, Err: err}
	}
}

// SetSize implements mode.Controller.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.help.Width = width
	m.confirm.SetSize(width, height)
	m.picker = m.picker.SetSize(width, height)
	return m
}

// Close detaches the executor so a write still in flight neither updates
// state nor navigates.
func (m Model) Close() {
	m.exec.Close()
}

// View implements mode.Controller.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(styles.PageTitleStyle.Render("← " + registration.PageTitle))
	b.WriteString("\n\n")

	for f := fieldHospital; f < fieldSubmit; f++ {
		b.WriteString(m.renderField(f))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.renderSubmit())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	view := b.String()
	switch {
	case m.guard.Confirming():
		return m.confirm.Overlay(view)
	case m.picking:
		return m.picker.Overlay(view)
	}
	return view
}

func (m Model) renderField(f field) string {
	spec := specs[f]
	label := spec.label
	if spec.required {
		label += " *"
	}

	var errMsg string
	if m.touched[f] {
		errMsg = m.errs[spec.name]
	}

	var input string
	if f == fieldHospital {
		switch {
		case m.hospital != nil:
			input = m.hospital.Label
		case !m.loaded:
			input = styles.HintStyle.Render("Loading hospitals…")
		default:
			input = styles.HintStyle.Render("Press enter to choose")
		}
	} else {
		input = m.inputs[f].View()
	}
	return styles.RenderField(input, label, errMsg, fieldWidth, m.focus == f)
}

func (m Model) renderSubmit() string {
	label := registration.SubmitLabel
	if m.exec.IsLoading() || m.submitting {
		return styles.DisabledButtonStyle.Render(m.spinner.View() + " " + label)
	}
	if !m.CanSubmit() {
		return styles.DisabledButtonStyle.Render(label)
	}
	if m.focus == fieldSubmit {
		return styles.PrimaryButtonFocusedStyle.Render(label)
	}
	return styles.PrimaryButtonStyle.Render(label)
}

// rootCause strips the executor's name prefix for display.
func rootCause(err error) string {
	var merr *mutation.Error
	if errors.As(err, &merr) {
		return merr.Err.Error()
	}
	return err.Error()
}
