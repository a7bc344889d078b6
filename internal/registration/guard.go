package registration

import (
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/nav"
)

// Text of the leave-without-saving confirmation.
const (
	ConfirmTitle   = "Cancel new addition?"
	ConfirmMessage = "Are you sure you want to cancel adding a new patient? All information you've entered will be lost!"
	ConfirmButton  = "Yes, cancel new addition"
	PageTitle      = "Add new patient"
	SubmitLabel    = "Add new patient"
)

// Guard decides whether leaving the form needs confirmation. Once the form
// has been edited it stays dirty for the life of the guard.
type Guard struct {
	navigator  nav.Navigator
	initial    Form
	dirty      bool
	confirming bool
}

// NewGuard watches a form that started at initial.
func NewGuard(navigator nav.Navigator, initial Form) *Guard {
	return &Guard{navigator: navigator, initial: initial}
}

// Observe records the current form values.
func (g *Guard) Observe(current Form) {
	if !g.dirty && !current.Equal(g.initial) {
		g.dirty = true
		log.Debug(log.CatForm, "form dirty")
	}
}

// Dirty reports whether the form has been edited.
func (g *Guard) Dirty() bool { return g.dirty }

// Confirming reports whether the confirmation is showing.
func (g *Guard) Confirming() bool { return g.confirming }

// RequestExit leaves straight away for a clean form. For a dirty one it
// raises the confirmation and returns true.
func (g *Guard) RequestExit() bool {
	if g.dirty {
		g.confirming = true
		return true
	}
	g.navigator.Push(nav.Patients())
	return false
}

// ConfirmExit leaves and discards the form.
func (g *Guard) ConfirmExit() {
	g.confirming = false
	g.navigator.Push(nav.Patients())
}

// DismissExit closes the confirmation and stays on the form.
func (g *Guard) DismissExit() {
	g.confirming = false
}
