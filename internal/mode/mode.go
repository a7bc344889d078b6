// Package mode defines the screen controller interface and shared services.
package mode

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/intakehq/intake/internal/config"
	"github.com/intakehq/intake/internal/mode/shared"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/patients"
	"github.com/intakehq/intake/internal/ui/toaster"
)

// Controller defines the interface every screen implements.
type Controller interface {
	// Init returns initial commands for the screen.
	Init() tea.Cmd

	// Update handles messages and returns updated model and commands.
	Update(msg tea.Msg) (Controller, tea.Cmd)

	// View renders the screen.
	View() string

	// SetSize handles terminal resize events.
	SetSize(width, height int) Controller

	// Close is called when the screen is left. Work still in flight must
	// not touch the screen afterwards.
	Close()
}

// Services contains shared dependencies injected into screens.
type Services struct {
	Patients  *patients.Service
	Navigator nav.Navigator
	Config    *config.Config
	Clock     shared.Clock
}

// ShowToastMsg asks the app to show a notification.
type ShowToastMsg struct {
	Message string
	Style   toaster.Style
}

// ShowToast returns a command that emits ShowToastMsg.
func ShowToast(message string, style toaster.Style) tea.Cmd {
	return func() tea.Msg { return ShowToastMsg{Message: message, Style: style} }
}
