// Package app contains the root application model.
package app

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/intakehq/intake/internal/config"
	"github.com/intakehq/intake/internal/keys"
	"github.com/intakehq/intake/internal/log"
	"github.com/intakehq/intake/internal/mode"
	"github.com/intakehq/intake/internal/mode/patientdetail"
	"github.com/intakehq/intake/internal/mode/patientlist"
	"github.com/intakehq/intake/internal/mode/registerform"
	"github.com/intakehq/intake/internal/nav"
	"github.com/intakehq/intake/internal/pubsub"
	"github.com/intakehq/intake/internal/query"
	"github.com/intakehq/intake/internal/ui/logoverlay"
	"github.com/intakehq/intake/internal/ui/toaster"
)

const toastDuration = 3 * time.Second

// ConfigChangedMsg reports that the config file was rewritten on disk.
type ConfigChangedMsg struct{}

// Model is the root application state.
type Model struct {
	services mode.Services
	history  *nav.History
	keys     keys.AppKeyMap

	// Active screen and the route it was built for
	route  string
	screen mode.Controller

	width  int
	height int

	// Centralized toaster - owned by app, not individual screens
	toaster toaster.Model

	debugMode   bool
	logOverlay  logoverlay.Model
	logListener *log.Listener

	ctx           context.Context
	cancel        context.CancelFunc
	routes        *pubsub.Broker[string]
	routeListener *pubsub.ContinuousListener[string]
	cacheListener *pubsub.ContinuousListener[query.Entry]

	configChanges <-chan struct{}
	reloadConfig  func() (config.Config, error)
}

// New creates the root model. The global zone manager must be initialized
// before any screen is built. History changes made anywhere, including
// mutation handlers running off the UI goroutine, reach the model as route
// events. debugMode enables the log overlay (Ctrl+X toggle).
func New(services mode.Services, history *nav.History, debugMode bool) Model {
	ctx, cancel := context.WithCancel(context.Background())

	routes := pubsub.NewBroker[string]()
	history.OnChange(func(path string) {
		routes.Publish(pubsub.RouteEvent, path)
	})

	m := Model{
		services:      services,
		history:       history,
		keys:          keys.DefaultAppKeyMap(),
		toaster:       toaster.New(),
		debugMode:     debugMode,
		logOverlay:    logoverlay.New(),
		ctx:           ctx,
		cancel:        cancel,
		routes:        routes,
		routeListener: pubsub.NewContinuousListener[string](ctx, routes),
		cacheListener: pubsub.NewContinuousListener[query.Entry](ctx, services.Patients.Cache()),
	}
	if debugMode {
		m.logListener = log.NewListener(ctx)
	}

	m.route = history.Current()
	m.screen = m.screenFor(m.route)
	return m
}

// WatchConfig re-reads settings with reload whenever changes fires. UI and
// log settings apply immediately; backend settings need a restart.
func (m Model) WatchConfig(changes <-chan struct{}, reload func() (config.Config, error)) Model {
	m.configChanges = changes
	m.reloadConfig = reload
	return m
}

func (m Model) waitForConfigChange() tea.Cmd {
	if m.configChanges == nil {
		return nil
	}
	changes := m.configChanges
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return ConfigChangedMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.screen.Init(),
		m.routeListener.Listen(),
		m.cacheListener.Listen(),
		m.waitForConfigChange(),
	}
	if m.logListener != nil {
		cmds = append(cmds, m.logListener.Listen())
	}
	return tea.Batch(cmds...)
}

// Route returns the path of the active screen.
func (m Model) Route() string {
	return m.route
}

// Screen returns the active screen.
func (m Model) Screen() mode.Controller {
	return m.screen
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.screen = m.screen.SetSize(msg.Width, msg.Height)
		m.logOverlay.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if m.debugMode && key.Matches(msg, m.keys.LogOverlay) && !m.logOverlay.Visible() {
			m.logOverlay.Toggle()
			return m, nil
		}

		// If the debug log overlay is visible it takes precedence for updates
		if m.logOverlay.Visible() {
			var cmd tea.Cmd
			m.logOverlay, cmd = m.logOverlay.Update(msg)
			return m, cmd
		}

	case tea.MouseMsg:
		if m.logOverlay.Visible() {
			var cmd tea.Cmd
			m.logOverlay, cmd = m.logOverlay.Update(msg)
			return m, cmd
		}

	case pubsub.Event[string]:
		switch msg.Type {
		case pubsub.RouteEvent:
			cmd := m.navigate(msg.Payload)
			return m, tea.Batch(cmd, m.routeListener.Listen())
		case pubsub.LogEvent:
			m.logOverlay.Append(msg.Payload)
			if m.logListener == nil {
				return m, nil
			}
			return m, m.logListener.Listen()
		}
		return m, nil

	case pubsub.Event[query.Entry]:
		var cmd tea.Cmd
		m.screen, cmd = m.screen.Update(msg)
		return m, tea.Batch(cmd, m.cacheListener.Listen())

	case registerform.SubmittedMsg:
		// The form may already be gone when the write settles.
		if msg.Err == nil {
			var toast tea.Cmd
			m.toaster, toast = m.toaster.Show("Patient "+msg.Patient.FullName+" registered", toaster.StyleSuccess, toastDuration)
			var cmd tea.Cmd
			m.screen, cmd = m.screen.Update(msg)
			return m, tea.Batch(toast, cmd)
		}

	case ConfigChangedMsg:
		cmd := m.applyConfig()
		return m, tea.Batch(cmd, m.waitForConfigChange())

	case mode.ShowToastMsg:
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show(msg.Message, msg.Style, toastDuration)
		return m, cmd

	case toaster.DismissMsg:
		m.toaster = m.toaster.Update(msg)
		return m, nil

	case logoverlay.CloseMsg:
		m.logOverlay.Hide()
		return m, nil
	}

	// Delegate all other messages to the active screen
	var cmd tea.Cmd
	m.screen, cmd = m.screen.Update(msg)
	return m, cmd
}

// navigate swaps the active screen when path differs from the current route.
func (m *Model) navigate(path string) tea.Cmd {
	if path == m.route {
		return nil
	}

	log.Info(log.CatUI, "Switching screen", "from", m.route, "to", path)
	m.screen.Close()
	m.route = path
	m.screen = m.screenFor(path).SetSize(m.width, m.height)
	return m.screen.Init()
}

// applyConfig reloads settings. Only the patients list is rebuilt so an open
// form keeps its input.
func (m *Model) applyConfig() tea.Cmd {
	if m.reloadConfig == nil || m.services.Config == nil {
		return nil
	}

	next, err := m.reloadConfig()
	if err != nil {
		log.ErrorErr(log.CatConfig, "Config reload failed", err)
		var cmd tea.Cmd
		m.toaster, cmd = m.toaster.Show("Config reload failed: "+err.Error(), toaster.StyleError, toastDuration)
		return cmd
	}

	m.services.Config.UI = next.UI
	m.services.Config.Log.Level = next.Log.Level
	log.SetMinLevel(log.ParseLevel(next.Log.Level))
	log.Info(log.CatConfig, "Config reloaded", "page_size", next.UI.PageSize, "ordering", next.UI.Ordering)

	var cmds []tea.Cmd
	if _, ok := m.screen.(patientlist.Model); ok {
		m.screen.Close()
		m.screen = patientlist.New(m.services).SetSize(m.width, m.height)
		cmds = append(cmds, m.screen.Init())
	}

	var toast tea.Cmd
	m.toaster, toast = m.toaster.Show("Configuration reloaded", toaster.StyleInfo, toastDuration)
	return tea.Batch(append(cmds, toast)...)
}

func (m Model) screenFor(path string) mode.Controller {
	switch path {
	case nav.RegisterPatient():
		return registerform.New(m.services)
	case nav.Patients():
		return patientlist.New(m.services)
	}
	if id, ok := nav.ParsePatient(path); ok {
		return patientdetail.New(m.services, id)
	}
	log.Warn(log.CatUI, "Unknown route, showing patients", "path", path)
	return patientlist.New(m.services)
}

// View implements tea.Model.
func (m Model) View() string {
	view := m.screen.View()

	// Overlay toaster on top of the active screen
	if m.toaster.Visible() {
		view = m.toaster.Overlay(view, m.width, m.height)
	}

	// Overlay log viewer on top (only in debug mode when visible)
	if m.debugMode && m.logOverlay.Visible() {
		view = m.logOverlay.Overlay(view)
	}

	return zone.Scan(view)
}

// Close releases resources held by the application.
func (m *Model) Close() error {
	m.screen.Close()
	m.history.OnChange(nil)
	m.cancel()
	m.routes.Close()
	return nil
}
