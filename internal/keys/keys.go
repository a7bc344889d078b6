// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// ListKeyMap drives the patients list screen.
type ListKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Search   key.Binding
	Hospital key.Binding
	Order    key.Binding
	Open     key.Binding
	New      key.Binding
	Refresh  key.Binding
	Escape   key.Binding
	Quit     key.Binding
}

// FormKeyMap drives the registration form.
type FormKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Select key.Binding
	Submit key.Binding
	Back   key.Binding
	Quit   key.Binding
}

// DetailKeyMap drives the patient detail screen.
type DetailKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// DefaultListKeyMap returns the default list bindings.
func DefaultListKeyMap() ListKeyMap {
	return ListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]", "pgdown"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("[", "pgup"),
			key.WithHelp("[", "prev page"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Hospital: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hospital"),
		),
		Order: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "order"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		New: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add patient"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DefaultFormKeyMap returns the default form bindings.
func DefaultFormKeyMap() FormKeyMap {
	return FormKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "pick / press"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "submit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// DefaultDetailKeyMap returns the default detail bindings.
func DefaultDetailKeyMap() DetailKeyMap {
	return DetailKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k DetailKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Refresh, k.Back, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k DetailKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// ShortHelp implements help.KeyMap.
func (k ListKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Open, k.Search, k.Hospital, k.New, k.PrevPage, k.NextPage, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k ListKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.Search, k.Hospital, k.Order, k.Refresh},
		{k.Open, k.New, k.Escape, k.Quit},
	}
}

// ShortHelp implements help.KeyMap.
func (k FormKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Select, k.Submit, k.Back}
}

// FullHelp implements help.KeyMap.
func (k FormKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Select}, {k.Submit, k.Back, k.Quit}}
}

// AppKeyMap holds bindings the root model handles before any screen.
type AppKeyMap struct {
	LogOverlay key.Binding
}

// DefaultAppKeyMap returns the default root bindings.
func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		LogOverlay: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "debug log"),
		),
	}
}
