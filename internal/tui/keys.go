package tui

import "github.com/charmbracelet/bubbles/key"

// gaugeKeyMap defines key bindings while the gauge is showing
type gaugeKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k gaugeKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k gaugeKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

// formKeyMap defines key bindings on the address form
type formKeyMap struct {
	Submit key.Binding
	Accept key.Binding
	Next   key.Binding
	Rescan key.Binding
	Quit   key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Accept, k.Next, k.Rescan, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Accept, k.Next},
		{k.Rescan, k.Quit},
	}
}

func newGaugeKeyMap() gaugeKeyMap {
	return gaugeKeyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// The form's text input consumes printable keys, so quitting and rescanning
// use control keys there.
func newFormKeyMap() formKeyMap {
	return formKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
		Accept: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "use suggestion"),
		),
		Next: key.NewBinding(
			key.WithKeys("ctrl+n", "ctrl+p"),
			key.WithHelp("ctrl+n/p", "cycle suggestions"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "rescan"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "quit"),
		),
	}
}
