// Package keymap defines keybindings for the progress TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the progress view.
type KeyMap struct {
	// Quit leaves the view. An active run is cancelled first.
	Quit key.Binding

	// Cancel stops the active run and keeps the view open.
	Cancel key.Binding

	// Skips toggles the list of skipped items.
	Skips key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc", "x"),
			key.WithHelp("esc", "cancel run"),
		),
		Skips: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "skips"),
		),
	}
}

// RunningHelp returns the hints shown while a run is active.
func (k *KeyMap) RunningHelp() []key.Binding {
	return []key.Binding{k.Cancel, k.Skips, k.Quit}
}

// DoneHelp returns the hints shown after the run ended.
func (k *KeyMap) DoneHelp() []key.Binding {
	return []key.Binding{k.Skips, k.Quit}
}
