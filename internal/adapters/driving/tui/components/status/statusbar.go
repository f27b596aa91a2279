// Package status provides the status bar of the progress TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/vidmirror/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vidmirror/internal/adapters/driving/tui/styles"
)

// State is the run state shown on the left of the bar.
type State string

const (
	StateRunning    State = "running"
	StateCancelling State = "cancelling"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// Bar displays the run state and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	width   int
}

// NewBar creates a status bar. Nil arguments take their defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		state:  StateRunning,
		width:  80,
	}
}

// View renders the status bar.
func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderRight()

	padding := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return b.styles.StatusBar.Width(b.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateCancelling:
		return b.styles.Warning.Render("Cancelling...")
	case StateSucceeded:
		return b.styles.Success.Render("Done")
	case StateFailed:
		if b.message != "" {
			return b.styles.Error.Render("Failed: " + b.message)
		}
		return b.styles.Error.Render("Failed")
	default:
		if b.message != "" {
			return b.styles.Muted.Render(b.message)
		}
		return b.styles.Muted.Render("Mirroring...")
	}
}

func (b *Bar) renderRight() string {
	bindings := b.Bindings()
	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (b *Bar) SetState(state State) {
	b.state = state
}

// State returns the current state.
func (b *Bar) State() State {
	return b.state
}

// SetMessage sets the text shown next to the state.
func (b *Bar) SetMessage(message string) {
	b.message = message
}

// Message returns the current message.
func (b *Bar) Message() string {
	return b.message
}

// SetWidth sets the bar width.
func (b *Bar) SetWidth(width int) {
	b.width = width
}

// Bindings returns the hints for the current state.
func (b *Bar) Bindings() []key.Binding {
	if b.state == StateSucceeded || b.state == StateFailed {
		return b.keymap.DoneHelp()
	}
	return b.keymap.RunningHelp()
}
