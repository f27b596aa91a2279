package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/vidmirror/internal/adapters/driving/tui"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// errNotTerminal is returned when --tui is used without a terminal.
var errNotTerminal = errors.New("--tui requires an interactive terminal")

// isTerminal reports whether stdout is a terminal. Replaced in tests.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// runMirrorTUI runs the mirror behind the live progress view.
func runMirrorTUI(cmd *cobra.Command, opts driving.MirrorOptions) error {
	if !isTerminal() {
		return errNotTerminal
	}

	app, err := tui.NewApp(&tui.Ports{Mirror: mirrorService}, opts)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	// Log lines would corrupt the alt screen.
	logger.SetOutput(io.Discard)
	defer logger.SetOutput(os.Stderr)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}

	if report := app.Report(); report != nil {
		printReport(cmd, report)
	}
	if err := app.Err(); err != nil {
		return fmt.Errorf("mirror failed: %w", err)
	}
	return nil
}
