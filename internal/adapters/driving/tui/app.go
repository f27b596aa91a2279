package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/vidmirror/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/vidmirror/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/vidmirror/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/vidmirror/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

// DefaultPollInterval is how often the live counters are refreshed.
const DefaultPollInterval = 250 * time.Millisecond

// maxSkipLines bounds the skip list rendered below the counters.
const maxSkipLines = 10

// App runs one mirror pass and renders its progress.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	opts   driving.MirrorOptions
	ctx    context.Context
	cancel context.CancelFunc

	styles  *styles.Styles
	keymap  *keymap.KeyMap
	bar     *status.Bar
	spinner spinner.Model

	pollInterval time.Duration

	// live state
	status driving.MirrorStatus

	// final state
	report *domain.RunReport
	err    error
	done   bool

	quitting  bool
	showSkips bool
	width     int
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates the progress view for a run with the given options.
func NewApp(ports *Ports, opts driving.MirrorOptions) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(s.Spinner),
	)

	return &App{
		ports:        ports,
		opts:         opts,
		ctx:          context.Background(),
		styles:       s,
		keymap:       km,
		bar:          status.NewBar(s, km),
		spinner:      sp,
		pollInterval: DefaultPollInterval,
		width:        80,
	}, nil
}

// WithContext sets the parent context of the run.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model. It starts the run, the spinner and the
// status poll.
func (a *App) Init() tea.Cmd {
	runCtx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel

	return tea.Batch(
		tea.SetWindowTitle("vidmirror"),
		a.spinner.Tick,
		a.startRun(runCtx),
		a.poll(),
	)
}

func (a *App) startRun(ctx context.Context) tea.Cmd {
	mirror, opts := a.ports.Mirror, a.opts
	return func() tea.Msg {
		report, err := mirror.Run(ctx, opts)
		return messages.RunFinished{Report: report, Err: err}
	}
}

func (a *App) poll() tea.Cmd {
	mirror := a.ports.Mirror
	return tea.Tick(a.pollInterval, func(time.Time) tea.Msg {
		return messages.StatusPolled{Status: mirror.Status()}
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.bar.SetWidth(msg.Width)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		if a.done {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case messages.StatusPolled:
		if a.done {
			return a, nil
		}
		a.status = msg.Status
		if msg.Status.CurrentFolder != "" && a.bar.State() == status.StateRunning {
			a.bar.SetMessage("Folder: " + msg.Status.CurrentFolder)
		}
		return a, a.poll()

	case messages.RunFinished:
		a.finish(msg)
		if a.quitting {
			return a, tea.Quit
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keymap.Quit):
		if a.done {
			return a, tea.Quit
		}
		// Quit once the run has returned.
		a.quitting = true
		a.cancelRun()
		return a, nil

	case key.Matches(msg, a.keymap.Cancel):
		if !a.done {
			a.cancelRun()
		}
		return a, nil

	case key.Matches(msg, a.keymap.Skips):
		a.showSkips = !a.showSkips
		return a, nil
	}
	return a, nil
}

func (a *App) cancelRun() {
	if a.cancel != nil {
		a.cancel()
	}
	a.bar.SetState(status.StateCancelling)
	a.bar.SetMessage("")
}

func (a *App) finish(msg messages.RunFinished) {
	a.done = true
	a.report = msg.Report
	a.err = msg.Err
	if a.cancel != nil {
		a.cancel()
	}

	switch {
	case msg.Err == nil:
		a.bar.SetState(status.StateSucceeded)
		a.bar.SetMessage("")
	case errors.Is(msg.Err, context.Canceled):
		a.bar.SetState(status.StateFailed)
		a.bar.SetMessage("cancelled")
	default:
		a.bar.SetState(status.StateFailed)
		a.bar.SetMessage(msg.Err.Error())
	}
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("vidmirror"))
	b.WriteString("  ")
	b.WriteString(a.headline())
	b.WriteString("\n\n")

	b.WriteString(a.styles.Panel.Render(a.renderCounters()))
	b.WriteString("\n")

	if a.showSkips {
		b.WriteString(a.renderSkips())
		b.WriteString("\n")
	}

	b.WriteString(a.bar.View())
	return b.String()
}

func (a *App) headline() string {
	if !a.done {
		return a.spinner.View() + " " + a.styles.Muted.Render("mirroring")
	}
	if a.report == nil {
		return a.styles.Error.Render("run did not start")
	}
	id := a.report.ID
	if len(id) > 8 {
		id = id[:8]
	}
	line := fmt.Sprintf("run %s %s in %s", id, a.report.Status, a.report.Duration().Round(time.Millisecond))
	if a.err != nil {
		return a.styles.Error.Render(line)
	}
	return a.styles.Success.Render(line)
}

func (a *App) counters() (domain.RunCounters, int) {
	if a.report != nil {
		return a.report.RunCounters, len(a.report.Skips)
	}
	return a.status.Counters, a.status.Skipped
}

func (a *App) renderCounters() string {
	c, skipped := a.counters()

	rows := []struct {
		label string
		value int
		style lipgloss.Style
	}{
		{"Folders visited", c.FoldersVisited, a.styles.Value},
		{"Folders created", c.FoldersCreated, a.styles.Success},
		{"Videos seen", c.VideosSeen, a.styles.Value},
		{"Matched", c.VideosMatched, a.styles.Success},
		{"Already mapped", c.VideosAlreadyMapped, a.styles.Muted},
		{"Created", c.VideosCreated, a.styles.Success},
		{"Unmatched", c.VideosUnmatched, a.styles.Warning},
		{"Skipped", skipped, a.styles.Warning},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, a.styles.Label.Render(r.label)+r.style.Render(fmt.Sprintf("%d", r.value)))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderSkips() string {
	if a.report == nil {
		return a.styles.Muted.Render("Skips are listed when the run ends.")
	}
	if len(a.report.Skips) == 0 {
		return a.styles.Muted.Render("No skips.")
	}

	var b strings.Builder
	for i, s := range a.report.Skips {
		if i == maxSkipLines {
			fmt.Fprintf(&b, "... and %d more\n", len(a.report.Skips)-maxSkipLines)
			break
		}
		fmt.Fprintf(&b, "%s %s: %s\n", a.styles.Warning.Render(string(s.Kind)), s.Name, s.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Report returns the final report, or nil while the run is active.
func (a *App) Report() *domain.RunReport {
	return a.report
}

// Err returns the error the run ended with.
func (a *App) Err() error {
	return a.err
}

// Done reports whether the run has returned.
func (a *App) Done() bool {
	return a.done
}
