package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/stippler/pkg/pipeline"
	"github.com/matzehuels/stippler/pkg/relax"
)

// Monitor styles
var (
	barFullStyle  = lipgloss.NewStyle().Foreground(colorCyan)
	barEmptyStyle = lipgloss.NewStyle().Foreground(colorDim)
	monitorDim    = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	barWidth       = 40
	historyLength  = 6
	monitorRefresh = 100 * time.Millisecond
)

// =============================================================================
// PassMonitorModel - live view of a relaxation run
// =============================================================================

// passMsg carries the statistics of one committed pass.
type passMsg relax.Stats

// doneMsg ends the monitor when the pipeline returns.
type doneMsg struct{ err error }

// tickMsg refreshes the elapsed time while no pass completes.
type tickMsg time.Time

// PassMonitorModel is the bubbletea model for the --tui pass monitor.
type PassMonitorModel struct {
	Name    string
	Points  int
	Passes  int
	Last    relax.Stats
	History []relax.Stats // most recent last
	Started time.Time
	Now     time.Time
	Done    bool
	Aborted bool
	Err     error

	cancel context.CancelFunc
}

// NewPassMonitorModel creates a monitor for a run over name. cancel is
// invoked when the user quits early.
func NewPassMonitorModel(name string, points, passes int, cancel context.CancelFunc) PassMonitorModel {
	now := time.Now()
	return PassMonitorModel{
		Name:    name,
		Points:  points,
		Passes:  passes,
		Started: now,
		Now:     now,
		cancel:  cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(monitorRefresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m PassMonitorModel) Init() tea.Cmd {
	return tick()
}

func (m PassMonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case passMsg:
		s := relax.Stats(msg)
		m.Last = s
		m.History = append(m.History, s)
		if len(m.History) > historyLength {
			m.History = m.History[len(m.History)-historyLength:]
		}
	case tickMsg:
		m.Now = time.Time(msg)
		if !m.Done {
			return m, tick()
		}
	case doneMsg:
		m.Done = true
		m.Err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m PassMonitorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Relaxing " + m.Name))
	b.WriteString(monitorDim.Render(fmt.Sprintf("  %d points", m.Points)))
	b.WriteString("\n\n")

	frac := 0.0
	if m.Passes > 0 {
		frac = float64(m.Last.Pass) / float64(m.Passes)
	}
	b.WriteString(progressBar(barWidth, frac))
	b.WriteString(fmt.Sprintf("  %s/%d  %3.0f%%",
		StyleNumber.Render(fmt.Sprint(m.Last.Pass)), m.Passes, frac*100))
	elapsed := m.Now.Sub(m.Started).Round(100 * time.Millisecond)
	b.WriteString(monitorDim.Render(fmt.Sprintf("  %s", elapsed)))
	b.WriteString("\n\n")

	if len(m.History) > 0 {
		rows := make([][]string, 0, len(m.History))
		for _, s := range m.History {
			rows = append(rows, []string{
				fmt.Sprint(s.Pass),
				fmt.Sprintf("%.4f", s.MaxShift),
				fmt.Sprintf("%.4f", s.MeanShift),
				fmt.Sprint(s.Empty),
			})
		}
		headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
			Headers("Pass", "Max shift", "Mean shift", "Empty").
			Rows(rows...).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == -1 {
					return headerStyle
				}
				if row == len(rows)-1 {
					return lipgloss.NewStyle().Foreground(colorWhite)
				}
				return lipgloss.NewStyle().Foreground(colorGray)
			})
		b.WriteString(t.Render())
		b.WriteString("\n\n")
	}

	switch {
	case m.Aborted:
		b.WriteString(StyleWarning.Render("Cancelled"))
	case m.Done && m.Err != nil:
		b.WriteString(styleIconError.Render(iconError + " " + m.Err.Error()))
	case m.Done:
		b.WriteString(StyleSuccess.Render(iconSuccess + " Done"))
	default:
		b.WriteString(monitorDim.Render("q quit"))
	}
	b.WriteString("\n")
	return b.String()
}

// progressBar renders frac in [0, 1] as a bar of width cells.
func progressBar(width int, frac float64) string {
	frac = max(0, min(1, frac))
	full := int(frac * float64(width))
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", width-full))
}

// relaxWithMonitor runs the pipeline while a PassMonitorModel tracks its
// passes. Quitting the monitor cancels the run.
func relaxWithMonitor(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewPassMonitorModel(filepath.Base(opts.ImagePath), opts.Points, opts.Passes, cancel)
	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))

	// The monitor owns the terminal; keep log lines from tearing it.
	opts.Logger = newLogger(os.Stderr, log.WarnLevel)
	opts.OnPass = func(s relax.Stats) { p.Send(passMsg(s)) }

	type outcome struct {
		result *pipeline.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := runner.Execute(ctx, opts)
		p.Send(doneMsg{err: err})
		done <- outcome{result, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return nil, err
	}
	out := <-done
	return out.result, out.err
}
