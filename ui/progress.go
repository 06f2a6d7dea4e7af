// Package ui renders run progress in the terminal. The pipeline reports
// stage transitions from its own goroutine; the program receives them as
// messages and draws a line per stage.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"

	"github.com/tonekit/revoice/internal/pipeline"
)

const ellipsis = "…"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	previewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
)

// Messages fed into the program while the pipeline runs.
type (
	// StageMsg reports a stage transition.
	StageMsg pipeline.Event
	// DoneMsg reports a finished run.
	DoneMsg struct{ Result *pipeline.Result }
	// FailedMsg reports a failed run.
	FailedMsg struct{ Err error }
)

// NewProgram returns a Tea program that renders run progress inline. The
// caller feeds it StageMsg, then exactly one DoneMsg or FailedMsg, through
// Send.
func NewProgram(cfg Config, preview string) *tea.Program {
	return tea.NewProgram(newModel(cfg, preview))
}

type stageEntry struct {
	stage    pipeline.Stage
	detail   string
	done     bool
	started  time.Time
	finished time.Time
}

// Model is the progress view. Exported so the caller can inspect the final
// state after the program exits.
type Model struct {
	cfg     Config
	preview string
	spin    spinner.Model
	stages  []stageEntry

	result  *pipeline.Result
	err     error
	aborted bool
}

func newModel(cfg Config, preview string) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = spinnerStyle
	return Model{cfg: cfg, preview: preview, spin: s}
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.aborted = true
			return m, tea.Quit
		}
		return m, nil

	case StageMsg:
		m.finishCurrent()
		if msg.Stage != pipeline.StageDone {
			m.stages = append(m.stages, stageEntry{
				stage:   msg.Stage,
				detail:  msg.Detail,
				started: time.Now(),
			})
		}
		return m, nil

	case DoneMsg:
		m.finishCurrent()
		m.result = msg.Result
		return m, tea.Quit

	case FailedMsg:
		m.finishCurrent()
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) finishCurrent() {
	if n := len(m.stages); n > 0 && !m.stages[n-1].done {
		m.stages[n-1].done = true
		m.stages[n-1].finished = time.Now()
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("revoice"))
	if m.preview != "" {
		excerpt := truncate.StringWithTail(m.preview, m.cfg.PreviewWidth, ellipsis)
		b.WriteString("  " + previewStyle.Render("“"+excerpt+"”"))
	}
	b.WriteString("\n\n")

	for _, st := range m.stages {
		marker := m.spin.View()
		if st.done {
			marker = doneStyle.Render("✓")
		}
		line := fmt.Sprintf("  %s %s", marker, runewidth.FillRight(st.stage.Title(), 30))
		if st.detail != "" {
			line += detailStyle.Render(st.detail)
		}
		if m.cfg.ShowTimings && st.done {
			line += detailStyle.Render(fmt.Sprintf("  %s", st.finished.Sub(st.started).Round(time.Millisecond)))
		}
		b.WriteString(line + "\n")
	}

	switch {
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("✗ "+m.err.Error()) + "\n")
	case m.result != nil:
		line := fmt.Sprintf("✓ Wrote %s", m.result.OutputPath)
		b.WriteString("\n" + successStyle.Render(line) + "\n")
	case m.aborted:
		b.WriteString("\n" + errorStyle.Render("✗ Canceled") + "\n")
	}

	return b.String()
}

// Aborted reports whether the user quit before the run finished.
func (m Model) Aborted() bool {
	return m.aborted
}

// Result returns the finished run, if one arrived.
func (m Model) Result() *pipeline.Result {
	return m.result
}

// Err returns the run failure, if one arrived.
func (m Model) Err() error {
	return m.err
}
