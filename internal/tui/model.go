// Author: Kaviru Hapuarachchi
// GitHub: https://github.com/kavirubc
// Created: 2026-02-02
// Last Modified: 2026-10-18

// Package tui renders sync progress in an interactive terminal.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Step states carried by PipelineStatusMsg.
const (
	StatusStarted = "started"
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// DefaultIdleTimeout is how long the model waits for pipeline activity.
const DefaultIdleTimeout = 2 * time.Minute

var (
	primaryColor = lipgloss.Color("#ff7300")
	subtleColor  = lipgloss.Color("#626262")
	successColor = lipgloss.Color("#04B575")
	errorColor   = lipgloss.Color("#FF0000")
	dryRunColor  = lipgloss.Color("#D7AF00")

	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			MarginBottom(1)

	dryRunStyle = lipgloss.NewStyle().
			Foreground(dryRunColor).
			Bold(true)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	activeStepStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	doneStepStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStepStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	logStyle = lipgloss.NewStyle().Foreground(subtleColor)
)

// PipelineStatusMsg indicates a status update from a pipeline step.
type PipelineStatusMsg struct {
	Step    string
	Status  string
	Message string
}

// ResultMsg carries the outcome of the run. Output is shown after the
// program exits.
type ResultMsg struct {
	Success bool
	Output  string
}

// Model for the TUI.
type Model struct {
	spinner     spinner.Model
	title       string
	dryRun      bool
	steps       []string
	current     int
	status      map[string]string
	logs        []string
	quitting    bool
	err         error
	result      *ResultMsg
	idleTimeout time.Duration
	statusChan  <-chan PipelineStatusMsg
}

// NewModel creates a model that tracks steps for the given epic.
func NewModel(epic string, dryRun bool, steps []string, statusChan <-chan PipelineStatusMsg) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		spinner:     s,
		title:       "Alert Sync: " + epic,
		dryRun:      dryRun,
		steps:       steps,
		status:      make(map[string]string),
		idleTimeout: DefaultIdleTimeout,
		statusChan:  statusChan,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForActivity(),
	)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case PipelineStatusMsg:
		m.status[msg.Step] = msg.Status
		if msg.Message != "" {
			m.logs = append(m.logs, fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), msg.Step, msg.Message))
		}
		for i, s := range m.steps {
			if s == msg.Step {
				m.current = i
				break
			}
		}
		if msg.Status == StatusError {
			m.err = fmt.Errorf("step %s failed: %s", msg.Step, msg.Message)
		}
		return m, m.waitForActivity()

	case ResultMsg:
		m.result = &msg
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// Result returns the final result, or nil if the user quit first.
func (m Model) Result() *ResultMsg {
	return m.result
}

func (m Model) waitForActivity() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg, ok := <-m.statusChan:
			if !ok {
				return ResultMsg{Success: m.err == nil}
			}
			return msg
		case <-time.After(m.idleTimeout):
			return ResultMsg{
				Success: false,
				Output:  "pipeline timed out waiting for activity",
			}
		}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render(m.title))
	if m.dryRun {
		s.WriteString(" " + dryRunStyle.Render("[DRY RUN]"))
	}
	s.WriteString("\n\n")

	for i, step := range m.steps {
		prefix := "  "
		style := stepStyle

		if i == m.current {
			prefix = m.spinner.View() + " "
			style = activeStepStyle
		}

		switch m.status[step] {
		case StatusSuccess:
			prefix = "✓ "
			style = doneStepStyle
		case StatusError:
			prefix = "✗ "
			style = errorStepStyle
		case StatusSkipped:
			prefix = "○ "
			style = stepStyle.Faint(true)
		}

		s.WriteString(style.Render(fmt.Sprintf("%s%s\n", prefix, step)))
	}

	s.WriteString("\nLogs:\n")
	start := 0
	if len(m.logs) > 5 {
		start = len(m.logs) - 5
	}
	for _, log := range m.logs[start:] {
		s.WriteString(logStyle.Render(log) + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + errorStepStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	s.WriteString(logStyle.Render("\nPress q to quit\n"))

	return s.String()
}
