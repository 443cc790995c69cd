package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("160"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

type taskDoneMsg struct {
	details []string
	err     error
}

// taskModel runs one database task to completion and renders its outcome.
// Seeding touches live account data, so the view always names the task
// being applied and keeps the abort hint visible while it runs.
type taskModel struct {
	task    string
	run     func(context.Context) ([]string, error)
	started time.Time
	details []string
	err     error
	done    bool
}

func (m taskModel) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		details, err := m.run(ctx)
		return taskDoneMsg{details: details, err: err}
	}
}

func (m taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case taskDoneMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m taskModel) View() string {
	out := titleStyle.Render(m.task) + "\n"
	if !m.done {
		out += "applying against the accounts database...\n"
		out += dimStyle.Render("ctrl+c to abort") + "\n"
		return out
	}

	elapsed := time.Since(m.started).Round(time.Millisecond)
	if m.err != nil {
		out += fmt.Sprintf("%s after %s: %v\n", failStyle.Render("FAILED"), elapsed, m.err)
	} else {
		out += fmt.Sprintf("%s in %s\n", okStyle.Render("done"), elapsed)
	}
	for _, d := range m.details {
		out += "  " + d + "\n"
	}
	return out
}

// Run executes task interactively and reports its detail lines and error.
func Run(task string, fn func(context.Context) ([]string, error)) ([]string, error) {
	m := taskModel{task: task, run: fn, started: time.Now()}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	res := final.(taskModel)
	return res.details, res.err
}
