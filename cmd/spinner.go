package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/example/classpick/internal/login"
	"github.com/example/classpick/internal/registration"
)

type loginLabelMsg string

type loginDoneMsg struct {
	session registration.Session
	err     error
}

type loginSpinnerModel struct {
	spinner spinner.Model
	label   string
	login   tea.Cmd
	session registration.Session
	err     error
	done    bool
}

func newLoginSpinnerModel(label string, login tea.Cmd) loginSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)

	return loginSpinnerModel{
		spinner: s,
		label:   label,
		login:   login,
	}
}

func (m loginSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.login)
}

func (m loginSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case loginLabelMsg:
		m.label = string(msg)
		return m, nil
	case loginDoneMsg:
		m.done = true
		m.session = msg.session
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m loginSpinnerModel) View() string {
	if m.done {
		return ""
	}

	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

// spinnerReporter relabels the running spinner and prints failures above it.
type spinnerReporter struct {
	p *tea.Program
}

func (r spinnerReporter) LoginAttempt(n int, username string) {
	r.p.Send(loginLabelMsg(attemptLabel(n, username)))
}

func (r spinnerReporter) LoginFailed(_ int, f login.Failure, err error) {
	r.p.Send(tea.Println(failStyle.Render(failureLine(f, err)))())
}

func (r spinnerReporter) LoginSucceeded(string) {}

type loginFunc func(ctx context.Context, rep login.Reporter) (registration.Session, error)

func runLoginSpinner(ctx context.Context, output io.Writer, fn loginFunc) (registration.Session, error) {
	rep := &spinnerReporter{}
	loginCmd := func() tea.Msg {
		s, err := fn(ctx, rep)
		return loginDoneMsg{session: s, err: err}
	}

	p := tea.NewProgram(
		newLoginSpinnerModel("Trying to log in...", loginCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)
	rep.p = p

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	result, ok := finalModel.(loginSpinnerModel)
	if !ok {
		return nil, fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.session, result.err
}

// lineReporter is used when stdout is not a terminal.
type lineReporter struct {
	w io.Writer
}

func (r lineReporter) LoginAttempt(n int, username string) {
	fmt.Fprintln(r.w, attemptLabel(n, username))
}

func (r lineReporter) LoginFailed(_ int, f login.Failure, err error) {
	fmt.Fprintln(r.w, failureLine(f, err))
}

func (r lineReporter) LoginSucceeded(string) {}

func attemptLabel(n int, username string) string {
	if n <= 1 {
		return fmt.Sprintf("Trying to log in as %s...", username)
	}
	return fmt.Sprintf("Trying to log in as %s (attempt %d)...", username, n)
}

func failureLine(f login.Failure, err error) string {
	if f == login.InvalidCredentials {
		return "Invalid credentials, trying again"
	}
	return fmt.Sprintf("Connection problem: %v", err)
}
