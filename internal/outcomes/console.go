package outcomes

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Console mirrors records to an interactive output. Write failures are
// ignored.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

var _ Recorder = (*Console)(nil)

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Record(_ context.Context, r Record) error {
	var line string
	if r.Status == StatusSuccess {
		line = successStyle.Render(Line(r))
	} else {
		line = failureStyle.Render(Line(r))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, line+"\n")
	return nil
}
