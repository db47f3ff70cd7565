package output

import (
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const clearLine = "\r\033[2K"

// Console is the single writer shared by log sinks and the progress line.
// Log output written while a status line is shown clears the line first
// and redraws it afterwards, so the two never interleave mid-line.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	tty    bool
	width  int
	status string
}

// NewConsole wraps w. Status lines are only drawn when w is a terminal.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = os.Stdout
	}
	c := &Console{w: w, width: 80}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		c.tty = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			c.width = width
		}
	}
	return c
}

// Write writes p above the status line
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != "" {
		io.WriteString(c.w, clearLine)
	}
	n, err := c.w.Write(p)
	if c.status != "" {
		io.WriteString(c.w, c.status)
	}
	return n, err
}

// SetStatus replaces the status line
func (c *Console) SetStatus(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.tty {
		return
	}
	c.status = line
	io.WriteString(c.w, clearLine+line)
}

// ClearStatus removes the status line
func (c *Console) ClearStatus() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != "" {
		io.WriteString(c.w, clearLine)
	}
	c.status = ""
}

// IsTerminal reports whether status lines are drawn
func (c *Console) IsTerminal() bool {
	return c.tty
}

// Width returns the terminal width, 80 when unknown
func (c *Console) Width() int {
	return c.width
}
