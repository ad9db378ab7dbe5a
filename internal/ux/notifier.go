package ux

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Notifier prints user-facing notices to a terminal. It implements
// httpclient.Notifier and is safe for concurrent use.
type Notifier struct {
	mu      sync.Mutex
	w       io.Writer
	quiet   bool
	success lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

// NewNotifier writes to w, stderr when nil. Quiet suppresses everything but errors.
func NewNotifier(w io.Writer, quiet bool) *Notifier {
	if w == nil {
		w = os.Stderr
	}
	r := lipgloss.NewRenderer(w)
	return &Notifier{
		w:       w,
		quiet:   quiet,
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("46")),
		info:    r.NewStyle().Foreground(lipgloss.Color("86")),
		warning: r.NewStyle().Bold(true).Foreground(lipgloss.Color("226")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

func (n *Notifier) Success(msg string) { n.print(n.success, "✓", msg, false) }
func (n *Notifier) Info(msg string)    { n.print(n.info, "ℹ", msg, false) }
func (n *Notifier) Warning(msg string) { n.print(n.warning, "⚠", msg, false) }
func (n *Notifier) Error(msg string)   { n.print(n.err, "✗", msg, true) }

func (n *Notifier) print(style lipgloss.Style, icon, msg string, always bool) {
	if n.quiet && !always {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "%s %s\n", style.Render(icon), msg)
}
