// Package notify emits operator-facing guardian notifications.
//
// Notifications are fire-and-forget: one color-coded line per completed
// unit of work, no retry, no buffering, no backpressure. Nothing in the
// system parses them back.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Notifier emits a human-readable success or failure line.
type Notifier interface {
	Emit(message string, isErr bool)
}

// Console writes color-coded GUARDIAN lines to a terminal or log sink.
// Color degrades automatically on non-TTY writers and honors NO_COLOR.
type Console struct {
	mu       sync.Mutex
	out      io.Writer
	okBadge  string
	errBadge string
}

// NewConsole creates a console notifier writing to out.
func NewConsole(out io.Writer) *Console {
	renderer := lipgloss.NewRenderer(out, termenv.WithColorCache(true))
	ok := renderer.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	bad := renderer.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)

	return &Console{
		out:      out,
		okBadge:  ok.Render("GUARDIAN"),
		errBadge: bad.Render("GUARDIAN"),
	}
}

// Emit writes one notification line. Concurrent callers are serialized so
// lines never interleave.
func (c *Console) Emit(message string, isErr bool) {
	badge := c.okBadge
	if isErr {
		badge = c.errBadge
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s │ %s\n", badge, message)
}

// Func adapts a plain function to the Notifier interface, mainly for
// tests and fan-out.
type Func func(message string, isErr bool)

// Emit implements Notifier.
func (f Func) Emit(message string, isErr bool) {
	f(message, isErr)
}

// Multi fans one notification out to several sinks in order.
func Multi(sinks ...Notifier) Notifier {
	return Func(func(message string, isErr bool) {
		for _, s := range sinks {
			s.Emit(message, isErr)
		}
	})
}
