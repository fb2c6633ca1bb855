package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"golang.org/x/term"
)

// Progress receives per-item outcomes of a phase
type Progress interface {
	// Start begins a phase of total items
	Start(label string, total int)
	// Advance records one finished item
	Advance(ok bool)
	// Finish ends the phase and reports how many items succeeded
	Finish() (succeeded, total int)
}

// Bar renders a progress bar per phase and prints the phase summary when
// it finishes. On a non-terminal writer only the summary is printed.
type Bar struct {
	printer     *Printer
	model       progress.Model
	interactive bool

	mu        sync.Mutex
	label     string
	total     int
	done      int
	succeeded int
}

// NewBar creates a progress reporter printing through p
func NewBar(p *Printer) *Bar {
	return &Bar{
		printer: p,
		model: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(40),
		),
		interactive: isTerminal(p.Writer()),
	}
}

func (b *Bar) Start(label string, total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.label = label
	b.total = total
	b.done = 0
	b.succeeded = 0
	b.render()
}

func (b *Bar) Advance(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.done++
	if ok {
		b.succeeded++
	}
	b.render()
}

func (b *Bar) Finish() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.interactive {
		fmt.Fprintln(b.printer.Writer())
	}
	b.printer.Summary(b.label, b.succeeded, b.total)
	return b.succeeded, b.total
}

// View returns the current bar line
func (b *Bar) View() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view()
}

func (b *Bar) view() string {
	percent := 1.0
	if b.total > 0 {
		percent = float64(b.done) / float64(b.total)
	}
	return fmt.Sprintf("%s %s %d/%d", phaseStyle.Render(b.label), b.model.ViewAs(percent), b.done, b.total)
}

func (b *Bar) render() {
	if !b.interactive {
		return
	}
	fmt.Fprintf(b.printer.Writer(), "\r%s", b.view())
}

func isTerminal(w io.Writer) bool {
	type fder interface{ Fd() uintptr }
	f, ok := w.(fder)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Counter tracks outcomes without rendering anything
type Counter struct {
	mu        sync.Mutex
	total     int
	succeeded int
}

// NopProgress returns a reporter that only counts
func NopProgress() *Counter {
	return &Counter{}
}

func (c *Counter) Start(label string, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = total
	c.succeeded = 0
}

func (c *Counter) Advance(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.succeeded++
	}
}

func (c *Counter) Finish() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.succeeded, c.total
}
