package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Printer writes styled lines to a terminal or any other writer
type Printer struct {
	out io.Writer
}

// NewPrinter creates a printer writing to out
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// Stdout is the printer used by the command line
var Stdout = NewPrinter(os.Stdout)

// Writer returns the destination of the printer
func (p *Printer) Writer() io.Writer {
	return p.out
}

// Title prints a bold heading
func (p *Printer) Title(text string) {
	fmt.Fprintln(p.out, titleStyle.Render(text))
}

// Info prints a label/value pair
func (p *Printer) Info(label, value string) {
	fmt.Fprintf(p.out, "%s %s\n", labelStyle.Render(label+":"), valueStyle.Render(value))
}

// Success prints a message prefixed with a check mark
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.out, successStyle.Render(iconSuccess+" "+fmt.Sprintf(format, args...)))
}

// Warning prints a message prefixed with a warning sign
func (p *Printer) Warning(format string, args ...interface{}) {
	fmt.Fprintln(p.out, warningStyle.Render(iconWarning+" "+fmt.Sprintf(format, args...)))
}

// Error prints a message prefixed with a cross
func (p *Printer) Error(format string, args ...interface{}) {
	fmt.Fprintln(p.out, errorStyle.Render(iconError+" "+fmt.Sprintf(format, args...)))
}

// Summary prints the "N of M" result line of a phase, styled by outcome
func (p *Printer) Summary(label string, succeeded, total int) {
	line := SummaryLine(label, succeeded, total)
	switch {
	case succeeded == total:
		p.Success("%s", line)
	case succeeded == 0:
		p.Error("%s", line)
	default:
		p.Warning("%s", line)
	}
}

// Box prints lines inside a rounded border
func (p *Printer) Box(lines ...string) {
	fmt.Fprintln(p.out, boxStyle.Render(strings.Join(lines, "\n")))
}

// SummaryLine formats the "N of M" result of a phase
func SummaryLine(label string, succeeded, total int) string {
	return fmt.Sprintf("%s: %d of %d", label, succeeded, total)
}
