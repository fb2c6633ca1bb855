package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// errNotInteractive is returned when a value is missing and there is no
// terminal to ask for it
var errNotInteractive = errors.New("stdin is not a terminal")

// prompter asks for missing values on the terminal
type prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	readSecret  func() (string, error)
}

func newTerminalPrompter() *prompter {
	fd := int(os.Stdin.Fd())
	return &prompter{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stderr,
		interactive: term.IsTerminal(fd),
		readSecret: func() (string, error) {
			b, err := term.ReadPassword(fd)
			if err != nil {
				return "", err
			}
			return string(b), nil
		},
	}
}

// Line reads one trimmed line
func (p *prompter) Line(label string) (string, error) {
	if !p.interactive {
		return "", fmt.Errorf("%s: %w", label, errNotInteractive)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	input, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && input != "") {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(input), nil
}

// Secret reads one line without echo
func (p *prompter) Secret(label string) (string, error) {
	if !p.interactive {
		return "", fmt.Errorf("%s: %w", label, errNotInteractive)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	value, err := p.readSecret()
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", label, err)
	}
	return strings.TrimSpace(value), nil
}

// Count reads a positive number
func (p *prompter) Count(label string) (int, error) {
	input, err := p.Line(label)
	if err != nil {
		return 0, err
	}
	return parseCount(input)
}

// Confirm asks a yes/no question, answering no on empty input
func (p *prompter) Confirm(label string) bool {
	input, err := p.Line(label + " (y/N)")
	if err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(input), "y")
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("photo count must be a number, got %q", s)
	}
	if n <= 0 {
		return 0, fmt.Errorf("photo count must be positive, got %d", n)
	}
	return n, nil
}
