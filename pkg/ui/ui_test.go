package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummaryLine(t *testing.T) {
	assert.Equal(t, "Uploaded to Yandex.Disk: 3 of 5", SummaryLine("Uploaded to Yandex.Disk", 3, 5))
}

func TestBarOnNonTerminalPrintsOnlySummary(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(NewPrinter(&buf))

	bar.Start("Downloading", 3)
	bar.Advance(true)
	bar.Advance(false)
	bar.Advance(true)
	succeeded, total := bar.Finish()

	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 3, total)

	out := buf.String()
	assert.Contains(t, out, "Downloading: 2 of 3")
	assert.NotContains(t, out, "\r")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestBarView(t *testing.T) {
	bar := NewBar(NewPrinter(&bytes.Buffer{}))
	bar.Start("Uploading", 4)
	bar.Advance(true)

	assert.Contains(t, bar.View(), "1/4")
}

func TestCounter(t *testing.T) {
	c := NopProgress()
	c.Start("x", 4)
	c.Advance(true)
	c.Advance(true)
	c.Advance(false)

	succeeded, total := c.Finish()
	assert.Equal(t, 2, succeeded)
	assert.Equal(t, 4, total)
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Info("Run ID", "abc")
	p.Summary("Uploaded", 0, 2)
	p.Summary("Uploaded", 2, 2)

	out := buf.String()
	assert.Contains(t, out, "Run ID:")
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, iconError+" Uploaded: 0 of 2")
	assert.Contains(t, out, iconSuccess+" Uploaded: 2 of 2")
}
