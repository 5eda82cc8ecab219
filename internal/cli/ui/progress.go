package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// PageProgress reports pagination progress on a single, rewritten line
type PageProgress struct {
	writer  io.Writer
	label   string
	noColor bool
	pages   int
	items   int
	total   int
}

// NewPageProgress creates a progress line for label
func NewPageProgress(w io.Writer, label string, noColor bool) *PageProgress {
	return &PageProgress{writer: w, label: label, noColor: noColor}
}

// Page records one fetched page of count items out of total.
func (p *PageProgress) Page(count, total int) {
	p.pages++
	p.items += count
	p.total = total
	p.render()
}

// Done ends the progress line with a summary
func (p *PageProgress) Done(complete bool) {
	p.render()
	fmt.Fprintln(p.writer)

	msg := fmt.Sprintf("%s: fetched %d of %d items in %d pages", p.label, p.items, p.total, p.pages)
	if complete {
		WriteSuccess(p.writer, msg, p.noColor)
		return
	}
	yellow := color.New(color.FgYellow)
	if p.noColor {
		yellow.DisableColor()
	}
	yellow.Fprintf(p.writer, "… %s (more available)\n", msg)
}

func (p *PageProgress) render() {
	cyan := color.New(color.FgCyan)
	if p.noColor {
		cyan.DisableColor()
	}
	percent := 100
	if p.total > 0 {
		percent = min(100, p.items*100/p.total)
	}
	cyan.Fprintf(p.writer, "\r%s: page %d · %d/%d items %3d%%", p.label, p.pages, p.items, p.total, percent)
}
