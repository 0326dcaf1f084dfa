// Package summary prints the per-configuration results of a build.
package summary

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/kiln/internal/ui/output"
	"go.trai.ch/kiln/internal/ui/style"
)

// Status is the final state of one row.
type Status uint8

const (
	// StatusBuilt marks a builder that ran successfully.
	StatusBuilt Status = iota
	// StatusSkipped marks a builder that had nothing to do.
	StatusSkipped
	// StatusCleaned marks a successful clean.
	StatusCleaned
	// StatusFailed marks a builder that returned an error.
	StatusFailed
	// StatusCanceled marks a builder interrupted by cancellation.
	StatusCanceled
)

// Row is one builder run of one configuration.
type Row struct {
	Name    string
	Builder string
	Trigger string
	Pass    int
	Status  Status
	Elapsed time.Duration
	Err     error
}

// Printer writes rows with colors matching the terminal profile.
type Printer struct {
	w io.Writer

	name    lipgloss.Style
	faint   lipgloss.Style
	done    lipgloss.Style
	failed  lipgloss.Style
	warning lipgloss.Style
}

// New creates a Printer writing to w.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w, termenv.WithProfile(output.ColorProfile()))
	return &Printer{
		w:       w,
		name:    r.NewStyle().Bold(true),
		faint:   r.NewStyle().Foreground(style.Ash).Faint(true),
		done:    r.NewStyle().Foreground(style.Green),
		failed:  r.NewStyle().Foreground(style.Red),
		warning: r.NewStyle().Foreground(style.Yellow),
	}
}

// Print writes one line per row, skipped rows last, and an optional footer.
// Rows of later passes are marked with their pass number.
func (p *Printer) Print(rows []Row, footer string) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r.Name))
	}

	var b strings.Builder
	for _, r := range rows {
		if r.Status != StatusSkipped {
			p.line(&b, r, width)
		}
	}
	for _, r := range rows {
		if r.Status == StatusSkipped {
			p.line(&b, r, width)
		}
	}
	if footer != "" {
		b.WriteString(p.name.Render(footer))
		b.WriteByte('\n')
	}
	_, _ = io.WriteString(p.w, b.String())
}

func (p *Printer) line(b *strings.Builder, r Row, width int) {
	var icon string
	switch r.Status {
	case StatusBuilt, StatusCleaned:
		icon = p.done.Render(style.Check)
	case StatusFailed:
		icon = p.failed.Render(style.Cross)
	case StatusCanceled:
		icon = p.warning.Render(style.Warning)
	case StatusSkipped:
		icon = p.faint.Render(style.Skip)
	}

	name := r.Name + strings.Repeat(" ", width-len(r.Name))
	if r.Status == StatusSkipped {
		name = p.faint.Render(name)
	} else {
		name = p.name.Render(name)
	}

	detail := r.Builder + " " + r.Trigger
	if r.Pass > 1 {
		detail += fmt.Sprintf(" (pass %d)", r.Pass)
	}
	if r.Status != StatusSkipped {
		detail += " " + r.Elapsed.Round(time.Millisecond).String()
	}

	fmt.Fprintf(b, "%s %s %s\n", icon, name, p.faint.Render(detail))
	if r.Err != nil && r.Status == StatusFailed {
		fmt.Fprintf(b, "  %s\n", p.failed.Render(r.Err.Error()))
	}
}
