// Package notify renders session start progress and results for humans.
package notify

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/mob/internal/mob/application"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// PlainSink writes line-oriented output, for pipes and --plain.
type PlainSink struct {
	mu       sync.Mutex
	out      io.Writer
	progress io.Writer
	width    int
	styles   plainStyles
}

type plainStyles struct {
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
}

var _ application.ProgressSink = (*PlainSink)(nil)

// NewPlainSink writes results to out. Progress goes to progress when it is
// non-nil. Styles degrade to plain text when out is not a terminal.
func NewPlainSink(out, progress io.Writer, width int) *PlainSink {
	if width <= 0 {
		width = DefaultWidth
	}
	r := lipgloss.NewRenderer(out)
	return &PlainSink{
		out:      out,
		progress: progress,
		width:    width,
		styles: plainStyles{
			success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#73F59F")),
			failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8787")),
			warning: r.NewStyle().Foreground(lipgloss.Color("#FECA57")),
			muted:   r.NewStyle().Foreground(lipgloss.Color("#8C8C8C")),
		},
	}
}

// ReportProgress prints the percentage on the progress writer.
func (s *PlainSink) ReportProgress(fraction float64) {
	if s.progress == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.progress, s.styles.muted.Render(fmt.Sprintf("[%3.0f%%]", fraction*100)))
}

// ReportResult prints the title and every message, wrapping long git
// diagnostics to the sink width.
func (s *PlainSink) ReportResult(success bool, title string, messages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	head := s.styles.success.Render("✓ " + title)
	if !success {
		head = s.styles.failure.Render("✗ " + title)
	}
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("\n")
	for _, msg := range messages {
		b.WriteString(s.line(msg))
		b.WriteString("\n")
	}
	_, _ = io.WriteString(s.out, b.String())
}

// line wraps msg and indents continuation lines under the bullet.
func (s *PlainSink) line(msg string) string {
	wrapped := wordwrap.String(msg, s.width-4)
	first, rest, _ := strings.Cut(wrapped, "\n")
	text := "  • " + first
	if rest != "" {
		text += "\n" + indent.String(rest, 4)
	}
	switch {
	case strings.HasPrefix(msg, "Failed"):
		return s.styles.failure.Render(text)
	case strings.HasPrefix(msg, "Warning"):
		return s.styles.warning.Render(text)
	default:
		return text
	}
}
