package cli

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/opd-ai/fluffy/humanize"
	"github.com/opd-ai/fluffy/upload"
)

const bullet = "•"

var (
	boldStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Bold renders s in bold when w is a terminal.
func Bold(w io.Writer, s string) string {
	if !IsTerminal(w) {
		return s
	}
	return boldStyle.Render(s)
}

// Muted renders s dimmed when w is a terminal.
func Muted(w io.Writer, s string) string {
	if !IsTerminal(w) {
		return s
	}
	return mutedStyle.Render(s)
}

// StatusText describes p the way the upload page does:
// "1.2 MB / 3.4 MB (35%)", followed by the rate and time left once an
// estimate is available.
func StatusText(p upload.Progress) string {
	percent := int(p.Fraction() * 100)
	text := fmt.Sprintf("%s / %s (%d%%)", humanize.Size(p.Sent), humanize.Size(p.Total), percent)
	if p.HasRate {
		text += fmt.Sprintf(" %s %s/s %s %s remaining",
			bullet, humanize.Size(int64(p.Rate)),
			bullet, humanize.DurationOf(p.Remaining))
	}
	return text
}

// ProgressLine redraws a single status line with a progress bar. It is a
// no-op when disabled, so callers need not check for a terminal.
type ProgressLine struct {
	mu      sync.Mutex
	out     io.Writer
	bar     progress.Model
	enabled bool
	drawn   bool
}

// NewProgressLine returns a line drawing to out when enabled is true.
func NewProgressLine(out io.Writer, enabled bool) *ProgressLine {
	return &ProgressLine{
		out:     out,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30), progress.WithoutPercentage()),
		enabled: enabled,
	}
}

// Render returns the line for p without drawing it.
func (l *ProgressLine) Render(p upload.Progress) string {
	return l.bar.ViewAs(p.Fraction()) + " " + StatusText(p)
}

// Update redraws the line for p.
func (l *ProgressLine) Update(p upload.Progress) {
	if !l.enabled {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprint(l.out, "\r\x1b[2K"+l.Render(p))
	l.drawn = true
}

// Done erases the line.
func (l *ProgressLine) Done() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.enabled && l.drawn {
		fmt.Fprint(l.out, "\r\x1b[2K")
		l.drawn = false
	}
}
