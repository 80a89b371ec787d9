// Package ui renders plain (non-interactive) CLI output.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes themed lines. Color is decided per writer, so output piped
// to a file or a test buffer stays plain.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	theme  Theme

	title   lipgloss.Style
	muted   lipgloss.Style
	accent  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	pending lipgloss.Style
	box     lipgloss.Style
}

func NewPrinter(out, errOut io.Writer, t Theme) *Printer {
	r := lipgloss.NewRenderer(out)
	re := lipgloss.NewRenderer(errOut)
	return &Printer{
		out:     out,
		errOut:  errOut,
		theme:   t,
		title:   r.NewStyle().Bold(true).Foreground(t.Title),
		muted:   r.NewStyle().Foreground(t.Muted),
		accent:  r.NewStyle().Foreground(t.Accent),
		success: r.NewStyle().Foreground(t.Success),
		failure: re.NewStyle().Foreground(t.Error).Bold(true),
		pending: r.NewStyle().Foreground(t.Pending),
		box: r.NewStyle().
			Border(t.Border).
			BorderForeground(t.Muted).
			Padding(0, 1),
	}
}

// Writer is the stdout side, for prompts that must not end in a newline.
func (p *Printer) Writer() io.Writer { return p.out }

func (p *Printer) OK(msg string) {
	fmt.Fprintln(p.out, p.success.Render(p.theme.SymOK+" "+msg))
}

func (p *Printer) Fail(msg string) {
	fmt.Fprintln(p.errOut, p.failure.Render(p.theme.SymFail+" "+msg))
}

// Info prints a muted line, used for status text like "Loading favorites...".
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.out, p.muted.Render(msg))
}

func (p *Printer) Pending(msg string) {
	fmt.Fprintln(p.out, p.pending.Render(msg))
}

func (p *Printer) Line(s string) { fmt.Fprintln(p.out, s) }

func (p *Printer) Title(s string) string  { return p.title.Render(s) }
func (p *Printer) Muted(s string) string  { return p.muted.Render(s) }
func (p *Printer) Accent(s string) string { return p.accent.Render(s) }

// Bullet prefixes s with the theme bullet.
func (p *Printer) Bullet(s string) string {
	return p.theme.SymBullet + " " + s
}

// Panel draws a framed box around lines.
func (p *Printer) Panel(lines ...string) {
	fmt.Fprintln(p.out, p.box.Render(strings.Join(lines, "\n")))
}

// Bar renders "[███░░] done/total".
func (p *Printer) Bar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 0 {
		width = 20
	}
	if done < 0 {
		done = 0
	}
	filled := done * width / total
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat(p.theme.BarFull, filled) +
		strings.Repeat(p.theme.BarEmpty, width-filled) +
		fmt.Sprintf("] %d/%d", done, total)
}
