// Package ui provides terminal user interface components.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/kilimcininkoroglu/tambur/internal/download"
	"github.com/kilimcininkoroglu/tambur/internal/engine"
)

// ProgressBar renders download progress on a single terminal line,
// redrawing in place as updates arrive from the engine.
type ProgressBar struct {
	output  io.Writer
	width   int
	noColor bool
	active  bool
}

// ProgressBarOption configures a ProgressBar
type ProgressBarOption func(*ProgressBar)

// WithOutput sets the output writer
func WithOutput(w io.Writer) ProgressBarOption {
	return func(p *ProgressBar) {
		p.output = w
	}
}

// WithWidth sets the progress bar width
func WithWidth(width int) ProgressBarOption {
	return func(p *ProgressBar) {
		p.width = width
	}
}

// WithNoColor disables colored output
func WithNoColor(noColor bool) ProgressBarOption {
	return func(p *ProgressBar) {
		p.noColor = noColor
	}
}

// NewProgressBar creates a new ProgressBar
func NewProgressBar(opts ...ProgressBarOption) *ProgressBar {
	p := &ProgressBar{
		width:   40,
		noColor: false,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	clearLine   = "\033[2K"
)

// Render redraws the progress line with the latest engine update.
func (p *ProgressBar) Render(w io.Writer, progress engine.Progress) {
	var sb strings.Builder

	sb.WriteString(clearLine + "\r")

	name := progress.Filename
	if name == "" {
		name = "downloading"
	}
	if len(name) > 35 {
		name = name[:32] + "..."
	}

	bar := p.renderBar(progress.Percent, p.width)
	sb.WriteString(fmt.Sprintf("%s %s", p.color(colorBold, name), bar))

	if progress.Speed != "" {
		sb.WriteString("  " + p.color(colorCyan, progress.Speed))
	}
	if progress.ETA != "" {
		sb.WriteString("  ETA " + p.color(colorYellow, progress.ETA))
	}

	p.active = true
	fmt.Fprint(w, sb.String())
}

// Finish terminates the in-place progress line, if one was drawn.
func (p *ProgressBar) Finish(w io.Writer) {
	if p.active {
		fmt.Fprint(w, "\n")
		p.active = false
	}
}

// renderBar creates an ASCII progress bar
func (p *ProgressBar) renderBar(percent float64, width int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(float64(width) * percent / 100)
	empty := width - filled

	bar := strings.Repeat("━", filled) + strings.Repeat("─", empty)
	percentStr := fmt.Sprintf("%5.1f%%", percent)

	return p.color(colorGreen, bar) + " " + percentStr
}

// color wraps text in an ANSI color unless colors are disabled
func (p *ProgressBar) color(code, text string) string {
	if p.noColor {
		return text
	}
	return code + text + colorReset
}

// RenderSummary prints the end-of-run report for one group.
func (p *ProgressBar) RenderSummary(w io.Writer, group string, stats download.Stats) {
	p.Finish(w)

	mark := p.color(colorGreen, "✓")
	if stats.Succeeded == 0 && stats.Total > 0 {
		mark = p.color(colorYellow, "✗")
	}
	fmt.Fprintf(w, "%s %s: %d/%d downloaded, %d new file(s)\n",
		mark, p.color(colorBold, group), stats.Succeeded, stats.Total, stats.NewFiles)

	if stats.SkippedFragments > 0 {
		fmt.Fprintf(w, "  %s %d fragment(s) skipped, audio may have gaps\n",
			p.color(colorYellow, "!"), stats.SkippedFragments)
	}
	if stats.Warnings > 0 {
		fmt.Fprintf(w, "  %d warning(s), see the log for details\n", stats.Warnings)
	}
}
