package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kilimcininkoroglu/tambur/internal/download"
	"github.com/kilimcininkoroglu/tambur/internal/engine"
)

func TestProgressBar_renderBar(t *testing.T) {
	p := NewProgressBar(WithNoColor(true))

	tests := []struct {
		percent float64
		filled  int
	}{
		{0, 0},
		{50, 5},
		{100, 10},
		{150, 10},
		{-5, 0},
	}

	for _, tt := range tests {
		bar := p.renderBar(tt.percent, 10)
		if got := strings.Count(bar, "━"); got != tt.filled {
			t.Errorf("renderBar(%v) filled = %d, want %d", tt.percent, got, tt.filled)
		}
		if !strings.Contains(bar, "%") {
			t.Errorf("renderBar(%v) should contain a percentage", tt.percent)
		}
	}
}

func TestProgressBar_Render(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(WithNoColor(true))

	p.Render(&buf, engine.Progress{
		Percent:  50.0,
		Speed:    "1.20MiB/s",
		ETA:      "00:05",
		Filename: "song.webm",
	})

	out := buf.String()
	for _, want := range []string{"song.webm", "50.0%", "1.20MiB/s", "ETA 00:05"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render output missing %q in %q", want, out)
		}
	}
	if strings.Contains(out, "\n") {
		t.Error("Render should stay on one line")
	}
}

func TestProgressBar_RenderTruncatesLongNames(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(WithNoColor(true))

	long := strings.Repeat("x", 80) + ".webm"
	p.Render(&buf, engine.Progress{Percent: 10, Filename: long})
	if strings.Contains(buf.String(), long) {
		t.Error("long filename should be truncated")
	}
	if !strings.Contains(buf.String(), "...") {
		t.Error("truncated filename should end with an ellipsis")
	}
}

func TestProgressBar_FinishOnlyAfterRender(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(WithNoColor(true))

	p.Finish(&buf)
	if buf.Len() != 0 {
		t.Error("Finish without Render should write nothing")
	}

	p.Render(&buf, engine.Progress{Percent: 100})
	buf.Reset()
	p.Finish(&buf)
	if buf.String() != "\n" {
		t.Errorf("Finish after Render = %q, want newline", buf.String())
	}
}

func TestProgressBar_RenderSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(WithNoColor(true))

	p.RenderSummary(&buf, "Road Trip", download.Stats{
		Total:            3,
		Succeeded:        2,
		NewFiles:         2,
		SkippedFragments: 4,
		Warnings:         1,
	})

	out := buf.String()
	for _, want := range []string{"Road Trip", "2/3", "2 new file(s)", "4 fragment(s) skipped", "1 warning(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q in %q", want, out)
		}
	}
}

func TestProgressBar_RenderSummaryAllFailed(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressBar(WithNoColor(true))

	p.RenderSummary(&buf, "Mix", download.Stats{Total: 2})
	if !strings.Contains(buf.String(), "✗") {
		t.Errorf("all-failed summary should carry the failure mark, got %q", buf.String())
	}
}
