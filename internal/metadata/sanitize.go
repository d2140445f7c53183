// Package metadata cleans up titles and audio file tags after a download:
// junk-suffix removal from names and a bounded find/replace over ID3 text
// frames. Nothing here is ever fatal to a run.
package metadata

import (
	"regexp"
	"strings"
)

// cleanupPatterns remove the usual upload-title junk: "(Official Video)",
// "[HQ]", "(Lyrics)" and friends, in any bracket style.
var cleanupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*[({\[]\s*official\s*music\s*video\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*official\s*lyric\s*video\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*official\s*video\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*official\s*audio\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*video\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*audio\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*lyrics\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*visualizer\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*hq\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*hd\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*4k\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*new\s*single\s*[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*live\s*@.*?[)}\]]`),
	regexp.MustCompile(`(?i)\s*[({\[]\s*with\s*vocals\s*[)}\]]`),
}

var (
	trailingSeparator = regexp.MustCompile(`\s*[-|]\s*$`)
	multiSpace        = regexp.MustCompile(`\s+`)
)

// SanitizeTitle removes common junk text from a title or filename stem.
// Pure function; empty input stays empty.
func SanitizeTitle(text string) string {
	if text == "" {
		return ""
	}

	clean := text
	for _, pattern := range cleanupPatterns {
		clean = pattern.ReplaceAllString(clean, "")
	}

	// remove trailing separators left behind ("Song - " -> "Song")
	clean = trailingSeparator.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(multiSpace.ReplaceAllString(clean, " "))
	clean = strings.ReplaceAll(clean, "..", ".")

	return clean
}
