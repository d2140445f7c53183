package browser

import (
	"os"
	"path/filepath"
	"regexp"
	"unicode/utf8"
)

// urlBytePattern matches HTTP(S) URL byte runs embedded in a binary stream,
// terminated by control bytes or punctuation that never appears in a URL.
var urlBytePattern = regexp.MustCompile("https?://[^\x00-\x20\x7f\"<>|^`{}]+")

// scrapeSessionURLs scans a Chrome SNSS session file for embedded video
// URLs. The format has no schema guarantees, so the raw bytes are pattern
// scanned. Session files are append-structured, so matches are walked in
// reverse to put the most recently written URLs first. First occurrence per
// video identity wins.
func scrapeSessionURLs(sessionsDir string) []string {
	target := pickSessionFile(sessionsDir)
	if target == "" {
		return nil
	}

	content, err := os.ReadFile(target)
	if err != nil {
		return nil
	}

	matches := urlBytePattern.FindAll(content, -1)

	var urls []string
	seen := make(map[string]bool)

	for i := len(matches) - 1; i >= 0; i-- {
		if !utf8.Valid(matches[i]) {
			continue
		}
		url := string(matches[i])
		if !IsVideoURL(url) {
			continue
		}
		id, ok := VideoID(url)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		urls = append(urls, url)
	}

	return urls
}

// pickSessionFile selects the session file to scan: the designated
// "Current Session" when present and non-empty, otherwise the most recently
// modified Session_* recovery file.
func pickSessionFile(sessionsDir string) string {
	current := filepath.Join(sessionsDir, "Current Session")
	if info, err := os.Stat(current); err == nil && info.Size() > 0 {
		return current
	}

	candidates, err := filepath.Glob(filepath.Join(sessionsDir, "Session_*"))
	if err != nil {
		return ""
	}

	var newest string
	var newestMod int64
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = c
			newestMod = mod
		}
	}
	return newest
}
