package browser

import (
	"regexp"
	"strings"
)

var watchIDPattern = regexp.MustCompile(`[?&]v=([^&]+)`)

// VideoID derives the canonical content identity encoded in a video URL.
// It is a pure function: the same URL always yields the same identity, and
// non-video URLs yield none.
func VideoID(url string) (string, bool) {
	switch {
	case strings.Contains(url, "youtube.com/watch"):
		m := watchIDPattern.FindStringSubmatch(url)
		if m == nil {
			return "", false
		}
		return m[1], true
	case strings.Contains(url, "youtu.be/"):
		id := strings.SplitN(url, "youtu.be/", 2)[1]
		id = strings.SplitN(id, "?", 2)[0]
		if id == "" {
			return "", false
		}
		return id, true
	case strings.Contains(url, "youtube.com/shorts/"):
		id := strings.SplitN(url, "shorts/", 2)[1]
		id = strings.SplitN(id, "?", 2)[0]
		if id == "" {
			return "", false
		}
		return id, true
	}
	return "", false
}

// IsVideoURL reports whether url points at an actual video rather than a
// search page, account page or the bare homepage.
func IsVideoURL(url string) bool {
	if url == "" {
		return false
	}

	if !strings.Contains(url, "youtube.com") && !strings.Contains(url, "youtu.be") {
		return false
	}

	for _, reject := range []string{
		"search_query=",
		"/results",
		"accounts.google",
		"google.com/settings",
	} {
		if strings.Contains(url, reject) {
			return false
		}
	}

	clean := strings.ReplaceAll(url, "www.", "")
	clean = strings.ReplaceAll(clean, "https://", "")
	clean = strings.Trim(clean, "/")
	if clean == "youtube.com" {
		return false
	}

	return strings.Contains(url, "/watch") ||
		strings.Contains(url, "/shorts/") ||
		strings.Contains(url, "youtu.be")
}
