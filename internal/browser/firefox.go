package browser

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// Firefox reads tab groups out of the session store snapshots
// (sessionstore-backups/recovery.jsonlz4 and friends).
type Firefox struct {
	roots []string
	log   *zap.SugaredLogger
}

// NewFirefox builds the Firefox backend with the per-OS default profile roots.
func NewFirefox(log *zap.SugaredLogger) *Firefox {
	return &Firefox{roots: firefoxRoots(), log: log}
}

func (f *Firefox) Name() string { return "Mozilla Firefox" }

func (f *Firefox) CredentialSource() string { return "firefox" }

// firefoxRoots returns the candidate profile base directories for this OS,
// including the snap and flatpak layouts on Linux.
func firefoxRoots() []string {
	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return []string{filepath.Join(appData, "Mozilla", "Firefox", "Profiles")}
		}
		return nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")}
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{
			filepath.Join(home, ".mozilla", "firefox"),
			filepath.Join(home, "snap", "firefox", "common", ".mozilla", "firefox"),
			filepath.Join(home, ".var", "app", "org.mozilla.firefox", ".mozilla", "firefox"),
		}
	}
}

// Profiles enumerates profile directories under every existing root,
// most recently modified first. A directory qualifies only if it carries
// the prefs.js marker.
func (f *Firefox) Profiles() []Profile {
	var profiles []Profile
	for _, root := range existingDirs(f.roots) {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			dir := filepath.Join(root, e.Name())
			if !hasMarker(dir, "prefs.js") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			profiles = append(profiles, Profile{
				Path:    dir,
				Name:    e.Name(),
				ModTime: info.ModTime(),
			})
		}
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].ModTime.After(profiles[j].ModTime)
	})
	return profiles
}

// Session snapshot JSON shapes. Only the fields the extraction needs.
type sessionFile struct {
	Windows []sessionWindow `json:"windows"`
}

type sessionWindow struct {
	Groups []sessionGroup `json:"groups"`
	Tabs   []sessionTab   `json:"tabs"`
}

type sessionGroup struct {
	ID    any    `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`
}

type sessionTab struct {
	GroupID any            `json:"groupId"`
	Index   int            `json:"index"`
	Entries []sessionEntry `json:"entries"`
}

type sessionEntry struct {
	URL string `json:"url"`
}

// ExtractGroups reads the session snapshot chain and returns the active tab
// groups. Each tab contributes its active history entry's URL, attributed to
// the tab group it belongs to. Dedup by video identity spans the whole pass.
func (f *Firefox) ExtractGroups(profilePath string) Groups {
	candidates := []string{
		filepath.Join(profilePath, "sessionstore-backups", "recovery.jsonlz4"),
		filepath.Join(profilePath, "sessionstore-backups", "previous.jsonlz4"),
		filepath.Join(profilePath, "sessionstore.jsonlz4"),
	}

	var session sessionFile
	if !readFirstStoredJSON(candidates, &session) {
		f.log.Debugw("no readable session snapshot", "profile", profilePath)
		return nil
	}

	var groups Groups
	seen := make(map[string]bool)

	for _, window := range session.Windows {
		names := make(map[string]string)
		for _, g := range window.Groups {
			id := idString(g.ID)
			if id == "" {
				continue
			}
			title := g.Title
			if title == "" {
				title = g.Name
			}
			if title == "" {
				title = "Untitled Group"
			}
			names[id] = title
		}
		if len(names) == 0 {
			continue
		}

		for _, tab := range window.Tabs {
			name, ok := names[idString(tab.GroupID)]
			if !ok || len(tab.Entries) == 0 {
				continue
			}

			// index is 1-based and points at the active history entry
			idx := tab.Index - 1
			if tab.Index == 0 {
				idx = 0
			}
			if idx < 0 || idx >= len(tab.Entries) {
				continue
			}

			url := tab.Entries[idx].URL
			if !IsVideoURL(url) {
				continue
			}
			id, ok := VideoID(url)
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			groups.Add(name, url)
		}
	}

	return groups
}

// idString normalizes a session JSON identifier, which may arrive as a
// string or a number.
func idString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return ""
	default:
		return ""
	}
}
