package browser

import (
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ActiveSessionGroup is the synthetic group name for URLs recovered from the
// live session rather than a bookmark folder.
const ActiveSessionGroup = "[Active Session] Open Tabs"

// Chrome reads open tabs out of the binary SNSS session files and organized
// links out of the Bookmarks JSON tree.
type Chrome struct {
	roots []string
	log   *zap.SugaredLogger
}

// NewChrome builds the Chrome backend with the per-OS default profile roots.
func NewChrome(log *zap.SugaredLogger) *Chrome {
	return &Chrome{roots: chromeRoots(), log: log}
}

func (c *Chrome) Name() string { return "Google Chrome" }

func (c *Chrome) CredentialSource() string { return "chrome" }

func chromeRoots() []string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return []string{filepath.Join(localAppData, "Google", "Chrome", "User Data")}
		}
		return nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{filepath.Join(home, "Library", "Application Support", "Google", "Chrome")}
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		return []string{filepath.Join(home, ".config", "google-chrome")}
	}
}

// Profiles enumerates the Default profile and every "Profile N" directory,
// ordered by the Preferences marker's modification time descending. A
// directory without the marker does not qualify.
func (c *Chrome) Profiles() []Profile {
	var profiles []Profile
	for _, root := range existingDirs(c.roots) {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			if e.Name() != "Default" && !strings.HasPrefix(e.Name(), "Profile ") {
				continue
			}
			dir := filepath.Join(root, e.Name())
			pref, err := os.Stat(filepath.Join(dir, "Preferences"))
			if err != nil || pref.IsDir() {
				continue
			}
			profiles = append(profiles, Profile{
				Path:    dir,
				Name:    e.Name(),
				ModTime: pref.ModTime(),
			})
		}
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].ModTime.After(profiles[j].ModTime)
	})
	return profiles
}

// ExtractGroups assembles the live-session pseudo-group and the bookmark
// folder groups. The session scrape and the bookmark walk each carry their
// own dedup set: the same video may legitimately sit in an open tab and in
// a bookmark folder.
func (c *Chrome) ExtractGroups(profilePath string) Groups {
	var groups Groups

	for _, url := range scrapeSessionURLs(filepath.Join(profilePath, "Sessions")) {
		groups.Add(ActiveSessionGroup, url)
	}

	var bookmarks bookmarkFile
	if readStoredJSON(filepath.Join(profilePath, "Bookmarks"), &bookmarks) {
		walkBookmarks(&bookmarks, &groups)
	} else {
		c.log.Debugw("no readable bookmarks file", "profile", profilePath)
	}

	return groups
}
