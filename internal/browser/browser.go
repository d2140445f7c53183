// Package browser discovers candidate media links from local browser state:
// Firefox session snapshots with tab groups, Chrome binary session files and
// bookmark folders. All readers are best-effort: a missing, locked or
// corrupt browser file yields an empty result, never an error.
package browser

import (
	"os"
	"path/filepath"
	"time"
)

// Profile is an on-disk browser profile directory.
type Profile struct {
	Path    string
	Name    string
	ModTime time.Time
}

// Group is a named, ordered list of URLs. Order reflects tab/bookmark order.
type Group struct {
	Name string
	URLs []string
}

// Groups keeps insertion order and merges URLs into an existing group when
// the name is already present.
type Groups []Group

// Add appends url to the group called name, creating the group at the end
// of the list on first use.
func (g *Groups) Add(name, url string) {
	for i := range *g {
		if (*g)[i].Name == name {
			(*g)[i].URLs = append((*g)[i].URLs, url)
			return
		}
	}
	*g = append(*g, Group{Name: name, URLs: []string{url}})
}

// Get returns the group called name.
func (g Groups) Get(name string) (Group, bool) {
	for _, grp := range g {
		if grp.Name == name {
			return grp, true
		}
	}
	return Group{}, false
}

// Backend is a browser family the discovery layer knows how to read.
type Backend interface {
	// Name is the human-readable browser name.
	Name() string

	// Profiles enumerates profile directories, most recently used first.
	// A missing installation yields an empty slice.
	Profiles() []Profile

	// ExtractGroups reads the profile's stored state and returns the
	// qualifying URL groups. Groups with no qualifying URLs are omitted.
	ExtractGroups(profilePath string) Groups

	// CredentialSource is the identifier handed to the download engine
	// when borrowing this browser's cookies.
	CredentialSource() string
}

// existingDirs filters paths down to those that exist and are directories.
func existingDirs(paths []string) []string {
	var out []string
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}

// hasMarker reports whether dir contains the named file. Used to check that
// a directory structurally matches the expected profile layout.
func hasMarker(dir, marker string) bool {
	info, err := os.Stat(filepath.Join(dir, marker))
	return err == nil && !info.IsDir()
}
