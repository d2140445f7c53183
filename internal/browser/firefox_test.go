package browser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kilimcininkoroglu/tambur/internal/logging"
)

func writeSnapshot(t *testing.T, profileDir, rel string, json []byte) {
	t.Helper()
	path := filepath.Join(profileDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, mozLz4Encode(t, json), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFirefoxProfilesMarkerFilter(t *testing.T) {
	root := t.TempDir()

	withMarker := filepath.Join(root, "abcd1234.default-release")
	if err := os.MkdirAll(withMarker, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(withMarker, "prefs.js"), []byte("// prefs"), 0644); err != nil {
		t.Fatal(err)
	}

	// looks like a profile but has no prefs marker
	if err := os.MkdirAll(filepath.Join(root, "stray.dir"), 0755); err != nil {
		t.Fatal(err)
	}

	ff := &Firefox{roots: []string{root}, log: logging.NewNop()}
	profiles := ff.Profiles()

	if len(profiles) != 1 {
		t.Fatalf("len(profiles) = %d, want 1", len(profiles))
	}
	if profiles[0].Name != "abcd1234.default-release" {
		t.Errorf("profile = %q", profiles[0].Name)
	}
}

func TestFirefoxProfilesMissingRoot(t *testing.T) {
	ff := &Firefox{roots: []string{"/nonexistent/firefox"}, log: logging.NewNop()}
	if got := ff.Profiles(); len(got) != 0 {
		t.Errorf("expected no profiles, got %v", got)
	}
}

func TestFirefoxProfilesOrderedByRecency(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "old.profile")
	recent := filepath.Join(root, "recent.profile")
	for _, dir := range []string{old, recent} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "prefs.js"), []byte("//"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-24 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}

	ff := &Firefox{roots: []string{root}, log: logging.NewNop()}
	profiles := ff.Profiles()

	if len(profiles) != 2 {
		t.Fatalf("len(profiles) = %d, want 2", len(profiles))
	}
	if profiles[0].Name != "recent.profile" {
		t.Errorf("first profile = %q, want recent.profile", profiles[0].Name)
	}
}

func TestFirefoxExtractGroups(t *testing.T) {
	profile := t.TempDir()

	session := []byte(`{"windows":[{` +
		`"groups":[{"id":"g1","title":"Road Trip"},{"id":"g2","name":"Workout"},{"id":"g3"}],` +
		`"tabs":[` +
		`{"groupId":"g1","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=vid0000001"}]},` +
		`{"groupId":"g1","index":2,"entries":[` +
		`{"url":"https://www.youtube.com/watch?v=notactive01"},` +
		`{"url":"https://www.youtube.com/watch?v=vid0000002"}]},` +
		`{"groupId":"g2","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=vid0000003"}]},` +
		`{"groupId":"g2","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=vid0000001"}]},` +
		`{"groupId":"g3","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=vid0000004"}]},` +
		`{"groupId":"missing","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=vid0000005"}]},` +
		`{"index":1,"entries":[{"url":"https://www.youtube.com/watch?v=vid0000006"}]},` +
		`{"groupId":"g1","index":1,"entries":[{"url":"https://www.youtube.com/results?search_query=x"}]}` +
		`]}]}`)

	writeSnapshot(t, profile, filepath.Join("sessionstore-backups", "recovery.jsonlz4"), session)

	ff := &Firefox{log: logging.NewNop()}
	groups := ff.ExtractGroups(profile)

	if len(groups) != 3 {
		t.Fatalf("len(groups) = %d, want 3: %v", len(groups), groups)
	}

	roadTrip, _ := groups.Get("Road Trip")
	if len(roadTrip.URLs) != 2 {
		t.Errorf("Road Trip = %v, want 2 URLs", roadTrip.URLs)
	}

	// tab with duplicate of vid0000001 must have been dropped
	workout, _ := groups.Get("Workout")
	if len(workout.URLs) != 1 {
		t.Errorf("Workout = %v, want 1 URL", workout.URLs)
	}

	// group without a title falls back to the default name
	untitled, ok := groups.Get("Untitled Group")
	if !ok || len(untitled.URLs) != 1 {
		t.Errorf("Untitled Group = %v, want 1 URL", untitled.URLs)
	}
}

func TestFirefoxExtractGroupsFallsBackToOlderSnapshot(t *testing.T) {
	profile := t.TempDir()

	// recovery is corrupt, previous is readable
	recovery := filepath.Join(profile, "sessionstore-backups", "recovery.jsonlz4")
	if err := os.MkdirAll(filepath.Dir(recovery), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(recovery, []byte("mozLz40\x00nope"), 0644); err != nil {
		t.Fatal(err)
	}

	previous := []byte(`{"windows":[{"groups":[{"id":"g1","title":"Backup"}],` +
		`"tabs":[{"groupId":"g1","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=backup00001"}]}]}]}`)
	writeSnapshot(t, profile, filepath.Join("sessionstore-backups", "previous.jsonlz4"), previous)

	ff := &Firefox{log: logging.NewNop()}
	groups := ff.ExtractGroups(profile)

	if len(groups) != 1 || groups[0].Name != "Backup" {
		t.Fatalf("groups = %v, want single Backup group", groups)
	}
}

func TestFirefoxExtractGroupsNoSnapshot(t *testing.T) {
	ff := &Firefox{log: logging.NewNop()}
	if groups := ff.ExtractGroups(t.TempDir()); len(groups) != 0 {
		t.Errorf("expected no groups, got %v", groups)
	}
}

func TestFirefoxNumericGroupIDs(t *testing.T) {
	profile := t.TempDir()

	// groupId can arrive as a JSON number
	session := []byte(`{"windows":[{"groups":[{"id":42,"title":"Numbers"}],` +
		`"tabs":[{"groupId":42,"index":1,"entries":[{"url":"https://www.youtube.com/watch?v=numeric0001"}]}]}]}`)
	writeSnapshot(t, profile, "sessionstore.jsonlz4", session)

	ff := &Firefox{log: logging.NewNop()}
	groups := ff.ExtractGroups(profile)

	if len(groups) != 1 || groups[0].Name != "Numbers" {
		t.Fatalf("groups = %v, want Numbers group", groups)
	}
}
