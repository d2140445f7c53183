// Package storage handles the output directory: per-group subdirectories,
// before/after inventory for new-file accounting, collision-safe renames
// and content digests of produced files.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
)

// SanitizeGroupDir reduces a group name to alphanumeric characters and
// spaces, suitable as a directory name on every supported OS.
func SanitizeGroupDir(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == ' ' ||
			(r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	clean := strings.TrimSpace(b.String())
	if clean == "" {
		clean = "downloads"
	}
	return clean
}

// GroupDir resolves and creates the output directory for a group.
func GroupDir(base, groupName string) (string, error) {
	dir := filepath.Join(base, SanitizeGroupDir(groupName))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return dir, nil
}

// Snapshot lists the file names currently present in dir. A missing
// directory is an empty snapshot.
func Snapshot(dir string) map[string]bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return map[string]bool{}
	}

	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		names[e.Name()] = true
	}
	return names
}

// CountNew returns how many names in after were not present in before.
func CountNew(before, after map[string]bool) int {
	n := 0
	for name := range after {
		if !before[name] {
			n++
		}
	}
	return n
}

// SafeRename renames old to the path built from dir, stem and ext,
// appending "_<seq>" when the target already exists. Returns the final
// path. The pre-check-then-rename is not safe against a second concurrent
// writer; the orchestrator guarantees there is none.
func SafeRename(old, dir, stem, ext string, seq int) (string, error) {
	target := filepath.Join(dir, stem+ext)
	if _, err := os.Stat(target); err == nil && target != old {
		target = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, seq, ext))
	}
	if target == old {
		return old, nil
	}
	if err := os.Rename(old, target); err != nil {
		return "", err
	}
	return target, nil
}

// Digest computes the BLAKE3 digest of a file, hex encoded.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
