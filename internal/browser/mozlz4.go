package browser

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
)

// mozLz4Magic is the 8-byte header of Firefox's compressed JSON snapshots.
var mozLz4Magic = []byte("mozLz40\x00")

var errNotMozLz4 = errors.New("not a mozLz4 blob")

// maxSnapshotSize caps the declared uncompressed size. Session snapshots are
// megabytes at most; anything larger is a corrupt length prefix.
const maxSnapshotSize = 512 << 20

// decodeMozLz4 validates the magic header and decompresses the payload.
// Layout: 8-byte magic, 4-byte little-endian uncompressed size, LZ4 block.
func decodeMozLz4(data []byte) ([]byte, error) {
	if len(data) < len(mozLz4Magic)+4 || !bytes.HasPrefix(data, mozLz4Magic) {
		return nil, errNotMozLz4
	}

	size := binary.LittleEndian.Uint32(data[8:12])
	if size > maxSnapshotSize {
		return nil, errors.New("mozLz4: implausible uncompressed size")
	}

	out := make([]byte, size)
	n, err := lz4.UncompressBlock(data[12:], out)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}

// readStoredJSON reads a browser storage file and unmarshals it into v.
// mozLz4-compressed files are decompressed first; anything else is parsed
// as plain JSON. The file is copied to temp storage before reading so a
// running browser holding a lock cannot fail the read midway.
//
// Any failure returns false: these files may be absent, partially written
// or locked, and the caller is expected to fall back or skip.
func readStoredJSON(path string, v any) bool {
	src, err := os.Open(path)
	if err != nil {
		return false
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "tambur-read-*")
	if err != nil {
		return false
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		return false
	}

	content, err := os.ReadFile(tmp.Name())
	if err != nil {
		return false
	}

	if bytes.HasPrefix(content, mozLz4Magic) {
		content, err = decodeMozLz4(content)
		if err != nil {
			return false
		}
	}

	return json.Unmarshal(content, v) == nil
}

// readFirstStoredJSON tries each candidate path in order and unmarshals the
// first one that parses. Candidates are expected to be ordered live snapshot
// first, then successively older backups.
func readFirstStoredJSON(paths []string, v any) bool {
	for _, p := range paths {
		if readStoredJSON(p, v) {
			return true
		}
	}
	return false
}
