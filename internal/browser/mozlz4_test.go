package browser

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
)

// mozLz4Encode builds a well-formed snapshot blob from raw JSON.
func mozLz4Encode(t *testing.T, data []byte) []byte {
	t.Helper()

	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		t.Fatalf("CompressBlock: %v", err)
	}
	if n == 0 {
		t.Fatal("fixture data did not compress; make it more repetitive")
	}

	blob := make([]byte, 12, 12+n)
	copy(blob, mozLz4Magic)
	binary.LittleEndian.PutUint32(blob[8:], uint32(len(data)))
	return append(blob, buf[:n]...)
}

// compressible JSON fixture: repeated keys give LZ4 something to work with.
var sessionFixture = []byte(`{"windows":[{"groups":[{"id":"g1","title":"Road Trip"}],` +
	`"tabs":[` +
	`{"groupId":"g1","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=aaaaaaaaaa1"}]},` +
	`{"groupId":"g1","index":1,"entries":[{"url":"https://www.youtube.com/watch?v=aaaaaaaaaa2"}]}` +
	`]}]}`)

func TestDecodeMozLz4RoundTrip(t *testing.T) {
	blob := mozLz4Encode(t, sessionFixture)

	out, err := decodeMozLz4(blob)
	if err != nil {
		t.Fatalf("decodeMozLz4: %v", err)
	}
	if !bytes.Equal(out, sessionFixture) {
		t.Errorf("round trip mismatch:\ngot  %s\nwant %s", out, sessionFixture)
	}
}

func TestDecodeMozLz4Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"short", []byte("mozLz4")},
		{"wrong magic", append([]byte("notLz40\x00"), make([]byte, 8)...)},
		{"truncated payload", mozLz4Encode(t, sessionFixture)[:14]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeMozLz4(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestReadStoredJSONIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recovery.jsonlz4")
	if err := os.WriteFile(path, mozLz4Encode(t, sessionFixture), 0644); err != nil {
		t.Fatal(err)
	}

	var first, second sessionFile
	if !readStoredJSON(path, &first) {
		t.Fatal("first read failed")
	}
	if !readStoredJSON(path, &second) {
		t.Fatal("second read failed")
	}

	if len(first.Windows) != 1 || len(second.Windows) != 1 {
		t.Fatalf("window counts = %d, %d, want 1, 1", len(first.Windows), len(second.Windows))
	}
	if len(first.Windows[0].Tabs) != len(second.Windows[0].Tabs) {
		t.Error("two reads of the same blob disagree")
	}
}

func TestReadStoredJSONPlainJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Bookmarks")
	if err := os.WriteFile(path, []byte(`{"roots":{}}`), 0644); err != nil {
		t.Fatal(err)
	}

	var file bookmarkFile
	if !readStoredJSON(path, &file) {
		t.Error("plain JSON read failed")
	}
}

func TestReadStoredJSONBestEffort(t *testing.T) {
	dir := t.TempDir()
	garbled := filepath.Join(dir, "garbled.jsonlz4")
	if err := os.WriteFile(garbled, []byte("mozLz40\x00garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	var v sessionFile
	if readStoredJSON(filepath.Join(dir, "missing"), &v) {
		t.Error("missing file should report no data")
	}
	if readStoredJSON(garbled, &v) {
		t.Error("garbled file should report no data")
	}
}

func TestReadFirstStoredJSONFallsBack(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "previous.jsonlz4")
	if err := os.WriteFile(good, mozLz4Encode(t, sessionFixture), 0644); err != nil {
		t.Fatal(err)
	}

	var session sessionFile
	ok := readFirstStoredJSON([]string{
		filepath.Join(dir, "recovery.jsonlz4"), // absent
		good,
	}, &session)

	if !ok {
		t.Fatal("expected fallback candidate to parse")
	}
	if len(session.Windows) != 1 {
		t.Errorf("windows = %d, want 1", len(session.Windows))
	}
}
