package metadata

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"

	"github.com/kilimcininkoroglu/tambur/internal/logging"
)

var fakeAudio = []byte{0xff, 0xfb, 0x90, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

func txxxFrame(desc, value string) id3v2.UserDefinedTextFrame {
	return id3v2.UserDefinedTextFrame{
		Encoding:    id3v2.EncodingUTF8,
		Description: desc,
		Value:       value,
	}
}

// writeTagged lays down fake audio bytes and tags them via set.
func writeTagged(t *testing.T, set func(tag *id3v2.Tag)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mp3")
	if err := os.WriteFile(path, fakeAudio, 0644); err != nil {
		t.Fatal(err)
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	set(tag)
	if err := tag.Save(); err != nil {
		t.Fatal(err)
	}
	if err := tag.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func openTag(t *testing.T, path string) *id3v2.Tag {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasSuffix(data, fakeAudio) {
		t.Error("audio data damaged by rewrite")
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { tag.Close() })
	return tag
}

func txxxValues(tag *id3v2.Tag) map[string]string {
	out := make(map[string]string)
	for _, f := range tag.GetFrames("TXXX") {
		if udt, ok := f.(id3v2.UserDefinedTextFrame); ok {
			out[udt.Description] = udt.Value
		}
	}
	return out
}

func TestRewriteDropsJunkFrames(t *testing.T) {
	path := writeTagged(t, func(tag *id3v2.Tag) {
		tag.SetTitle("Song Name")
		tag.SetArtist("Artist")
		tag.AddTextFrame("TSSE", id3v2.EncodingUTF8, "Lavf60.3.100")
		tag.AddTextFrame("TENC", id3v2.EncodingUTF8, "some encoder")
		tag.AddTextFrame("TRCK", id3v2.EncodingUTF8, "5")
		tag.AddUserDefinedTextFrame(txxxFrame("description", "some upload description"))
		tag.AddUserDefinedTextFrame(txxxFrame("custom_tag", "kept"))
	})

	r := NewID3Rewriter(logging.NewNop())
	if err := r.Rewrite(path); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	tag := openTag(t, path)
	for _, gone := range []string{"TSSE", "TENC", "TRCK"} {
		if text := tag.GetTextFrame(gone).Text; text != "" {
			t.Errorf("frame %s should have been dropped, got %q", gone, text)
		}
	}
	if tag.Artist() != "Artist" {
		t.Errorf("artist = %q, want it to survive", tag.Artist())
	}
	if tag.Title() != "Song Name" {
		t.Errorf("title = %q", tag.Title())
	}
	// only blacklisted TXXX descriptions are dropped
	txxx := txxxValues(tag)
	if txxx["custom_tag"] != "kept" {
		t.Errorf("TXXX custom_tag = %q, want the custom tag to survive", txxx["custom_tag"])
	}
	if _, ok := txxx["description"]; ok {
		t.Error("TXXX description should have been dropped")
	}
}

func TestRewriteSanitizesTitle(t *testing.T) {
	path := writeTagged(t, func(tag *id3v2.Tag) {
		tag.SetTitle("Great Song (Official Video)")
	})

	r := NewID3Rewriter(logging.NewNop())
	if err := r.Rewrite(path); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	if tag := openTag(t, path); tag.Title() != "Great Song" {
		t.Errorf("title = %q, want %q", tag.Title(), "Great Song")
	}
}

func TestRewriteRecoversYear(t *testing.T) {
	tests := []struct {
		name string
		set  func(tag *id3v2.Tag)
		want string
	}{
		{
			"from TDRC",
			func(tag *id3v2.Tag) {
				tag.SetTitle("Song")
				tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, "2021-05-01")
			},
			"2021",
		},
		{
			"from description text",
			func(tag *id3v2.Tag) {
				tag.SetTitle("Song")
				tag.AddUserDefinedTextFrame(txxxFrame("description", "Provided to YouTube by Label\nReleased on: 2019-03-08"))
			},
			"2019",
		},
		{
			"description beats frame",
			func(tag *id3v2.Tag) {
				tag.SetTitle("Song")
				tag.AddTextFrame("TYER", id3v2.EncodingUTF8, "2023")
				tag.AddUserDefinedTextFrame(txxxFrame("description", "℗ 2018 Some Label"))
			},
			"2018",
		},
		{
			"from comment text",
			func(tag *id3v2.Tag) {
				tag.SetTitle("Song")
				tag.AddCommentFrame(id3v2.CommentFrame{
					Encoding: id3v2.EncodingUTF8,
					Language: "eng",
					Text:     "© 2017 Some Label",
				})
			},
			"2017",
		},
	}

	r := NewID3Rewriter(logging.NewNop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTagged(t, tt.set)
			if err := r.Rewrite(path); err != nil {
				t.Fatalf("Rewrite: %v", err)
			}
			tag := openTag(t, path)
			if got := tag.GetTextFrame("TYER").Text; got != tt.want {
				t.Errorf("TYER = %q, want %q", got, tt.want)
			}
			if text := tag.GetTextFrame("TDRC").Text; text != "" {
				t.Errorf("TDRC should always be dropped, got %q", text)
			}
		})
	}
}

func TestRewriteLeavesNonMP3Alone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "song.m4a")
	original := []byte("not an mp3 at all")
	if err := os.WriteFile(path, original, 0644); err != nil {
		t.Fatal(err)
	}

	r := NewID3Rewriter(logging.NewNop())
	if err := r.Rewrite(path); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !bytes.Equal(data, original) {
		t.Error("non-MP3 file was modified")
	}
}

func TestRewriteLeavesUntaggedMP3Alone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.mp3")
	if err := os.WriteFile(path, fakeAudio, 0644); err != nil {
		t.Fatal(err)
	}

	r := NewID3Rewriter(logging.NewNop())
	if err := r.Rewrite(path); err != nil {
		t.Fatalf("Rewrite: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !bytes.Equal(data, fakeAudio) {
		t.Error("untagged MP3 was modified")
	}
}
