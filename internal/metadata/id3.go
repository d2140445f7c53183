package metadata

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bogem/id3v2/v2"
	"go.uber.org/zap"
)

// TagRewriter rewrites the metadata of a produced audio file after a run.
type TagRewriter interface {
	Rewrite(path string) error
}

// ID3Rewriter cleans the tag of a produced MP3: encoder junk, comment and
// track-number frames are dropped, a release year is recovered into TYER,
// and the title is sanitized. Non-MP3 files and files without a tag are
// left untouched.
type ID3Rewriter struct {
	log *zap.SugaredLogger
}

// NewID3Rewriter builds a tag rewriter.
func NewID3Rewriter(log *zap.SugaredLogger) *ID3Rewriter {
	return &ID3Rewriter{log: log}
}

// Frames removed outright, plus TXXX descriptions that mark uploader junk.
var (
	dropFrameIDs  = []string{"TRCK", "TDRC", "TDAT", "TSSE", "TENC", "COMM", "USLT"}
	dropTXXXDescs = []string{
		"description", "synopsis", "purl", "comment", "producers",
		"handler", "major_brand", "minor_version", "compatible_brands",
	}
)

// yearPattern finds a release year in copyright/description text.
var yearPattern = regexp.MustCompile(`(?i)(?:℗|©|\(c\)|released\s*on|published\s*on|provided\s*to\s*youtube)[^0-9]*((?:19|20)\d{2})`)

// Rewrite cleans the tag in place. Unsupported inputs are a no-op, tag
// problems are logged and swallowed.
func (r *ID3Rewriter) Rewrite(path string) error {
	if strings.ToLower(filepath.Ext(path)) != ".mp3" {
		return nil
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		r.log.Warnw("unreadable tag, leaving file untouched", "file", filepath.Base(path), "error", err)
		return nil
	}
	defer tag.Close()

	if tag.Count() == 0 {
		r.log.Debugw("no ID3 tag, leaving file untouched", "file", filepath.Base(path))
		return nil
	}

	year := findYear(tag)

	for _, id := range dropFrameIDs {
		tag.DeleteFrames(id)
	}

	var kept []id3v2.UserDefinedTextFrame
	for _, f := range tag.GetFrames("TXXX") {
		udt, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok || junkTXXX(udt.Description) {
			continue
		}
		kept = append(kept, udt)
	}
	tag.DeleteFrames("TXXX")
	for _, udt := range kept {
		tag.AddUserDefinedTextFrame(udt)
	}

	if title := tag.Title(); title != "" {
		if clean := SanitizeTitle(title); clean != title {
			r.log.Infow("sanitized title tag", "from", title, "to", clean)
			tag.SetTitle(clean)
		}
	}

	if year != "" {
		tag.DeleteFrames("TYER")
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, year)
	}

	if err := tag.Save(); err != nil {
		r.log.Warnw("could not save tag", "file", filepath.Base(path), "error", err)
		return nil
	}

	r.log.Debugw("sanitized tags", "file", filepath.Base(path))
	return nil
}

func junkTXXX(desc string) bool {
	desc = strings.ToLower(desc)
	for _, b := range dropTXXXDescs {
		if strings.Contains(desc, b) {
			return true
		}
	}
	return false
}

// findYear prefers an explicit date frame, then scans description and
// comment text for copyright/release phrases.
func findYear(tag *id3v2.Tag) string {
	var year string
	for _, id := range []string{"TDRC", "TYER"} {
		if text := tag.GetTextFrame(id).Text; len(text) >= 4 {
			year = text[:4]
		}
	}

	var search strings.Builder
	for _, f := range tag.GetFrames("TXXX") {
		udt, ok := f.(id3v2.UserDefinedTextFrame)
		if !ok || !strings.Contains(strings.ToLower(udt.Description), "description") {
			continue
		}
		search.WriteString(udt.Value)
		search.WriteString("\n")
	}
	for _, f := range tag.GetFrames("COMM") {
		if c, ok := f.(id3v2.CommentFrame); ok {
			search.WriteString(c.Text)
			search.WriteString("\n")
		}
	}
	if m := yearPattern.FindStringSubmatch(search.String()); m != nil {
		year = m[1]
	}

	return year
}
