// Package engine wraps the external yt-dlp binary behind a narrow
// contract: probe a URL for metadata, download it, and report whether
// on-disk conversion is available.
package engine

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by the adapter. The orchestrator keys its
// retry policy off these, so classification stays inside this package.
var (
	// ErrForbidden marks a hard 403 response. Downstream treats it as
	// a poisoned credential strategy, not a per-URL failure.
	ErrForbidden = errors.New("remote host returned forbidden")

	// ErrFormatUnavailable marks "requested format is not available",
	// yt-dlp's message when the player client got a degraded response.
	ErrFormatUnavailable = errors.New("requested format unavailable")

	// ErrCredentialAccess marks a failure to read browser cookies,
	// typically a locked or encrypted cookie store.
	ErrCredentialAccess = errors.New("credential source unreadable")
)

// FormatSpec describes what the engine should fetch and whether it
// should convert the result afterwards.
type FormatSpec struct {
	Selector     string
	ExtractAudio bool
	Codec        string
	Bitrate      string
}

// Request carries everything one probe or download attempt needs.
type Request struct {
	URL              string
	CredentialSource string // "", "firefox" or "chrome"
	PlayerClients    []string
	Format           FormatSpec
	OutputDir        string
	SkipFragments    bool
}

// Metadata is the probe result. HasMedia reports whether at least one
// real audio or video format was offered; storyboard-only responses
// leave it false.
type Metadata struct {
	ID       string
	Title    string
	HasMedia bool
}

// Result is a successful download.
type Result struct {
	FilePath string
}

// Progress is one parsed progress update from the engine's output.
type Progress struct {
	Percent  float64
	Speed    string
	ETA      string
	Filename string
}

// ProgressFunc receives progress updates during a download. May be nil.
type ProgressFunc func(Progress)

// Engine is the contract the download orchestrator programs against.
type Engine interface {
	Probe(ctx context.Context, req Request, mon *HealthMonitor) (*Metadata, error)
	Download(ctx context.Context, req Request, mon *HealthMonitor, progress ProgressFunc) (*Result, error)
	SupportsConversion() bool
}

// Options configures the yt-dlp adapter.
type Options struct {
	Binary          string
	SocketTimeout   time.Duration
	Retries         int
	FragmentRetries int
}

// BuildFormat picks the format selector for one attempt. Cookie-backed
// sessions are offered more container variants than anonymous ones, and
// conversion is only requested when ffmpeg is actually present.
func BuildFormat(convert bool, codec, bitrate string, useCookies, hasFFmpeg bool) FormatSpec {
	if !hasFFmpeg {
		if useCookies {
			return FormatSpec{Selector: "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best"}
		}
		return FormatSpec{Selector: "bestaudio[ext=m4a]/bestaudio/best"}
	}
	if convert {
		sel := "bestaudio/bestvideo+bestaudio/best"
		if useCookies {
			sel = "bestaudio/bestvideo+bestaudio/bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best"
		}
		return FormatSpec{Selector: sel, ExtractAudio: true, Codec: codec, Bitrate: bitrate}
	}
	if useCookies {
		return FormatSpec{Selector: "bestaudio[ext=m4a]/bestaudio[ext=webm]/bestaudio/best"}
	}
	return FormatSpec{Selector: "bestaudio[ext=m4a]/bestaudio/best"}
}
