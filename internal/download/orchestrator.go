// Package download drives one group of URLs through the engine,
// escalating across credential sources and player-client profiles
// until every URL has either succeeded or been given up on.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kilimcininkoroglu/tambur/internal/browser"
	"github.com/kilimcininkoroglu/tambur/internal/config"
	"github.com/kilimcininkoroglu/tambur/internal/engine"
	"github.com/kilimcininkoroglu/tambur/internal/metadata"
	"github.com/kilimcininkoroglu/tambur/internal/storage"
)

// credentialSources is the escalation order. The empty source means
// anonymous, no cookies at all.
var credentialSources = []string{"", "firefox", "chrome"}

// anonymousClients is the single profile used without cookies.
// Cookie-backed sources walk cookieClientProfiles in order instead.
var (
	anonymousClients     = []string{"default", "-web_safari"}
	cookieClientProfiles = [][]string{
		{"tv", "web"},
		{"web"},
		{"ios"},
	}
)

// Settings are the per-run toggles the caller picks interactively.
type Settings struct {
	SkipFragments bool
}

// Stats summarizes one finished run.
type Stats struct {
	RunID            string
	Total            int
	Succeeded        int
	NewFiles         int
	SkippedFragments int
	Warnings         int
}

type outcomeKind int

const (
	outcomeOK outcomeKind = iota
	outcomeSkipURL
	outcomeNextClient
	outcomeNextSource
)

type outcome struct {
	kind     outcomeKind
	filePath string
	reason   string
	hint     string
}

// Orchestrator owns the retry policy. The engine does the work; the
// orchestrator only decides what to try next.
type Orchestrator struct {
	engine   engine.Engine
	tags     metadata.TagRewriter
	log      *zap.SugaredLogger
	progress engine.ProgressFunc
}

// New builds an orchestrator. progress may be nil.
func New(eng engine.Engine, tags metadata.TagRewriter, log *zap.SugaredLogger, progress engine.ProgressFunc) *Orchestrator {
	return &Orchestrator{engine: eng, tags: tags, log: log, progress: progress}
}

func displaySource(source string) string {
	if source == "" {
		return "anonymous (no cookies)"
	}
	return source + " cookies"
}

// Run downloads every URL in the group into a subdirectory of baseDir
// named after the group. Already-succeeded URLs are never retried; a
// run only ends early when the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context, group browser.Group, quality config.QualityProfile, settings Settings, baseDir string) (Stats, error) {
	stats := Stats{RunID: uuid.NewString(), Total: len(group.URLs)}

	dir, err := storage.GroupDir(baseDir, group.Name)
	if err != nil {
		return stats, fmt.Errorf("preparing group directory: %w", err)
	}
	before := storage.Snapshot(dir)

	mon := engine.NewHealthMonitor()
	succeeded := make(map[string]bool, len(group.URLs))
	var produced []string

	remaining := func() []string {
		var out []string
		for _, u := range group.URLs {
			if !succeeded[u] {
				out = append(out, u)
			}
		}
		return out
	}

	o.log.Infow("starting group",
		"run_id", stats.RunID,
		"group", group.Name,
		"urls", len(group.URLs),
		"quality", quality.Label,
		"dir", dir)

sources:
	for _, source := range credentialSources {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		pending := remaining()
		if len(pending) == 0 {
			break
		}
		useCookies := source != ""
		profiles := [][]string{anonymousClients}
		if useCookies {
			profiles = cookieClientProfiles
		}
		o.log.Infow("trying credential strategy",
			"run_id", stats.RunID,
			"source", displaySource(source),
			"pending", len(pending))

		format := engine.BuildFormat(quality.Convert, quality.Codec, quality.Bitrate, useCookies, o.engine.SupportsConversion())

		for idx := 0; idx < len(profiles); idx++ {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			pending = remaining()
			if len(pending) == 0 {
				break sources
			}
			clients := profiles[idx]
			moreClients := idx < len(profiles)-1
			mon.Reset()

			passHadSuccess := false
			abandonSource := false
			for _, url := range pending {
				if ctx.Err() != nil {
					return stats, ctx.Err()
				}
				req := engine.Request{
					URL:              url,
					CredentialSource: source,
					PlayerClients:    clients,
					Format:           format,
					OutputDir:        dir,
					SkipFragments:    settings.SkipFragments,
				}
				out := o.attempt(ctx, req, mon, moreClients)
				switch out.kind {
				case outcomeOK:
					succeeded[url] = true
					produced = append(produced, out.filePath)
					passHadSuccess = true
					o.log.Infow("downloaded", "run_id", stats.RunID, "url", url, "file", filepath.Base(out.filePath))
				case outcomeSkipURL:
					o.log.Warnw("skipping url", "run_id", stats.RunID, "url", url, "reason", out.reason)
				case outcomeNextClient:
					o.log.Warnw("switching player clients",
						"run_id", stats.RunID, "url", url, "reason", out.reason)
				case outcomeNextSource:
					o.log.Warnw("abandoning credential strategy",
						"run_id", stats.RunID,
						"source", displaySource(source),
						"url", url,
						"reason", out.reason)
					if out.hint != "" {
						o.log.Infow(out.hint)
					}
					abandonSource = true
				}
				if out.kind == outcomeNextClient || out.kind == outcomeNextSource {
					break
				}
			}

			if abandonSource {
				continue sources
			}
			if passHadSuccess {
				// This strategy works; anything still pending failed
				// on its own merits, not the strategy's.
				break sources
			}
		}
	}

	o.postProcess(dir, produced, stats.RunID)

	after := storage.Snapshot(dir)
	stats.Succeeded = len(succeeded)
	stats.NewFiles = storage.CountNew(before, after)
	stats.SkippedFragments = mon.Skipped()
	stats.Warnings = mon.Warnings()

	o.log.Infow("group finished",
		"run_id", stats.RunID,
		"group", group.Name,
		"succeeded", stats.Succeeded,
		"total", stats.Total,
		"new_files", stats.NewFiles,
		"skipped_fragments", stats.SkippedFragments)
	return stats, nil
}

// attempt probes then downloads one URL and maps the result onto the
// retry policy's vocabulary.
func (o *Orchestrator) attempt(ctx context.Context, req engine.Request, mon *engine.HealthMonitor, moreClients bool) outcome {
	meta, err := o.engine.Probe(ctx, req, mon)
	switch {
	case err == nil:
		if !meta.HasMedia {
			if mon.Degraded() {
				if moreClients {
					return outcome{kind: outcomeNextClient, reason: "degraded response, no real formats"}
				}
				return outcome{
					kind:   outcomeNextSource,
					reason: "degraded response, no real formats",
					hint:   "hint: install a javascript runtime (deno) or update yt-dlp",
				}
			}
			return outcome{
				kind:   outcomeNextSource,
				reason: "no playable formats offered",
				hint:   "hint: content may require a signed-in session",
			}
		}
	case errors.Is(err, engine.ErrForbidden):
		return o.forbiddenOutcome(err)
	case errors.Is(err, engine.ErrCredentialAccess):
		return o.credentialOutcome(req.CredentialSource, err)
	default:
		// Probe failures are advisory; the download path classifies
		// its own errors with better context.
		o.log.Debugw("probe failed, attempting download anyway", "url", req.URL, "error", err)
	}

	res, err := o.engine.Download(ctx, req, mon, o.progress)
	if err == nil {
		return outcome{kind: outcomeOK, filePath: res.FilePath}
	}

	switch {
	case errors.Is(err, engine.ErrForbidden):
		return o.forbiddenOutcome(err)
	case errors.Is(err, engine.ErrFormatUnavailable):
		if mon.Degraded() {
			if moreClients {
				return outcome{kind: outcomeNextClient, reason: err.Error()}
			}
			return outcome{
				kind:   outcomeNextSource,
				reason: err.Error(),
				hint:   "hint: install a javascript runtime (deno) or update yt-dlp",
			}
		}
		return outcome{
			kind:   outcomeNextSource,
			reason: err.Error(),
			hint:   "hint: the session may be soft-banned, try different credentials or update yt-dlp",
		}
	case errors.Is(err, engine.ErrCredentialAccess):
		return o.credentialOutcome(req.CredentialSource, err)
	case errors.Is(err, os.ErrPermission):
		return outcome{kind: outcomeSkipURL, reason: "destination file is locked: " + err.Error()}
	default:
		return outcome{kind: outcomeSkipURL, reason: err.Error()}
	}
}

func (o *Orchestrator) forbiddenOutcome(err error) outcome {
	return outcome{
		kind:   outcomeNextSource,
		reason: err.Error(),
		hint:   "hint: the connection was blocked (403), a different credential source may get through",
	}
}

func (o *Orchestrator) credentialOutcome(source string, err error) outcome {
	hint := "hint: credential source could not be read"
	if source == "chrome" {
		hint = "hint: close Chrome completely and retry, its cookie database is locked while running"
	}
	return outcome{kind: outcomeNextSource, reason: err.Error(), hint: hint}
}

// postProcess cleans up every produced file once the retry loops are
// done: sanitize the filename, then rewrite the ID3 tag.
func (o *Orchestrator) postProcess(dir string, produced []string, runID string) {
	for i, path := range produced {
		if _, err := os.Stat(path); err != nil {
			o.log.Debugw("produced file vanished before post-processing", "run_id", runID, "file", path)
			continue
		}
		base := filepath.Base(path)
		ext := filepath.Ext(base)
		stem := strings.TrimSuffix(base, ext)
		clean := metadata.SanitizeTitle(stem)
		if clean != "" && clean != stem {
			renamed, err := storage.SafeRename(path, dir, clean, ext, i)
			if err != nil {
				o.log.Errorw("rename failed", "run_id", runID, "file", base, "error", err)
			} else {
				path = renamed
			}
		}
		if err := o.tags.Rewrite(path); err != nil {
			o.log.Errorw("tag rewrite failed", "run_id", runID, "file", filepath.Base(path), "error", err)
		}
		if sum, err := storage.Digest(path); err == nil {
			o.log.Debugw("finalized", "run_id", runID, "file", filepath.Base(path), "blake3", sum[:16])
		}
	}
}
