package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// YtDlp shells out to the yt-dlp binary. It owns argument construction,
// output parsing and error classification; callers only see the Engine
// contract.
type YtDlp struct {
	opts      Options
	log       *zap.SugaredLogger
	hasFFmpeg bool
	denoPath  string // set only when deno lives outside PATH
}

// NewYtDlp builds the adapter and probes the host for optional helper
// binaries once up front.
func NewYtDlp(opts Options, log *zap.SugaredLogger) *YtDlp {
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	if opts.SocketTimeout <= 0 {
		opts.SocketTimeout = 30 * time.Second
	}
	y := &YtDlp{opts: opts, log: log}
	if _, err := exec.LookPath("ffmpeg"); err == nil {
		y.hasFFmpeg = true
	} else {
		log.Warnw("ffmpeg not found, conversion disabled")
	}
	if _, err := exec.LookPath("deno"); err == nil {
		log.Debugw("deno found on PATH, used for signature solving")
	} else if p := homeDenoPath(); p != "" {
		y.denoPath = p
		log.Debugw("using deno from its default install location", "path", p)
	} else {
		log.Debugw("deno not found, player challenges may fail on some clients")
	}
	return y
}

// homeDenoPath checks the installer's default location for hosts where
// deno exists but was never added to PATH.
func homeDenoPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	name := "deno"
	if runtime.GOOS == "windows" {
		name = "deno.exe"
	}
	p := filepath.Join(home, ".deno", "bin", name)
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		return p
	}
	return ""
}

// SupportsConversion reports whether ffmpeg was found on the host.
func (y *YtDlp) SupportsConversion() bool { return y.hasFFmpeg }

func (y *YtDlp) commonArgs(req Request) []string {
	args := []string{
		"--no-playlist",
		"--socket-timeout", strconv.Itoa(int(y.opts.SocketTimeout.Seconds())),
	}
	if len(req.PlayerClients) > 0 {
		args = append(args, "--extractor-args",
			"youtube:player_client="+strings.Join(req.PlayerClients, ","))
	}
	if req.CredentialSource != "" {
		args = append(args, "--cookies-from-browser", req.CredentialSource)
	}
	if y.denoPath != "" {
		args = append(args, "--js-runtimes", "deno@"+y.denoPath)
	}
	return args
}

func (y *YtDlp) probeArgs(req Request) []string {
	args := []string{"--simulate", "-J"}
	args = append(args, y.commonArgs(req)...)
	return append(args, req.URL)
}

func (y *YtDlp) downloadArgs(req Request) []string {
	// The output dir must be absolute so the printed after_move filepath
	// is too; a relative template would make yt-dlp echo a relative path.
	outDir := req.OutputDir
	if abs, err := filepath.Abs(outDir); err == nil {
		outDir = abs
	}
	args := []string{
		"--newline",
		"--no-part",
		"--windows-filenames",
		"--force-overwrites",
		"--retries", strconv.Itoa(y.opts.Retries),
		"--fragment-retries", strconv.Itoa(y.opts.FragmentRetries),
		"-o", filepath.Join(outDir, "%(title)s.%(ext)s"),
		"--print", "after_move:filepath",
		"--no-simulate",
	}
	if req.SkipFragments {
		args = append(args, "--skip-unavailable-fragments")
	} else {
		args = append(args, "--abort-on-unavailable-fragment")
	}
	args = append(args, y.commonArgs(req)...)
	if req.Format.Selector != "" {
		args = append(args, "-f", req.Format.Selector)
	}
	if req.Format.ExtractAudio {
		args = append(args, "-x", "--audio-format", req.Format.Codec)
		if req.Format.Bitrate != "" {
			args = append(args, "--audio-quality", req.Format.Bitrate)
		}
	}
	if y.hasFFmpeg {
		args = append(args,
			"--embed-thumbnail", "--embed-metadata",
			"--sponsorblock-remove", "sponsor,selfpromo,interaction,intro,outro,music_offtopic")
	}
	return append(args, req.URL)
}

type probeFormat struct {
	FormatID string `json:"format_id"`
	ACodec   string `json:"acodec"`
	VCodec   string `json:"vcodec"`
}

type probeInfo struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Formats []probeFormat `json:"formats"`
}

func hasRealMedia(formats []probeFormat) bool {
	for _, f := range formats {
		if strings.HasPrefix(f.FormatID, "sb") {
			continue
		}
		if (f.ACodec != "" && f.ACodec != "none") || (f.VCodec != "" && f.VCodec != "none") {
			return true
		}
	}
	return false
}

// Probe asks the engine for metadata without downloading anything.
func (y *YtDlp) Probe(ctx context.Context, req Request, mon *HealthMonitor) (*Metadata, error) {
	cmd := exec.CommandContext(ctx, y.opts.Binary, y.probeArgs(req)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	feedMonitor(mon, stderr.String())
	if err != nil {
		return nil, y.classify(stderr.String(), mon)
	}

	var info probeInfo
	if jerr := json.Unmarshal(stdout.Bytes(), &info); jerr != nil {
		return nil, fmt.Errorf("parsing probe output: %w", jerr)
	}
	return &Metadata{
		ID:       info.ID,
		Title:    info.Title,
		HasMedia: hasRealMedia(info.Formats),
	}, nil
}

var progressPattern = regexp.MustCompile(
	`\[download\]\s+([0-9.]+)%(?:\s+of\s+~?\S+)?(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)

var destinationPattern = regexp.MustCompile(`\[download\]\s+Destination:\s+(.+)$`)

func parseProgressLine(line, filename string) (Progress, bool) {
	m := progressPattern.FindStringSubmatch(line)
	if m == nil {
		return Progress{}, false
	}
	pct, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Progress{}, false
	}
	return Progress{Percent: pct, Speed: m[2], ETA: m[3], Filename: filename}, true
}

// Download runs one download attempt. The engine's stderr is routed
// into the monitor as it arrives; a latched 403 cancels the attempt
// instead of letting it grind on.
func (y *YtDlp) Download(ctx context.Context, req Request, mon *HealthMonitor, progress ProgressFunc) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, y.opts.Binary, y.downloadArgs(req)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching stdout: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("attaching stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", y.opts.Binary, err)
	}

	var stderrTail strings.Builder
	stderrDone := make(chan struct{})
	go func() {
		defer close(stderrDone)
		sc := bufio.NewScanner(stderrPipe)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Text()
			routeLine(mon, line)
			stderrTail.WriteString(line)
			stderrTail.WriteByte('\n')
			if mon.FatalForbidden() {
				cancel()
			}
		}
	}()

	var produced, filename string
	sc := bufio.NewScanner(stdout)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if m := destinationPattern.FindStringSubmatch(line); m != nil {
			filename = filepath.Base(strings.TrimSpace(m[1]))
			continue
		}
		if p, ok := parseProgressLine(line, filename); ok {
			if progress != nil {
				progress(p)
			}
			continue
		}
		if !strings.HasPrefix(line, "[") && filepath.IsAbs(strings.TrimSpace(line)) {
			produced = strings.TrimSpace(line)
		}
	}

	<-stderrDone
	if err := cmd.Wait(); err != nil {
		return nil, y.classify(stderrTail.String(), mon)
	}
	if produced == "" {
		return nil, fmt.Errorf("engine reported success but printed no output path")
	}
	return &Result{FilePath: produced}, nil
}

// routeLine dispatches one engine stderr line to the monitor by level.
func routeLine(mon *HealthMonitor, line string) {
	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, "ERROR"):
		mon.Error(trimmed)
	case strings.HasPrefix(trimmed, "WARNING"):
		mon.Warning(trimmed)
	default:
		mon.Debug(trimmed)
	}
}

func feedMonitor(mon *HealthMonitor, output string) {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		routeLine(mon, line)
	}
}

// classify maps raw engine output onto the sentinel errors the
// orchestrator's retry policy understands.
func (y *YtDlp) classify(stderr string, mon *HealthMonitor) error {
	lower := strings.ToLower(stderr)
	first := firstErrorLine(stderr)
	switch {
	case mon.FatalForbidden(), strings.Contains(stderr, "403"), strings.Contains(lower, "forbidden"):
		return fmt.Errorf("%w: %s", ErrForbidden, first)
	case strings.Contains(lower, "requested format is not available"):
		return fmt.Errorf("%w: %s", ErrFormatUnavailable, first)
	case strings.Contains(lower, "could not copy") && strings.Contains(lower, "cookie"),
		strings.Contains(lower, "failed to decrypt"),
		strings.Contains(lower, "database is locked"),
		strings.Contains(lower, "could not find") && strings.Contains(lower, "cookies"):
		return fmt.Errorf("%w: %s", ErrCredentialAccess, first)
	case first == "":
		return fmt.Errorf("%s exited with an error", y.opts.Binary)
	default:
		return fmt.Errorf("%s: %s", y.opts.Binary, first)
	}
}

func firstErrorLine(stderr string) string {
	var fallback string
	for _, line := range strings.Split(stderr, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "ERROR") {
			return trimmed
		}
		if fallback == "" {
			fallback = trimmed
		}
	}
	return fallback
}
