// Tambur - browser-to-music downloader
// Finds YouTube links saved in your browser's tab groups and bookmarks
// and downloads them as audio through yt-dlp.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/kilimcininkoroglu/tambur/internal/browser"
	"github.com/kilimcininkoroglu/tambur/internal/config"
	"github.com/kilimcininkoroglu/tambur/internal/download"
	"github.com/kilimcininkoroglu/tambur/internal/engine"
	"github.com/kilimcininkoroglu/tambur/internal/logging"
	"github.com/kilimcininkoroglu/tambur/internal/metadata"
	"github.com/kilimcininkoroglu/tambur/internal/tui"
	"github.com/kilimcininkoroglu/tambur/internal/ui"
	"github.com/kilimcininkoroglu/tambur/internal/version"
)

// Exit codes
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitParseError    = 2
	ExitEngineMissing = 3
	ExitInterrupted   = 8
)

// CLIConfig holds CLI configuration
type CLIConfig struct {
	OutputDir     string
	ConfigFile    string
	Quality       string
	SkipFragments bool
	NoColor       bool
	Verbose       bool
	ShowVersion   bool
	ShowHelp      bool
	InitConfig    bool
}

func main() {
	cliConfig := parseFlags()

	if cliConfig.ShowVersion {
		fmt.Println(version.Full())
		os.Exit(ExitSuccess)
	}
	if cliConfig.ShowHelp {
		printUsage()
		os.Exit(ExitSuccess)
	}
	if cliConfig.InitConfig {
		os.Exit(initConfig())
	}

	os.Exit(run(cliConfig))
}

func parseFlags() CLIConfig {
	cfg := CLIConfig{}

	flag.StringVar(&cfg.OutputDir, "P", "", "Output directory")
	flag.StringVar(&cfg.OutputDir, "output-dir", "", "Output directory")
	flag.StringVar(&cfg.ConfigFile, "config", "", "Use custom config file")
	flag.StringVar(&cfg.Quality, "quality", "", "Preselect quality (1, 2 or 3)")
	flag.BoolVar(&cfg.SkipFragments, "skip-fragments", false, "Skip unavailable fragments instead of aborting")
	flag.BoolVar(&cfg.NoColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose output")
	flag.BoolVar(&cfg.Verbose, "verbose", false, "Verbose output")
	flag.BoolVar(&cfg.ShowVersion, "V", false, "Show version")
	flag.BoolVar(&cfg.ShowVersion, "version", false, "Show version")
	flag.BoolVar(&cfg.ShowHelp, "h", false, "Show help")
	flag.BoolVar(&cfg.ShowHelp, "help", false, "Show help")
	flag.BoolVar(&cfg.InitConfig, "init-config", false, "Generate default config file")

	flag.Usage = printUsage
	flag.Parse()

	return cfg
}

func run(cliCfg CLIConfig) int {
	cfg, err := loadConfig(cliCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return ExitParseError
	}

	logLevel := cfg.Logging.Level
	if cliCfg.Verbose {
		logLevel = "debug"
	}
	log, err := logging.New(logging.Options{
		Level:   logLevel,
		File:    cfg.Logging.File,
		NoColor: cliCfg.NoColor,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		return ExitGeneralError
	}
	defer log.Sync()

	binary := cfg.Engine.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	if _, err := exec.LookPath(binary); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s not found on PATH.\n", binary)
		fmt.Fprintln(os.Stderr, "Install it from https://github.com/yt-dlp/yt-dlp and try again.")
		return ExitEngineMissing
	}

	// Graceful shutdown on Ctrl+C
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, finishing up...")
		cancel()
	}()

	eng := engine.NewYtDlp(engine.Options{
		Binary:          binary,
		SocketTimeout:   cfg.Engine.SocketTimeout,
		Retries:         cfg.Engine.Retries,
		FragmentRetries: cfg.Engine.FragmentRetries,
	}, log)

	progressBar := ui.NewProgressBar(ui.WithNoColor(cliCfg.NoColor))
	orch := download.New(eng, metadata.NewID3Rewriter(log), log, func(p engine.Progress) {
		progressBar.Render(os.Stdout, p)
	})

	backends := []browser.Backend{
		browser.NewFirefox(log),
		browser.NewChrome(log),
	}

	fmt.Printf("%s\n\n", version.Short())

	code := menuLoop(ctx, cfg, cliCfg, backends, orch, eng, progressBar, log)
	if errors.Is(ctx.Err(), context.Canceled) {
		return ExitInterrupted
	}
	return code
}

// menuLoop walks browser -> profile -> group -> quality and runs the
// download, backing up one level whenever a menu is dismissed. It only
// returns when the top-level menu is dismissed or the context ends.
func menuLoop(ctx context.Context, cfg *config.Config, cliCfg CLIConfig, backends []browser.Backend, orch *download.Orchestrator, eng engine.Engine, progressBar *ui.ProgressBar, log *zap.SugaredLogger) int {
	for {
		if ctx.Err() != nil {
			return ExitInterrupted
		}

		backend, ok := pickBrowser(backends)
		if !ok {
			return ExitSuccess
		}

	profiles:
		for {
			profile, auto, ok := pickProfile(backend)
			if !ok {
				break
			}

			for {
				group, ok := pickGroup(backend, profile)
				if !ok {
					// With a single auto-picked profile there is no
					// profile menu to fall back to.
					if auto {
						break profiles
					}
					break
				}

				quality, settings, ok := pickQuality(cfg, cliCfg, eng)
				if !ok {
					continue
				}

				stats, err := orch.Run(ctx, group, quality, settings, cfg.General.DownloadDir)
				progressBar.Finish(os.Stdout)
				if err != nil {
					if ctx.Err() != nil {
						return ExitInterrupted
					}
					log.Errorw("run failed", "group", group.Name, "error", err)
					fmt.Fprintf(os.Stderr, "Error: %v\n", err)
					continue
				}
				progressBar.RenderSummary(os.Stdout, group.Name, stats)
				fmt.Println()
				break profiles
			}
		}
	}
}

func pickBrowser(backends []browser.Backend) (browser.Backend, bool) {
	items := make([]tui.Item, len(backends))
	for i, b := range backends {
		n := len(b.Profiles())
		items[i] = tui.Item{
			Key:   fmt.Sprintf("%d", i+1),
			Title: b.Name(),
			Desc:  fmt.Sprintf("%d profile(s) found", n),
		}
		if n == 0 {
			items[i].Disabled = true
			items[i].DisabledNote = "not installed"
			items[i].Desc = ""
		}
	}
	sel, err := tui.Pick("Which browser holds your music links?", items, nil)
	if err != nil || sel.Aborted {
		return nil, false
	}
	return backends[sel.Index], true
}

func pickProfile(backend browser.Backend) (profile browser.Profile, auto, ok bool) {
	profiles := backend.Profiles()
	if len(profiles) == 1 {
		return profiles[0], true, true
	}
	items := make([]tui.Item, len(profiles))
	for i, p := range profiles {
		items[i] = tui.Item{
			Title: p.Name,
			Desc:  "last used " + p.ModTime.Format("2006-01-02 15:04"),
		}
	}
	sel, err := tui.Pick(backend.Name()+" profiles", items, nil)
	if err != nil || sel.Aborted {
		return browser.Profile{}, false, false
	}
	return profiles[sel.Index], false, true
}

func pickGroup(backend browser.Backend, profile browser.Profile) (browser.Group, bool) {
	var groups browser.Groups
	sel, err := tui.PickAsync("Pick a group to download", "Reading browser state...", func() ([]tui.Item, error) {
		groups = backend.ExtractGroups(profile.Path)
		items := make([]tui.Item, len(groups))
		for i, g := range groups {
			items[i] = tui.Item{
				Title: g.Name,
				Desc:  fmt.Sprintf("%d video(s)", len(g.URLs)),
			}
		}
		return items, nil
	})
	if err != nil || sel.Aborted || len(groups) == 0 {
		return browser.Group{}, false
	}
	return groups[sel.Index], true
}

func pickQuality(cfg *config.Config, cliCfg CLIConfig, eng engine.Engine) (config.QualityProfile, download.Settings, bool) {
	// A preselected quality skips the menu unless it needs ffmpeg and
	// ffmpeg is missing; then the user picks a working one instead.
	if key := cfg.General.DefaultQuality; key != "" {
		if q, ok := config.QualityByKey(key); ok && (!q.Convert || eng.SupportsConversion()) {
			skip := cliCfg.SkipFragments || cfg.General.SkipFragments
			return q, download.Settings{SkipFragments: skip}, true
		}
	}

	qualities := config.Qualities()
	items := make([]tui.Item, len(qualities))
	for i, q := range qualities {
		items[i] = tui.Item{Key: q.Key, Title: q.Label, Desc: q.Desc}
		if q.Convert && !eng.SupportsConversion() {
			items[i].Disabled = true
			items[i].DisabledNote = "requires ffmpeg"
			items[i].Desc = ""
		}
	}

	toggle := &tui.Toggle{
		Key:   "s",
		Label: "Skip broken fragments (shorter file instead of a failed download)",
		On:    cliCfg.SkipFragments || cfg.General.SkipFragments,
	}

	sel, err := tui.Pick("Quality", items, toggle)
	if err != nil || sel.Aborted {
		return config.QualityProfile{}, download.Settings{}, false
	}
	return qualities[sel.Index], download.Settings{SkipFragments: sel.ToggleOn}, true
}

// loadConfig loads configuration from file and applies CLI overrides
func loadConfig(cliCfg CLIConfig) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cliCfg.ConfigFile != "" {
		cfg = config.DefaultConfig()
		if err = cfg.LoadFile(cliCfg.ConfigFile); err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if err != nil {
			return nil, err
		}
	}

	if cliCfg.OutputDir != "" {
		cfg.General.DownloadDir = cliCfg.OutputDir
	}
	if cliCfg.Quality != "" {
		if _, ok := config.QualityByKey(cliCfg.Quality); !ok {
			return nil, fmt.Errorf("unknown quality %q, valid keys are 1, 2, 3", cliCfg.Quality)
		}
		cfg.General.DefaultQuality = cliCfg.Quality
	}
	if cliCfg.SkipFragments {
		cfg.General.SkipFragments = true
	}

	return cfg, nil
}

// initConfig generates a default configuration file
func initConfig() int {
	configPath, err := config.GetDefaultConfigPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Cannot determine config path: %v\n", err)
		return ExitGeneralError
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(os.Stderr, "Config file already exists: %s\n", configPath)
		fmt.Fprintf(os.Stderr, "Use --config to specify a different file.\n")
		return ExitGeneralError
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to save config: %v\n", err)
		return ExitGeneralError
	}

	fmt.Printf("Created default config file: %s\n", configPath)
	fmt.Println("\nYou can customize your settings there.")
	return ExitSuccess
}

func printUsage() {
	fmt.Printf(`%s

Usage:
  tambur [OPTIONS]

Tambur reads the tab groups and bookmark folders of your browser,
finds the YouTube links saved in them, and downloads each group as
audio files through yt-dlp. All choices are made interactively.

Options:
  -P, --output-dir DIR   Save music under DIR (default: ~/Music/tambur)
      --quality KEY      Preselect quality: 1 (best MP3), 2 (standard MP3), 3 (original)
      --skip-fragments   Skip unavailable fragments instead of aborting
      --config FILE      Use custom config file
      --init-config      Generate default config file
      --no-color         Disable colored output
  -v, --verbose          Verbose output
  -h, --help             Show this help message
  -V, --version          Show version information

Exit Codes:
  0  Success
  1  General error
  2  Parse/config error
  3  yt-dlp not found
  8  Interrupted (Ctrl+C)

Requires yt-dlp on PATH. ffmpeg is optional but needed for MP3
conversion; without it only the original audio stream is saved.
`, version.Full())
}
