// Package config provides configuration management for Tambur.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Tambur configuration
type Config struct {
	General GeneralConfig `yaml:"general"`
	Engine  EngineConfig  `yaml:"engine"`
	Logging LoggingConfig `yaml:"logging"`
}

// GeneralConfig holds general download settings
type GeneralConfig struct {
	DownloadDir    string `yaml:"download_dir"`
	DefaultQuality string `yaml:"default_quality"` // quality key ("1".."3") or empty
	SkipFragments  bool   `yaml:"skip_fragments"`
}

// EngineConfig holds settings passed through to the external download engine
type EngineConfig struct {
	Binary          string        `yaml:"binary"` // path to yt-dlp, empty means PATH lookup
	SocketTimeout   time.Duration `yaml:"socket_timeout"`
	Retries         int           `yaml:"retries"`
	FragmentRetries int           `yaml:"fragment_retries"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`
}

// QualityProfile describes one entry of the fixed quality catalog
type QualityProfile struct {
	Key     string
	Label   string
	Desc    string
	Codec   string // target codec when Convert is true
	Bitrate string // advisory target bitrate label
	Convert bool
}

// Qualities is the fixed quality catalog, in menu order.
func Qualities() []QualityProfile {
	return []QualityProfile{
		{
			Key:     "1",
			Label:   "Best MP3 (up to 320kbps)",
			Desc:    "Maximum MP3 quality. Universal compatibility.",
			Codec:   "mp3",
			Bitrate: "320",
			Convert: true,
		},
		{
			Key:     "2",
			Label:   "Standard MP3 (192kbps)",
			Desc:    "Smaller file size, good enough for most uses.",
			Codec:   "mp3",
			Bitrate: "192",
			Convert: true,
		},
		{
			Key:     "3",
			Label:   "Original Audio (M4A/WebM)",
			Desc:    "Best audio quality (source). No conversion time.",
			Convert: false,
		},
	}
}

// QualityByKey looks up a catalog entry by its menu key.
func QualityByKey(key string) (QualityProfile, bool) {
	for _, q := range Qualities() {
		if q.Key == key {
			return q, true
		}
	}
	return QualityProfile{}, false
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	downloadDir := "downloads"
	if home, err := os.UserHomeDir(); err == nil {
		downloadDir = filepath.Join(home, "Music", "tambur")
	}

	return &Config{
		General: GeneralConfig{
			DownloadDir:    downloadDir,
			DefaultQuality: "",
			SkipFragments:  false,
		},
		Engine: EngineConfig{
			Binary:          "",
			SocketTimeout:   30 * time.Second,
			Retries:         15,
			FragmentRetries: 15,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  defaultLogPath(),
		},
	}
}

// ConfigPaths returns the list of candidate config file locations
func ConfigPaths() []string {
	paths := make([]string, 0, 6)

	// 1. Environment variable
	if envPath := os.Getenv("TAMBUR_CONFIG"); envPath != "" {
		paths = append(paths, envPath)
	}

	// 2. Current directory
	paths = append(paths, ".tambur.yaml")
	paths = append(paths, ".tambur.yml")

	// 3. User config directory (XDG on Linux, AppData on Windows)
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "tambur", "config.yaml"))
		paths = append(paths, filepath.Join(configDir, "tambur", "config.yml"))
	}

	// 4. Home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".tamburrc"))
	}

	// 5. System-wide (Unix only)
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/tambur/config.yaml")
	}

	return paths
}

// Load loads configuration from the first available config file
func Load() (*Config, error) {
	config := DefaultConfig()

	for _, path := range ConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := config.LoadFile(path); err != nil {
				return nil, fmt.Errorf("loading config from %s: %w", path, err)
			}
			return config, nil
		}
	}

	// No config file found, return defaults
	return config, nil
}

// LoadFile loads configuration from a specific file
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	c.normalize()
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default path for saving user config
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "tambur", "config.yaml"), nil
}

// normalize drops invalid values back to their defaults. A bad value in the
// config file should degrade, not fail the run.
func (c *Config) normalize() {
	if c.General.DefaultQuality != "" {
		if _, ok := QualityByKey(c.General.DefaultQuality); !ok {
			c.General.DefaultQuality = ""
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		c.Logging.Level = "info"
	}
	if c.Engine.SocketTimeout <= 0 {
		c.Engine.SocketTimeout = 30 * time.Second
	}
	if c.Engine.Retries <= 0 {
		c.Engine.Retries = 15
	}
	if c.Engine.FragmentRetries <= 0 {
		c.Engine.FragmentRetries = 15
	}
}

func defaultLogPath() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "tambur", "logs", "tambur.log")
	}
	return filepath.Join("logs", "tambur.log")
}
