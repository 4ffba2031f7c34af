// Package config loads the optional TOML settings file and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	EnvConfig   = "OMCC_STATUSLINE_CONFIG"
	EnvCacheDir = "OMCC_STATUSLINE_CACHE_DIR"
	EnvTheme    = "OMCC_STATUSLINE_THEME"
	EnvDebug    = "OMCC_STATUSLINE_DEBUG"

	DefaultCacheDir = "/tmp/omcc-statusline"
)

type Config struct {
	CacheDir  string   `toml:"cache_dir"`
	ThemeFile string   `toml:"theme_file"`
	Timeouts  Timeouts `toml:"timeouts"`
	TTL       TTL      `toml:"ttl"`
	Usage     Usage    `toml:"usage"`
	Reviews   Reviews  `toml:"reviews"`
	Debug     bool     `toml:"debug"`
}

type Timeouts struct {
	Stdin Duration `toml:"stdin"`
	Git   Duration `toml:"git"`
	GH    Duration `toml:"gh"`
	Usage Duration `toml:"usage"`
}

type TTL struct {
	Reviews      Duration `toml:"reviews"`
	CI           Duration `toml:"ci"`
	Availability Duration `toml:"availability"`
}

type Usage struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

type Reviews struct {
	FetchLimit int `toml:"fetch_limit"`
}

// Duration reads TOML strings such as "15s" or "5m".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	if parsed <= 0 {
		return fmt.Errorf("duration %q must be positive", text)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() *Config {
	return &Config{
		CacheDir:  DefaultCacheDir,
		ThemeFile: filepath.Join(configHome(), "omcc-statusline", "theme.json"),
		Timeouts: Timeouts{
			Stdin: Duration{time.Second},
			Git:   Duration{3 * time.Second},
			GH:    Duration{15 * time.Second},
			Usage: Duration{30 * time.Second},
		},
		TTL: TTL{
			Reviews:      Duration{5 * time.Minute},
			CI:           Duration{2 * time.Minute},
			Availability: Duration{30 * time.Minute},
		},
		Usage: Usage{
			Command: "bun",
			Args:    []string{"x", "ccusage", "statusline", "--visual-burn-rate", "text", "--refresh-interval", "60"},
		},
		Reviews: Reviews{FetchLimit: 20},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.CacheDir = ExpandPath(strings.TrimSpace(cfg.CacheDir))
	cfg.ThemeFile = ExpandPath(strings.TrimSpace(cfg.ThemeFile))
	if cfg.CacheDir == "" {
		cfg.CacheDir = Default().CacheDir
	}
	if strings.TrimSpace(cfg.Usage.Command) == "" {
		cfg.Usage = Default().Usage
	}
	if cfg.Reviews.FetchLimit <= 0 {
		cfg.Reviews.FetchLimit = Default().Reviews.FetchLimit
	}
	return cfg, nil
}

// FromEnv loads the file named by OMCC_STATUSLINE_CONFIG, or the default
// path, and applies the remaining environment overrides.
func FromEnv() (*Config, error) {
	path := strings.TrimSpace(os.Getenv(EnvConfig))
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg, err := Load(ExpandPath(path))
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		cfg.CacheDir = ExpandPath(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTheme)); v != "" {
		cfg.ThemeFile = ExpandPath(v)
	}
	if EnvFlagEnabled(EnvDebug) {
		cfg.Debug = true
	}
	return cfg, nil
}

func EnvFlagEnabled(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}

func DefaultConfigPath() string {
	return filepath.Join(configHome(), "omcc-statusline", "config.toml")
}

func configHome() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(os.TempDir(), ".config")
	}
	return filepath.Join(home, ".config")
}
