package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/vicoolz/palimpseste/internal/storage"
)

// Config is the client configuration.
type Config struct {
	SupabaseURL string
	SupabaseKey string
	StateDir    string
	Storage     storage.Kind
	Persist     bool
	Theme       string
	FeedURL     string

	SessionTimeout   time.Duration
	SessionPoll      time.Duration
	ConnectivityPoll time.Duration
}

const (
	defaultConfigPath = "~/.config/palimpseste/config.toml"
	defaultStateDir   = "~/.local/share/palimpseste"

	defaultSessionTimeout   = 5 * time.Second
	defaultSessionPoll      = 100 * time.Millisecond
	defaultConnectivityPoll = 30 * time.Second
)

// fileConfig mirrors config.toml.
type fileConfig struct {
	SupabaseURL        string `toml:"supabase_url"`
	SupabaseKey        string `toml:"supabase_key"`
	StateDir           string `toml:"state_dir"`
	Storage            string `toml:"storage"`
	Persist            *bool  `toml:"persist"`
	Theme              string `toml:"theme"`
	SessionTimeoutMS   int    `toml:"session_timeout_ms"`
	SessionPollMS      int    `toml:"session_poll_ms"`
	FeedURL            string `toml:"feed_url"`
	ConnectivityPollMS int    `toml:"connectivity_poll_ms"`
}

// envOverrides are applied after the file.
type envOverrides struct {
	SupabaseURL string `env:"PALIMPSESTE_SUPABASE_URL"`
	SupabaseKey string `env:"PALIMPSESTE_SUPABASE_KEY"`
	StateDir    string `env:"PALIMPSESTE_STATE_DIR"`
	Storage     string `env:"PALIMPSESTE_STORAGE"`
	FeedURL     string `env:"PALIMPSESTE_FEED_URL"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		StateDir:         mustExpand(defaultStateDir),
		Storage:          storage.KindFile,
		Persist:          true,
		SessionTimeout:   defaultSessionTimeout,
		SessionPoll:      defaultSessionPoll,
		ConnectivityPoll: defaultConnectivityPoll,
	}
}

// Load reads the config at path (the default location when empty), falling
// back to defaults when the file is missing, then applies environment
// overrides.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	raw, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	apply(&cfg, raw)

	var over envOverrides
	if err := env.Parse(&over); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	applyEnv(&cfg, over)

	cfg.StateDir = mustExpand(cfg.StateDir)
	switch cfg.Storage {
	case storage.KindFile, storage.KindSQLite, storage.KindMemory:
	default:
		return Config{}, fmt.Errorf("unknown storage %q (want file, sqlite or memory)", cfg.Storage)
	}
	return cfg, nil
}

// LogPath is the JSON log written during interactive runs.
func (c Config) LogPath() string {
	return filepath.Join(c.StateDir, "palimpseste.log")
}

// SessionConfigured reports whether an auth provider is set.
func (c Config) SessionConfigured() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

func readFile(path string) (fileConfig, error) {
	var raw fileConfig
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

func apply(cfg *Config, raw fileConfig) {
	setString(&cfg.SupabaseURL, raw.SupabaseURL)
	setString(&cfg.SupabaseKey, raw.SupabaseKey)
	setString(&cfg.StateDir, raw.StateDir)
	setString(&cfg.Theme, raw.Theme)
	setString(&cfg.FeedURL, raw.FeedURL)
	if s := strings.ToLower(strings.TrimSpace(raw.Storage)); s != "" {
		cfg.Storage = storage.Kind(s)
	}
	if raw.Persist != nil {
		cfg.Persist = *raw.Persist
	}
	setMillis(&cfg.SessionTimeout, raw.SessionTimeoutMS)
	setMillis(&cfg.SessionPoll, raw.SessionPollMS)
	setMillis(&cfg.ConnectivityPoll, raw.ConnectivityPollMS)
}

func applyEnv(cfg *Config, over envOverrides) {
	setString(&cfg.SupabaseURL, over.SupabaseURL)
	setString(&cfg.SupabaseKey, over.SupabaseKey)
	setString(&cfg.StateDir, over.StateDir)
	setString(&cfg.FeedURL, over.FeedURL)
	if s := strings.ToLower(strings.TrimSpace(over.Storage)); s != "" {
		cfg.Storage = storage.Kind(s)
	}
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setMillis(dst *time.Duration, ms int) {
	if ms > 0 {
		*dst = time.Duration(ms) * time.Millisecond
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return storage.ExpandPath(defaultConfigPath)
	}
	return storage.ExpandPath(path)
}

func mustExpand(path string) string {
	expanded, err := storage.ExpandPath(path)
	if err != nil {
		return path
	}
	return expanded
}
