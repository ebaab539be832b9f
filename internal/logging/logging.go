// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel   = "PALIMPSESTE_LOG_LEVEL"
	EnvLogNoColor = "PALIMPSESTE_LOG_NOCOLOR"
	EnvLogFile    = "PALIMPSESTE_LOG_FILE"
)

type Profile int

const (
	// ProfileCLI writes human-readable lines to stderr.
	ProfileCLI Profile = iota
	// ProfileTUI writes JSON lines to a file so the terminal stays clean.
	ProfileTUI
	// ProfileTest writes debug output to stderr without timestamps.
	ProfileTest
)

// Config is the resolved logging setup.
type Config struct {
	Level   zerolog.Level
	NoColor bool
	File    string // empty writes to stderr
	JSON    bool
}

var configureOnce sync.Once

// Configure installs the global logger once per process. logFile is used by
// the TUI profile unless EnvLogFile overrides it. The returned closer flushes
// and closes a log file when one was opened.
func Configure(profile Profile, logFile string) (io.Closer, error) {
	var (
		closer io.Closer = nopCloser{}
		cfgErr error
	)
	configureOnce.Do(func() {
		cfg := defaultConfig(profile, logFile)
		applyEnvOverrides(&cfg)
		var w io.Writer
		w, closer, cfgErr = writerFor(cfg)
		if cfgErr != nil {
			return
		}
		zerolog.SetGlobalLevel(cfg.Level)
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	})
	return closer, cfgErr
}

// Component returns the global logger tagged with a component field.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func defaultConfig(profile Profile, logFile string) Config {
	switch profile {
	case ProfileTUI:
		return Config{Level: zerolog.InfoLevel, File: logFile, JSON: true}
	case ProfileTest:
		return Config{Level: zerolog.DebugLevel, NoColor: true}
	default:
		return Config{Level: zerolog.InfoLevel}
	}
}

func applyEnvOverrides(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if path := strings.TrimSpace(os.Getenv(EnvLogFile)); path != "" {
		cfg.File = path
		cfg.JSON = true
	}
}

func writerFor(cfg Config) (io.Writer, io.Closer, error) {
	if cfg.File == "" {
		if cfg.JSON {
			return os.Stderr, nopCloser{}, nil
		}
		return zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    cfg.NoColor,
			TimeFormat: time.TimeOnly,
		}, nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nopCloser{}, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nopCloser{}, fmt.Errorf("open log file: %w", err)
	}
	return f, f, nil
}

// ParseLevel maps a level name to a zerolog level.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
