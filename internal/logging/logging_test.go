package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"", zerolog.InfoLevel, false},
		{"  DEBUG ", zerolog.DebugLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLevel(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseLevel(%q) = (%v, %v), want (%v, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")
	t.Setenv(EnvLogFile, "/tmp/palimpseste-test.log")

	cfg := defaultConfig(ProfileCLI, "")
	applyEnvOverrides(&cfg)

	if cfg.Level != zerolog.ErrorLevel {
		t.Fatalf("Level = %v, want error", cfg.Level)
	}
	if !cfg.NoColor {
		t.Fatal("NoColor = false, want true")
	}
	if cfg.File != "/tmp/palimpseste-test.log" || !cfg.JSON {
		t.Fatalf("File/JSON = %q/%v, want file with JSON", cfg.File, cfg.JSON)
	}
}

func TestDefaultConfig_TUIWritesJSONToFile(t *testing.T) {
	cfg := defaultConfig(ProfileTUI, "/var/tmp/p.log")
	if !cfg.JSON || cfg.File != "/var/tmp/p.log" {
		t.Fatalf("cfg = %+v, want JSON to /var/tmp/p.log", cfg)
	}
}
