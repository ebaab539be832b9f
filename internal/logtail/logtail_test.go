package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v", got, err)
	}
}

func TestParse(t *testing.T) {
	e := Parse(`{"level":"warn","component":"store","action":"LIKE_ADD","time":"2026-03-01T12:00:00Z","message":"dispatch rejected"}`)
	if e.Level != "warn" || e.Component != "store" || e.Message != "dispatch rejected" {
		t.Fatalf("entry = %+v", e)
	}
	if e.Time.IsZero() || e.Fields["action"] != "LIKE_ADD" || len(e.Fields) != 1 {
		t.Fatalf("entry = %+v", e)
	}

	raw := Parse("plain text line")
	if raw.Raw != "plain text line" {
		t.Fatalf("raw = %+v", raw)
	}
	if broken := Parse("{not json"); broken.Raw != "{not json" {
		t.Fatalf("broken = %+v", broken)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   Entry
		want string
	}{
		{name: "raw", in: Entry{Raw: "hello"}, want: "hello"},
		{
			name: "fields sorted",
			in:   Entry{Level: "info", Component: "bootstrap", Message: "ready", Fields: map[string]any{"z": 1, "a": "x"}},
			want: "INFO  [bootstrap] ready a=x z=1",
		},
		{name: "message only", in: Entry{Message: "ok"}, want: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.in); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTail_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	body := `{"level":"info","message":"one"}` + "\n\n" + `{"level":"error","message":"two"}` + "\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(entries) != 2 || entries[1].Level != "error" {
		t.Fatalf("entries = %+v", entries)
	}
}
