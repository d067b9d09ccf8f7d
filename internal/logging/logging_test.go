package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New("warn", "", &buf)
	if err != nil {
		t.Fatalf("New error = %v, want nil", err)
	}

	logger.Info().Msg("dropped")
	logger.Warn().Str("repo", "octo/blog").Msg("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("log lines = %d, want 1: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["level"] != "warn" || entry["message"] != "kept" || entry["repo"] != "octo/blog" {
		t.Fatalf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("entry missing time: %v", entry)
	}
}

func TestNewConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := New("", FormatConsole, &buf)
	if err != nil {
		t.Fatalf("New error = %v, want nil", err)
	}
	logger.Info().Msg("hello")
	if !strings.Contains(buf.String(), "hello") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("console output = %q", buf.String())
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := New("loud", "", &bytes.Buffer{}); err == nil {
		t.Fatal("New(bad level) error = nil, want error")
	}
	if _, err := New("info", "xml", &bytes.Buffer{}); err == nil {
		t.Fatal("New(bad format) error = nil, want error")
	}
}

func TestTokenSet(t *testing.T) {
	t.Parallel()

	if TokenSet("  ") || !TokenSet("ghp_x") {
		t.Fatal("TokenSet mismatch")
	}
}
