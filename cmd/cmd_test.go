package cmd

import (
	"log/slog"
	"strings"
	"testing"
)

func TestSnippet(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short text unchanged", "hello world", 50, "hello world"},
		{"newlines flattened", "line one\nline two", 50, "line one line two"},
		{"long text truncated", strings.Repeat("ab ", 100), 10, "ab ab ab a..."},
		{"empty text", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := snippet(tt.in, tt.max); got != tt.want {
				t.Errorf("snippet(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	t.Setenv("DEBUG", "")
	if got := logLevel(); got != slog.LevelInfo {
		t.Errorf("logLevel() = %v without DEBUG, want info", got)
	}

	t.Setenv("DEBUG", "1")
	if got := logLevel(); got != slog.LevelDebug {
		t.Errorf("logLevel() = %v with DEBUG, want debug", got)
	}
}
