package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{Level: slog.LevelInfo})

	logger.Info("indexing started", "collection", "docs")

	out := buf.String()
	if !strings.Contains(out, "indexing started") {
		t.Errorf("expected message in output, got %q", out)
	}
	if !strings.Contains(out, "collection=docs") {
		t.Errorf("expected attribute in text output, got %q", out)
	}
}

func TestNewWithWriter_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{JSON: true})

	logger.Info("search completed", "results", 3)

	out := buf.String()
	if !strings.Contains(out, `"msg":"search completed"`) {
		t.Errorf("expected JSON message field, got %q", out)
	}
	if !strings.Contains(out, `"results":3`) {
		t.Errorf("expected JSON attribute, got %q", out)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      slog.Level
		logFn      func(Logger)
		wantLogged bool
	}{
		{
			name:       "debug suppressed at info level",
			level:      slog.LevelInfo,
			logFn:      func(l Logger) { l.Debug("verbose detail") },
			wantLogged: false,
		},
		{
			name:       "warn logged at info level",
			level:      slog.LevelInfo,
			logFn:      func(l Logger) { l.Warn("something off") },
			wantLogged: true,
		},
		{
			name:       "debug logged at debug level",
			level:      slog.LevelDebug,
			logFn:      func(l Logger) { l.Debug("verbose detail") },
			wantLogged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewWithWriter(&buf, Config{Level: tt.level})

			tt.logFn(logger)

			if got := buf.Len() > 0; got != tt.wantLogged {
				t.Errorf("logged=%v, want %v (output: %q)", got, tt.wantLogged, buf.String())
			}
		})
	}
}

func TestNewNop_DiscardsOutput(t *testing.T) {
	logger := NewNop()
	if logger == nil {
		t.Fatal("NewNop returned nil")
	}
	// Must not panic and must not write anywhere observable.
	logger.Error("this goes nowhere", "key", "value")
}

func TestWith_AddsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, Config{})

	child := logger.With("component", "pipeline")
	child.Info("item processed")

	if !strings.Contains(buf.String(), "component=pipeline") {
		t.Errorf("expected component attribute, got %q", buf.String())
	}
}
