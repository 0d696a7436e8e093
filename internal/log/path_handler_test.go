package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

// newTestLogger returns a logger writing text records to buf with fixed directories.
func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	text := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewPathHandler(text, "/work/api", "/home/dev"))
}

// TestPathHandler_ShortenPath tests path rewriting rules.
func TestPathHandler_ShortenPath(t *testing.T) {
	t.Parallel()

	h := NewPathHandler(slog.NewTextHandler(&bytes.Buffer{}, nil), "/home/dev/src/api", "/home/dev")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "inside working directory", in: "/home/dev/src/api/out/index.md", want: "out/index.md"},
		{name: "working directory itself", in: "/home/dev/src/api", want: "."},
		{name: "inside home directory", in: "/home/dev/.stubreport", want: "~/.stubreport"},
		{name: "home directory itself", in: "/home/dev", want: "~"},
		{name: "sibling with common prefix", in: "/home/developer/x", want: "/home/developer/x"},
		{name: "outside both", in: "/var/lib/stubreport.db", want: "/var/lib/stubreport.db"},
		{name: "relative path untouched", in: "registry.yaml", want: "registry.yaml"},
		{name: "plain text untouched", in: "loaded registry", want: "loaded registry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := h.ShortenPath(tt.in); got != tt.want {
				t.Errorf("ShortenPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestPathHandler_RewritesAttributes tests that record attributes are rewritten.
func TestPathHandler_RewritesAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.Info("artifact written", "path", "/work/api/out/coverage.manifest", "bytes", 42)

	output := buf.String()
	if !strings.Contains(output, "path=out/coverage.manifest") {
		t.Errorf("expected relative path, got: %s", output)
	}
	if !strings.Contains(output, "bytes=42") {
		t.Errorf("expected non-string attribute to survive, got: %s", output)
	}
}

// TestPathHandler_WithAttrs tests that pre-bound attributes are rewritten.
func TestPathHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf).With("config", "/home/dev/.stubreport")
	logger.Info("config loaded")

	if !strings.Contains(buf.String(), "config=~/.stubreport") {
		t.Errorf("expected home-relative path, got: %s", buf.String())
	}
}

// TestPathHandler_WithGroup tests that grouped attributes are rewritten.
func TestPathHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestLogger(&buf)
	logger.Info("run", slog.Group("run", slog.String("source", "/work/api/reg.yaml")))
	logger.WithGroup("batch").Info("done", "dir", "/work/api/out")

	output := buf.String()
	if !strings.Contains(output, "run.source=reg.yaml") {
		t.Errorf("expected grouped attribute to be rewritten, got: %s", output)
	}
	if !strings.Contains(output, "batch.dir=out") {
		t.Errorf("expected group handler to rewrite, got: %s", output)
	}
}

// TestNewLogger_Levels tests verbose level selection.
func TestNewLogger_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
		wantWarn  bool
	}{
		{name: "verbose shows debug", verbose: true, wantDebug: true, wantWarn: true},
		{name: "quiet hides debug", verbose: false, wantDebug: false, wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewLogger(&buf, tt.verbose)
			logger.Debug("debug message")
			logger.Warn("warn message")

			output := buf.String()
			if got := strings.Contains(output, "debug message"); got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.wantDebug)
			}
			if got := strings.Contains(output, "warn message"); got != tt.wantWarn {
				t.Errorf("warn visible = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

// TestNewJSONLogger tests JSON output.
func TestNewJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, false)
	logger.Warn("slow registry", "entities", 12000)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "slow registry" {
		t.Errorf("expected msg field, got %v", record["msg"])
	}
}

// TestNewPathHandler_NilHandler tests the default handler fallback.
func TestNewPathHandler_NilHandler(t *testing.T) {
	t.Parallel()

	h := NewPathHandler(nil, "", "")
	if h.handler == nil {
		t.Error("expected default handler")
	}
	if got := h.ShortenPath("/tmp/x"); got != "/tmp/x" {
		t.Errorf("expected no rewriting without directories, got %q", got)
	}
}
