package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// PathHandler wraps an slog.Handler and shortens absolute paths found in
// string attribute values before passing records on.
//
// Design decision: The rewrite lives in a handler wrapper rather than at the
// call sites, so pipeline code can log raw paths and any underlying handler
// (text or JSON) gets the same treatment.
type PathHandler struct {
	// handler is the underlying slog handler that receives rewritten records.
	handler slog.Handler

	// workDir is the absolute working directory. Empty disables relative rewriting.
	workDir string

	// homeDir is the absolute home directory. Empty disables "~" rewriting.
	homeDir string
}

// NewPathHandler creates a PathHandler around handler.
// workDir and homeDir should be absolute; either may be empty.
// If handler is nil, slog.Default().Handler() is used.
func NewPathHandler(handler slog.Handler, workDir, homeDir string) *PathHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &PathHandler{
		handler: handler,
		workDir: filepath.Clean(workDir),
		homeDir: filepath.Clean(homeDir),
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PathHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle rewrites the record's attributes and passes it to the underlying handler.
func (h *PathHandler) Handle(ctx context.Context, r slog.Record) error {
	rewritten := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		rewritten.AddAttrs(h.rewriteAttr(a))
		return true
	})
	return h.handler.Handle(ctx, rewritten)
}

// WithAttrs returns a new handler with the given attributes added.
func (h *PathHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = h.rewriteAttr(a)
	}
	return &PathHandler{handler: h.handler.WithAttrs(out), workDir: h.workDir, homeDir: h.homeDir}
}

// WithGroup returns a new handler with the given group name.
func (h *PathHandler) WithGroup(name string) slog.Handler {
	return &PathHandler{handler: h.handler.WithGroup(name), workDir: h.workDir, homeDir: h.homeDir}
}

func (h *PathHandler) rewriteAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			out[i] = h.rewriteAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	case slog.KindString:
		return slog.String(a.Key, h.ShortenPath(a.Value.String()))
	default:
		return a
	}
}

// ShortenPath returns p relative to the working directory when it lies
// inside it, "~"-prefixed when it lies inside the home directory, and p
// unchanged otherwise. Non-absolute values are never touched.
func (h *PathHandler) ShortenPath(p string) string {
	if !filepath.IsAbs(p) {
		return p
	}
	clean := filepath.Clean(p)
	if rel, ok := within(h.workDir, clean); ok {
		return rel
	}
	if rel, ok := within(h.homeDir, clean); ok {
		if rel == "." {
			return "~"
		}
		return "~" + string(filepath.Separator) + rel
	}
	return p
}

// within reports whether p lies inside dir and returns p relative to dir.
func within(dir, p string) (string, bool) {
	if dir == "" || dir == "." || !filepath.IsAbs(dir) {
		return "", false
	}
	rel, err := filepath.Rel(dir, p)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

// NewLogger creates a text slog.Logger with path rewriting.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(newPathHandler(slog.NewTextHandler(w, handlerOptions(verbose))))
}

// NewJSONLogger creates a JSON slog.Logger with path rewriting.
// Useful when logs are collected by another tool.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(newPathHandler(slog.NewJSONHandler(w, handlerOptions(verbose))))
}

func handlerOptions(verbose bool) *slog.HandlerOptions {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return &slog.HandlerOptions{Level: level}
}

// newPathHandler wraps handler using the process's working and home directories.
func newPathHandler(handler slog.Handler) *PathHandler {
	wd, err := os.Getwd()
	if err != nil {
		wd = ""
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return NewPathHandler(handler, wd, home)
}
