package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/stubreport/internal/model"
)

// ErrFilesystemWrite is matched by every WriteError.
var ErrFilesystemWrite = errors.New("failed to write artifact")

// WriteError reports that an artifact could not be written to disk.
type WriteError struct {
	// Path is the artifact path that could not be written.
	Path string

	// Err is the underlying filesystem error.
	Err error
}

// Error implements error.
func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrFilesystemWrite, e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrFilesystemWrite) true.
func (e *WriteError) Is(target error) bool {
	return target == ErrFilesystemWrite
}

// Artifact describes what Generate produced.
type Artifact struct {
	// Mode is the mode that ran.
	Mode Mode

	// Path is the file written, or "" when the artifact went to a stream.
	Path string

	// Bytes is the artifact size.
	Bytes int

	// SkipSummary tells the host not to print anything further after this
	// artifact. Only the features mode sets it, since its output is the
	// whole of stdout.
	SkipSummary bool
}

// generateOptions holds the options of one Generate call.
type generateOptions struct {
	stdout    io.Writer
	threshold int
	parser    *model.VersionParser
}

// GenerateOption configures Generate.
type GenerateOption func(*generateOptions)

// WithStdout sets the stream the features mode writes to. Defaults to os.Stdout.
func WithStdout(w io.Writer) GenerateOption {
	return func(o *generateOptions) {
		o.stdout = w
	}
}

// WithThreshold sets the highest era excluded from the version-grouped modes.
func WithThreshold(threshold int) GenerateOption {
	return func(o *generateOptions) {
		o.threshold = threshold
	}
}

// WithVersionParser shares a version parser (and its cache) across calls.
func WithVersionParser(parser *model.VersionParser) GenerateOption {
	return func(o *generateOptions) {
		o.parser = parser
	}
}

// Generate renders one artifact for the registry.
//
// File modes write into outputDir (created when missing, "" meaning the
// current directory) and overwrite any existing artifact. The features mode
// writes to stdout and leaves the filesystem alone. Every version tag is
// checked first, so a malformed tag fails all modes before anything is
// written.
func Generate(ctx context.Context, reg *model.Registry, outputDir string, mode Mode, opts ...GenerateOption) (*Artifact, error) {
	o := generateOptions{
		stdout:    os.Stdout,
		threshold: model.DefaultVersionThreshold,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.parser == nil {
		o.parser = model.NewVersionParser(0)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := reg.CheckVersionTags(o.parser); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := newModeWriter(mode, &buf, o)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(reg); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", mode, err)
	}

	if mode == ModeFeatures {
		n, err := o.stdout.Write(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("failed to write %s output: %w", mode, err)
		}
		return &Artifact{Mode: mode, Bytes: n, SkipSummary: true}, nil
	}

	if outputDir == "" {
		outputDir = "."
	}
	path := filepath.Join(outputDir, mode.FileName())
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return nil, &WriteError{Path: path, Err: err}
	}

	return &Artifact{Mode: mode, Path: path, Bytes: buf.Len()}, nil
}

// newModeWriter returns the writer that renders the given mode into out.
func newModeWriter(mode Mode, out io.Writer, o generateOptions) (Writer, error) {
	switch mode {
	case ModeChangelog:
		return NewChangelogWriter(out), nil
	case ModeCoverage:
		return NewCoverageWriter(out), nil
	case ModeFeatures:
		return NewFeatureWriter(out,
			WithFeatureThreshold(o.threshold),
			WithFeatureVersionParser(o.parser),
		), nil
	case ModeFeaturesJSON:
		return NewFeatureJSONWriter(out,
			WithPrettyPrint(),
			WithJSONThreshold(o.threshold),
			WithJSONVersionParser(o.parser),
		), nil
	case ModeIndex:
		return NewIndexWriter(out, WithIndexVersionParser(o.parser)), nil
	case ModeIndexHTML:
		return NewHTMLIndexWriter(out, o.parser), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
}
