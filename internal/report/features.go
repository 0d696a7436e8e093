package report

import (
	"io"
	"strings"

	"github.com/nao1215/stubreport/internal/model"
)

// FeatureWriter outputs the version-grouped feature changelog as a data
// literal, newest release first:
//
//	FEATURES = [
//	  {
//	    version: 'SketchUp 2017 M1',
//	    types: {
//	      class: [
//	        'Sketchup::Foo',
//	      ],
//	    },
//	  },
//	]
type FeatureWriter struct {
	baseWriter

	// threshold is the highest era excluded from the output.
	threshold int

	// parser parses version tags.
	parser *model.VersionParser
}

// FeatureWriterOption configures a FeatureWriter.
type FeatureWriterOption func(*FeatureWriter)

// WithFeatureThreshold sets the highest era excluded from the output.
func WithFeatureThreshold(threshold int) FeatureWriterOption {
	return func(w *FeatureWriter) {
		w.threshold = threshold
	}
}

// WithFeatureVersionParser sets the version parser, typically a shared cache.
func WithFeatureVersionParser(parser *model.VersionParser) FeatureWriterOption {
	return func(w *FeatureWriter) {
		w.parser = parser
	}
}

// NewFeatureWriter creates a FeatureWriter that outputs to the given writer.
func NewFeatureWriter(output io.Writer, opts ...FeatureWriterOption) *FeatureWriter {
	w := &FeatureWriter{
		baseWriter: newBaseWriter(output),
		threshold:  model.DefaultVersionThreshold,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// literalEscaper escapes text for a single-quoted literal.
var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// literalKey returns a hash key for the literal. Plain identifiers stay bare
// (class: [); anything else is written as a quoted key ('type name': [).
func literalKey(s string) string {
	if isIdentifier(s) {
		return s
	}
	return "'" + literalEscaper.Replace(s) + "'"
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// Write outputs the feature changelog.
func (w *FeatureWriter) Write(reg *model.Registry) (int, error) {
	groups, err := model.GroupByVersion(reg, w.threshold, w.parser)
	if err != nil {
		return 0, err
	}

	var sb strings.Builder
	sb.WriteString("FEATURES = [\n")
	for _, g := range groups {
		sb.WriteString("  {\n")
		sb.WriteString("    version: '" + literalEscaper.Replace(g.Version.Raw) + "',\n")
		sb.WriteString("    types: {\n")
		for _, typ := range g.TypeNames() {
			sb.WriteString("      " + literalKey(typ) + ": [\n")
			for _, path := range g.Types[typ] {
				sb.WriteString("        '" + literalEscaper.Replace(path) + "',\n")
			}
			sb.WriteString("      ],\n")
		}
		sb.WriteString("    },\n")
		sb.WriteString("  },\n")
	}
	sb.WriteString("]\n")

	return io.WriteString(w.output, sb.String())
}
