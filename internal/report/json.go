package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/stubreport/internal/model"
)

// FeatureJSONWriter outputs the version groups of the feature changelog as JSON.
// This format is designed for tool integration, such as release-note generators.
//
// Design decision: We use standard encoding/json because map keys are
// emitted in sorted order, which keeps the output byte-stable between runs.
type FeatureJSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// threshold is the highest era excluded from the output.
	threshold int

	// parser parses version tags.
	parser *model.VersionParser
}

// FeatureJSONWriterOption configures a FeatureJSONWriter.
type FeatureJSONWriterOption func(*FeatureJSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() FeatureJSONWriterOption {
	return func(w *FeatureJSONWriter) {
		w.indent = true
	}
}

// WithJSONThreshold sets the highest era excluded from the output.
func WithJSONThreshold(threshold int) FeatureJSONWriterOption {
	return func(w *FeatureJSONWriter) {
		w.threshold = threshold
	}
}

// WithJSONVersionParser sets the version parser.
func WithJSONVersionParser(parser *model.VersionParser) FeatureJSONWriterOption {
	return func(w *FeatureJSONWriter) {
		w.parser = parser
	}
}

// NewFeatureJSONWriter creates a FeatureJSONWriter that outputs to the given writer.
func NewFeatureJSONWriter(output io.Writer, opts ...FeatureJSONWriterOption) *FeatureJSONWriter {
	w := &FeatureJSONWriter{
		baseWriter: newBaseWriter(output),
		threshold:  model.DefaultVersionThreshold,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// FeatureGroupJSON is the JSON form of one version group.
type FeatureGroupJSON struct {
	// Version is the raw version tag text.
	Version string `json:"version"`

	// Major is the parsed leading numeral.
	Major float64 `json:"major"`

	// Maintenance is the maintenance release number, omitted when absent.
	Maintenance *int `json:"maintenance,omitempty"`

	// Types maps entity types to ascending paths.
	Types map[string][]string `json:"types"`
}

// Write outputs the version groups as a JSON array.
func (w *FeatureJSONWriter) Write(reg *model.Registry) (int, error) {
	groups, err := model.GroupByVersion(reg, w.threshold, w.parser)
	if err != nil {
		return 0, err
	}

	out := make([]FeatureGroupJSON, len(groups))
	for i, g := range groups {
		out[i] = FeatureGroupJSON{
			Version: g.Version.Raw,
			Major:   g.Version.Major,
			Types:   g.Types,
		}
		if g.Version.HasMaintenance {
			m := g.Version.Maintenance
			out[i].Maintenance = &m
		}
	}

	var data []byte
	if w.indent {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
