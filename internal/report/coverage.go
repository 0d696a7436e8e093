package report

import (
	"io"
	"sort"
	"strings"

	"github.com/nao1215/stubreport/internal/model"
)

// CoverageWriter outputs the method coverage manifest: the sorted set of
// "<namespace>.<method>" keys over every class and module, joined by
// newlines without a trailing newline.
//
// The key uses the method's short name only. A class method and an
// instance method with the same name on one namespace therefore collapse
// into a single line. Consumers of the manifest rely on this shape, so it
// is kept as is.
type CoverageWriter struct {
	baseWriter
}

// NewCoverageWriter creates a CoverageWriter that outputs to the given writer.
func NewCoverageWriter(output io.Writer) *CoverageWriter {
	return &CoverageWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the manifest.
func (w *CoverageWriter) Write(reg *model.Registry) (int, error) {
	return io.WriteString(w.output, strings.Join(CoverageKeys(reg), "\n"))
}

// CoverageKeys returns the distinct manifest keys in ascending order.
func CoverageKeys(reg *model.Registry) []string {
	set := make(map[string]struct{})
	for _, ns := range reg.Namespaces() {
		for _, m := range reg.MethodsOf(ns) {
			set[ns.Path+"."+m.ShortName()] = struct{}{}
		}
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
