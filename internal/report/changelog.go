package report

import (
	"io"
	"strings"

	"github.com/nao1215/stubreport/internal/model"
)

// ChangelogWriter outputs the flat changelog: one "Added <type> <path>"
// line for every entity, in ascending path order.
type ChangelogWriter struct {
	baseWriter
}

// NewChangelogWriter creates a ChangelogWriter that outputs to the given writer.
func NewChangelogWriter(output io.Writer) *ChangelogWriter {
	return &ChangelogWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the changelog.
func (w *ChangelogWriter) Write(reg *model.Registry) (int, error) {
	var sb strings.Builder
	for _, e := range reg.Entities() {
		writeChange(&sb, "Added", e)
	}
	return io.WriteString(w.output, sb.String())
}

// writeChange writes one "<verb> <type> <path>" line.
func writeChange(sb *strings.Builder, verb string, e *model.Entity) {
	sb.WriteString(verb)
	sb.WriteString(" ")
	sb.WriteString(e.Type)
	sb.WriteString(" ")
	sb.WriteString(e.Path)
	sb.WriteString("\n")
}
