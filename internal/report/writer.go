package report

import (
	"io"

	"github.com/nao1215/stubreport/internal/model"
)

// Writer defines the interface for artifact output.
// Implementations render a registry in one artifact format.
type Writer interface {
	// Write renders the registry to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(reg *model.Registry) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// countingWriter counts bytes passed through to an underlying writer.
// Renderers that stream (like html.Render) use it to report their size.
type countingWriter struct {
	w io.Writer
	n int
}

// Write implements io.Writer.
func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
