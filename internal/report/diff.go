package report

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/nao1215/stubreport/internal/model"
)

// DiffWriter outputs the difference between two registry snapshots.
// The plain format reuses the changelog line shape, so "Added" lines of a
// first snapshot match Mode A output exactly.
type DiffWriter struct {
	baseWriter

	// markdown switches to a Markdown document with one section per side.
	markdown bool
}

// DiffWriterOption configures a DiffWriter.
type DiffWriterOption func(*DiffWriter)

// WithMarkdown renders the diff as Markdown.
func WithMarkdown() DiffWriterOption {
	return func(w *DiffWriter) {
		w.markdown = true
	}
}

// NewDiffWriter creates a DiffWriter that outputs to the given writer.
func NewDiffWriter(output io.Writer, opts ...DiffWriterOption) *DiffWriter {
	w := &DiffWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteDiff outputs the diff. Added lines precede removed lines.
func (w *DiffWriter) WriteDiff(d model.Diff) (int, error) {
	if w.markdown {
		return w.writeMarkdown(d)
	}

	var sb strings.Builder
	for _, e := range d.Added {
		writeChange(&sb, "Added", e)
	}
	for _, e := range d.Removed {
		writeChange(&sb, "Removed", e)
	}
	return io.WriteString(w.output, sb.String())
}

func (w *DiffWriter) writeMarkdown(d model.Diff) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Registry Changes")
	md.PlainText("")

	if d.Empty() {
		md.PlainText("No changes.")
		return len(md.String()), md.Build()
	}

	for _, side := range []struct {
		title    string
		entities []*model.Entity
	}{
		{"Added", d.Added},
		{"Removed", d.Removed},
	} {
		if len(side.entities) == 0 {
			continue
		}
		md.H2(side.title)
		md.PlainText("")
		rows := make([][]string, 0, len(side.entities))
		for _, e := range side.entities {
			rows = append(rows, []string{e.Type, "`" + e.Path + "`"})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Type", "Path"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}
