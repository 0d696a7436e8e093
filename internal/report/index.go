package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/stubreport/internal/model"
)

// IndexWriter outputs the type index page in Markdown.
// Classes and modules get a table each; every other entity type is
// summarized by count.
//
// Design decision: We use the nao1215/markdown library so tables are
// padded and escaped consistently instead of hand-formatting pipes.
type IndexWriter struct {
	baseWriter

	// parser parses version tags for the Version column.
	parser *model.VersionParser
}

// IndexWriterOption configures an IndexWriter.
type IndexWriterOption func(*IndexWriter)

// WithIndexVersionParser sets the version parser.
func WithIndexVersionParser(parser *model.VersionParser) IndexWriterOption {
	return func(w *IndexWriter) {
		w.parser = parser
	}
}

// NewIndexWriter creates an IndexWriter that outputs to the given writer.
func NewIndexWriter(output io.Writer, opts ...IndexWriterOption) *IndexWriter {
	w := &IndexWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the index page.
func (w *IndexWriter) Write(reg *model.Registry) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(indexTitle(reg))
	md.PlainText("")
	md.PlainText(strconv.Itoa(reg.Len()) + " documented entities.")
	md.PlainText("")

	for _, typ := range []string{model.TypeModule, model.TypeClass} {
		rows, err := namespaceRows(reg, typ, w.parser)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			continue
		}
		md.H2(typeHeading(typ))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Name", "Namespace", "Since", "Methods"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if others := otherTypeCounts(reg); len(others) > 0 {
		md.H2("Other Entities")
		md.PlainText("")
		md.BulletList(others...)
		md.PlainText("")
	}

	return len(md.String()), md.Build()
}

// indexTitle returns the page title for the registry.
func indexTitle(reg *model.Registry) string {
	if reg.Name() == "" {
		return "API Type Index"
	}
	return reg.Name() + " Type Index"
}

// typeHeading turns an entity type into a section heading: "class" -> "Classes".
func typeHeading(typ string) string {
	plural := typ + "s"
	if strings.HasSuffix(typ, "s") {
		plural = typ + "es"
	}
	return cases.Title(language.English).String(plural)
}

// namespaceRows builds one table row per entity of the given namespace type.
func namespaceRows(reg *model.Registry, typ string, parser *model.VersionParser) ([][]string, error) {
	entities := reg.OfType(typ)
	rows := make([][]string, 0, len(entities))
	for _, e := range entities {
		since := "-"
		tag, present, err := parser.EntityVersion(e)
		if err != nil {
			return nil, err
		}
		if present {
			since = tag.Raw
		}
		ns := e.Namespace
		if ns == "" {
			ns = "-"
		}
		rows = append(rows, []string{
			"`" + e.Path + "`",
			ns,
			since,
			strconv.Itoa(len(reg.MethodsOf(e))),
		})
	}
	return rows, nil
}

// otherTypeCounts summarizes non-namespace types as "<Heading>: <count>".
func otherTypeCounts(reg *model.Registry) []string {
	var out []string
	for _, typ := range reg.Types() {
		if typ == model.TypeClass || typ == model.TypeModule {
			continue
		}
		out = append(out, typeHeading(typ)+": "+strconv.Itoa(len(reg.OfType(typ))))
	}
	return out
}
