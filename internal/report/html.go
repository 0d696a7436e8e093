package report

import (
	"io"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nao1215/stubreport/internal/model"
)

// HTMLIndexWriter outputs the type index page as a standalone HTML document.
// It carries the same content as IndexWriter.
//
// Design decision: The page is built as an x/net/html node tree and
// rendered with html.Render, so every path and tag text is escaped by the
// renderer rather than by string concatenation.
type HTMLIndexWriter struct {
	baseWriter

	// parser parses version tags for the Since column.
	parser *model.VersionParser
}

// NewHTMLIndexWriter creates an HTMLIndexWriter that outputs to the given writer.
func NewHTMLIndexWriter(output io.Writer, parser *model.VersionParser) *HTMLIndexWriter {
	return &HTMLIndexWriter{
		baseWriter: newBaseWriter(output),
		parser:     parser,
	}
}

// Write outputs the HTML index page.
func (w *HTMLIndexWriter) Write(reg *model.Registry) (int, error) {
	title := indexTitle(reg)

	body := element(atom.Body,
		element(atom.H1, text(title)),
		element(atom.P, text(strconv.Itoa(reg.Len())+" documented entities.")),
	)

	for _, typ := range []string{model.TypeModule, model.TypeClass} {
		rows, err := namespaceRows(reg, typ, w.parser)
		if err != nil {
			return 0, err
		}
		if len(rows) == 0 {
			continue
		}
		body.AppendChild(element(atom.H2, text(typeHeading(typ))))
		body.AppendChild(htmlTable([]string{"Name", "Namespace", "Since", "Methods"}, rows))
	}

	if others := otherTypeCounts(reg); len(others) > 0 {
		body.AppendChild(element(atom.H2, text("Other Entities")))
		list := element(atom.Ul)
		for _, o := range others {
			list.AppendChild(element(atom.Li, text(o)))
		}
		body.AppendChild(list)
	}

	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html,
		element(atom.Head, meta, element(atom.Title, text(title))),
		body,
	))

	cw := &countingWriter{w: w.output}
	if err := html.Render(cw, doc); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// htmlTable builds a table with a header row. Cells wrapped in backticks by
// namespaceRows are rendered as <code>.
func htmlTable(header []string, rows [][]string) *html.Node {
	head := element(atom.Tr)
	for _, h := range header {
		head.AppendChild(element(atom.Th, text(h)))
	}
	table := element(atom.Table, element(atom.Thead, head))

	tbody := element(atom.Tbody)
	for _, row := range rows {
		tr := element(atom.Tr)
		for _, cell := range row {
			td := element(atom.Td)
			if n := len(cell); n >= 2 && cell[0] == '`' && cell[n-1] == '`' {
				td.AppendChild(element(atom.Code, text(cell[1:n-1])))
			} else {
				td.AppendChild(text(cell))
			}
			tr.AppendChild(td)
		}
		tbody.AppendChild(tr)
	}
	table.AppendChild(tbody)
	return table
}

// element creates an element node with the given children.
func element(a atom.Atom, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

// text creates a text node.
func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}
