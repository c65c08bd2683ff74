package pptx

import (
	"strings"

	"github.com/antchfx/xmlquery"
)

// TextFrame is a text body (p:txBody in shapes, a:txBody in table cells).
type TextFrame struct {
	node  *xmlquery.Node
	slide *Slide
}

// Paragraphs returns the paragraphs in order.
func (f *TextFrame) Paragraphs() []*Paragraph {
	var out []*Paragraph
	for _, n := range children(f.node, "p") {
		out = append(out, &Paragraph{node: n, slide: f.slide})
	}
	return out
}

// Text returns the paragraphs' text joined by newlines.
func (f *TextFrame) Text() string {
	paras := f.Paragraphs()
	texts := make([]string, len(paras))
	for i, p := range paras {
		texts[i] = p.Text()
	}
	return strings.Join(texts, "\n")
}

// Paragraph is an a:p element.
type Paragraph struct {
	node  *xmlquery.Node
	slide *Slide
}

// Runs returns the regular text runs (a:r) in order. Fields and line
// breaks are not runs.
func (p *Paragraph) Runs() []*Run {
	var out []*Run
	for _, n := range children(p.node, "r") {
		out = append(out, &Run{node: n, slide: p.slide})
	}
	return out
}

// Text returns the paragraph text including fields; line breaks read as
// vertical tabs.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, n := range elements(p.node) {
		switch n.Data {
		case "r", "fld":
			if t := child(n, "t"); t != nil {
				b.WriteString(t.InnerText())
			}
		case "br":
			b.WriteString("\v")
		}
	}
	return b.String()
}

// Run is an a:r element: a span of uniformly formatted text.
type Run struct {
	node  *xmlquery.Node
	slide *Slide
}

// Text returns the run's literal text.
func (r *Run) Text() string {
	if t := child(r.node, "t"); t != nil {
		return t.InnerText()
	}
	return ""
}

// SetText replaces the run's text, leaving its properties untouched.
// Setting the current text is a no-op.
func (r *Run) SetText(s string) {
	t := child(r.node, "t")
	if t != nil && t.InnerText() == s {
		return
	}
	if t == nil {
		t = &xmlquery.Node{
			Type:         xmlquery.ElementNode,
			Data:         "t",
			Prefix:       r.node.Prefix,
			NamespaceURI: nsDrawingML,
		}
		xmlquery.AddChild(r.node, t)
	}
	for c := t.FirstChild; c != nil; {
		next := c.NextSibling
		xmlquery.RemoveFromTree(c)
		c = next
	}
	if s != "" {
		xmlquery.AddChild(t, &xmlquery.Node{Type: xmlquery.TextNode, Data: s})
	}
	if r.slide != nil {
		r.slide.touch()
	}
}

// Table is an a:tbl element.
type Table struct {
	node  *xmlquery.Node
	slide *Slide
}

// Rows returns the table rows in order.
func (t *Table) Rows() []*Row {
	var out []*Row
	for _, n := range children(t.node, "tr") {
		out = append(out, &Row{node: n, slide: t.slide})
	}
	return out
}

// Columns returns the number of grid columns.
func (t *Table) Columns() int {
	return len(children(child(t.node, "tblGrid"), "gridCol"))
}

// Cell returns the cell at row, col, or nil when out of range.
func (t *Table) Cell(row, col int) *Cell {
	rows := t.Rows()
	if row < 0 || row >= len(rows) {
		return nil
	}
	cells := rows[row].Cells()
	if col < 0 || col >= len(cells) {
		return nil
	}
	return cells[col]
}

// Row is an a:tr element.
type Row struct {
	node  *xmlquery.Node
	slide *Slide
}

// Cells returns the row's cells in order, merged cells included.
func (r *Row) Cells() []*Cell {
	var out []*Cell
	for _, n := range children(r.node, "tc") {
		out = append(out, &Cell{node: n, slide: r.slide})
	}
	return out
}

// Cell is an a:tc element.
type Cell struct {
	node  *xmlquery.Node
	slide *Slide
}

// TextFrame returns the cell's text body, or nil when it has none.
func (c *Cell) TextFrame() *TextFrame {
	if body := child(c.node, "txBody"); body != nil {
		return &TextFrame{node: body, slide: c.slide}
	}
	return nil
}

// Text returns the cell text.
func (c *Cell) Text() string {
	if f := c.TextFrame(); f != nil {
		return f.Text()
	}
	return ""
}
