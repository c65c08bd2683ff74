package pptx

import (
	"strconv"

	"github.com/antchfx/xmlquery"
)

// Kind identifies the variant of a Shape.
type Kind int

const (
	// KindOther covers connectors, charts, diagrams and content parts.
	KindOther Kind = iota
	// KindText is an autoshape or text box (p:sp).
	KindText
	// KindTable is a graphic frame holding a table.
	KindTable
	// KindGroup is a group shape (p:grpSp).
	KindGroup
	// KindImage is a picture (p:pic).
	KindImage
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindTable:
		return "table"
	case KindGroup:
		return "group"
	case KindImage:
		return "image"
	default:
		return "other"
	}
}

// Geometry is a shape's position and size in EMU (914400 per inch).
type Geometry struct {
	Left   int64
	Top    int64
	Width  int64
	Height int64
}

// IsZero reports whether no geometry is known.
func (g Geometry) IsZero() bool {
	return g == Geometry{}
}

// Shape is a positioned element of a slide's shape tree. The set of
// implementations is closed: TextShape, TableShape, GroupShape, ImageShape
// and OtherShape.
type Shape interface {
	// Kind returns the variant.
	Kind() Kind
	// ID returns the cNvPr id, or 0 when absent.
	ID() int
	// Name returns the cNvPr name.
	Name() string
	// Geometry returns the shape's transform. Placeholders without their
	// own transform inherit it from the layout or master.
	Geometry() Geometry
	// Accept dispatches to the visitor method for the variant.
	Accept(v Visitor)

	element() *xmlquery.Node
	owner() *Slide
}

// Visitor receives one call per shape variant.
type Visitor interface {
	VisitText(s *TextShape)
	VisitTable(s *TableShape)
	VisitGroup(s *GroupShape)
	VisitImage(s *ImageShape)
	VisitOther(s *OtherShape)
}

// BaseVisitor implements Visitor with no-op methods. Embed it to handle
// only the variants of interest.
type BaseVisitor struct{}

func (BaseVisitor) VisitText(*TextShape)   {}
func (BaseVisitor) VisitTable(*TableShape) {}
func (BaseVisitor) VisitGroup(*GroupShape) {}
func (BaseVisitor) VisitImage(*ImageShape) {}
func (BaseVisitor) VisitOther(*OtherShape) {}

// Walk calls Accept on each shape in order.
func Walk(shapes []Shape, v Visitor) {
	for _, s := range shapes {
		s.Accept(v)
	}
}

// shapeBase carries what every variant shares.
type shapeBase struct {
	slide *Slide
	node  *xmlquery.Node
}

func (b *shapeBase) element() *xmlquery.Node { return b.node }
func (b *shapeBase) owner() *Slide           { return b.slide }

// cNvPr returns the non-visual properties element, found under the
// variant's nv*Pr wrapper.
func (b *shapeBase) cNvPr() *xmlquery.Node {
	for _, c := range elements(b.node) {
		if len(c.Data) > 2 && c.Data[:2] == "nv" {
			return child(c, "cNvPr")
		}
	}
	return nil
}

// ID returns the shape id.
func (b *shapeBase) ID() int {
	id, _ := strconv.Atoi(attr(b.cNvPr(), "id"))
	return id
}

// Name returns the shape name.
func (b *shapeBase) Name() string {
	return attr(b.cNvPr(), "name")
}

// Geometry returns the shape's own transform, falling back to the
// inherited placeholder transform.
func (b *shapeBase) Geometry() Geometry {
	if x := xfrmOf(b.node); x != nil {
		return geometryFromXfrm(x)
	}
	if ph := placeholderOf(b.node); ph != nil && b.slide != nil {
		return b.slide.inheritedGeometry(ph)
	}
	return Geometry{}
}

// TextShape is an autoshape or text box.
type TextShape struct{ shapeBase }

func (s *TextShape) Kind() Kind        { return KindText }
func (s *TextShape) Accept(v Visitor) { v.VisitText(s) }

// TextFrame returns the shape's text body, or nil when it has none.
func (s *TextShape) TextFrame() *TextFrame {
	if body := child(s.node, "txBody"); body != nil {
		return &TextFrame{node: body, slide: s.slide}
	}
	return nil
}

// IsPlaceholder reports whether the shape is a layout placeholder.
func (s *TextShape) IsPlaceholder() bool {
	return placeholderOf(s.node) != nil
}

// TableShape is a graphic frame whose graphic data is a table.
type TableShape struct {
	shapeBase
	tbl *xmlquery.Node
}

func (s *TableShape) Kind() Kind        { return KindTable }
func (s *TableShape) Accept(v Visitor) { v.VisitTable(s) }

// Table returns the table.
func (s *TableShape) Table() *Table {
	return &Table{node: s.tbl, slide: s.slide}
}

// GroupShape contains member shapes.
type GroupShape struct{ shapeBase }

func (s *GroupShape) Kind() Kind        { return KindGroup }
func (s *GroupShape) Accept(v Visitor) { v.VisitGroup(s) }

// Shapes returns the group members in stored order. Member geometry is
// expressed in the group's child coordinate space.
func (s *GroupShape) Shapes() []Shape {
	return shapesOf(s.slide, s.node)
}

// ImageShape is a picture.
type ImageShape struct{ shapeBase }

func (s *ImageShape) Kind() Kind        { return KindImage }
func (s *ImageShape) Accept(v Visitor) { v.VisitImage(s) }

// RelationshipID returns the r:embed of the picture's blip.
func (s *ImageShape) RelationshipID() string {
	return attrNS(descend(s.node, "blipFill", "blip"), nsRelationships, "embed")
}

// MediaPart returns the package part holding the picture's bytes.
func (s *ImageShape) MediaPart() string {
	if s.slide == nil {
		return ""
	}
	name, _ := s.slide.pres.pkg.related(s.slide.part, s.RelationshipID())
	return name
}

// Description returns the picture's alternative text.
func (s *ImageShape) Description() string {
	return attr(s.cNvPr(), "descr")
}

// OtherShape is any shape the package does not model further.
type OtherShape struct{ shapeBase }

func (s *OtherShape) Kind() Kind        { return KindOther }
func (s *OtherShape) Accept(v Visitor) { v.VisitOther(s) }

// Tag returns the element's local name, such as "cxnSp".
func (s *OtherShape) Tag() string { return s.node.Data }

// shapeTags are the shape tree children that represent shapes.
var shapeTags = map[string]bool{
	"sp":           true,
	"grpSp":        true,
	"graphicFrame": true,
	"cxnSp":        true,
	"pic":          true,
	"contentPart":  true,
}

// shapesOf snapshots the shape children of a shape tree or group.
func shapesOf(slide *Slide, tree *xmlquery.Node) []Shape {
	var out []Shape
	for _, n := range elements(tree) {
		if !shapeTags[n.Data] {
			continue
		}
		out = append(out, newShape(slide, n))
	}
	return out
}

// newShape wraps a shape element in its variant.
func newShape(slide *Slide, n *xmlquery.Node) Shape {
	base := shapeBase{slide: slide, node: n}
	switch n.Data {
	case "sp":
		return &TextShape{base}
	case "grpSp":
		return &GroupShape{base}
	case "pic":
		return &ImageShape{base}
	case "graphicFrame":
		if tbl := descend(n, "graphic", "graphicData", "tbl"); tbl != nil {
			return &TableShape{shapeBase: base, tbl: tbl}
		}
	}
	return &OtherShape{base}
}

// TextFrameOf returns the text frame of s when s is a shape that can own
// one directly.
func TextFrameOf(s Shape) (*TextFrame, bool) {
	var f frameFinder
	s.Accept(&f)
	return f.frame, f.frame != nil
}

type frameFinder struct {
	BaseVisitor
	frame *TextFrame
}

func (f *frameFinder) VisitText(s *TextShape) { f.frame = s.TextFrame() }

// xfrmOf returns the transform element of a shape, wherever its variant
// keeps it.
func xfrmOf(n *xmlquery.Node) *xmlquery.Node {
	switch n.Data {
	case "graphicFrame":
		return child(n, "xfrm")
	case "grpSp":
		return descend(n, "grpSpPr", "xfrm")
	default:
		return descend(n, "spPr", "xfrm")
	}
}

// geometryFromXfrm reads a:off and a:ext.
func geometryFromXfrm(x *xmlquery.Node) Geometry {
	var g Geometry
	if off := child(x, "off"); off != nil {
		g.Left, _ = strconv.ParseInt(attr(off, "x"), 10, 64)
		g.Top, _ = strconv.ParseInt(attr(off, "y"), 10, 64)
	}
	if ext := child(x, "ext"); ext != nil {
		g.Width, _ = strconv.ParseInt(attr(ext, "cx"), 10, 64)
		g.Height, _ = strconv.ParseInt(attr(ext, "cy"), 10, 64)
	}
	return g
}
