package pptx

import (
	"fmt"
	"strconv"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Slide is one slide of a presentation.
type Slide struct {
	pres  *Presentation
	index int
	part  string
	doc   *xmlquery.Node
	tree  *xmlquery.Node // p:spTree
}

// Index returns the 0-based position of the slide.
func (s *Slide) Index() int { return s.index }

// Number returns the 1-based slide number.
func (s *Slide) Number() int { return s.index + 1 }

// PartName returns the slide's part name, such as ppt/slides/slide1.xml.
func (s *Slide) PartName() string { return s.part }

// Shapes returns a snapshot of the top-level shapes in z-order. Edits made
// after the call are not reflected in the returned slice.
func (s *Slide) Shapes() []Shape {
	return shapesOf(s, s.tree)
}

// Text returns the text of every top-level text shape, one per line.
func (s *Slide) Text() string {
	var out string
	for _, sh := range s.Shapes() {
		if f, ok := TextFrameOf(sh); ok && f != nil {
			if t := f.Text(); t != "" {
				if out != "" {
					out += "\n"
				}
				out += t
			}
		}
	}
	return out
}

// touch marks the slide part for re-serialization.
func (s *Slide) touch() {
	s.pres.pkg.markDirty(s.part)
}

// RemoveShape detaches a top-level or group member shape from the slide.
func (s *Slide) RemoveShape(sh Shape) error {
	_, err := s.removeShape(sh)
	return err
}

// removeShape detaches sh and returns a function that puts it back at its
// former position.
func (s *Slide) removeShape(sh Shape) (restore func(), err error) {
	if sh.owner() != s {
		return nil, ErrForeignShape
	}
	n := sh.element()
	if n.Parent == nil {
		return nil, fmt.Errorf("pptx: shape %d already removed", sh.ID())
	}
	parent, next := n.Parent, n.NextSibling
	xmlquery.RemoveFromTree(n)
	s.touch()
	return func() {
		if next != nil && next.Parent == parent {
			insertBefore(next, n)
		} else {
			xmlquery.AddChild(parent, n)
		}
	}, nil
}

var idAttrExpr = xpath.MustCompile("//*[@id]")

// nextShapeID returns one more than the largest numeric id on the slide.
func (s *Slide) nextShapeID() int {
	highest := 0
	for _, n := range xmlquery.QuerySelectorAll(s.doc, idAttrExpr) {
		if id, err := strconv.Atoi(n.SelectAttr("id")); err == nil && id > highest {
			highest = id
		}
	}
	return highest + 1
}

// layout returns the slide layout part name and tree, or an empty name
// and nil when the slide has no layout.
func (s *Slide) layout() (string, *xmlquery.Node) {
	name, ok := s.pres.pkg.relatedByType(s.part, relSlideLayout)
	if !ok {
		return "", nil
	}
	doc, err := s.pres.pkg.xml(name)
	if err != nil {
		return "", nil
	}
	return name, doc
}

// master returns the slide master tree reached through the layout.
func (s *Slide) master() *xmlquery.Node {
	layoutName, _ := s.layout()
	if layoutName == "" {
		return nil
	}
	name, ok := s.pres.pkg.relatedByType(layoutName, relSlideMaster)
	if !ok {
		return nil
	}
	doc, err := s.pres.pkg.xml(name)
	if err != nil {
		return nil
	}
	return doc
}
