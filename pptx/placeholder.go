package pptx

import (
	"github.com/antchfx/xmlquery"
)

// placeholderOf returns the p:ph element of a shape, or nil.
func placeholderOf(n *xmlquery.Node) *xmlquery.Node {
	for _, c := range elements(n) {
		if len(c.Data) > 2 && c.Data[:2] == "nv" {
			return descend(c, "nvPr", "ph")
		}
	}
	return nil
}

// phType returns the placeholder type; "obj" when unspecified.
func phType(ph *xmlquery.Node) string {
	if t := attr(ph, "type"); t != "" {
		return t
	}
	return "obj"
}

// phIdx returns the placeholder index; "0" when unspecified.
func phIdx(ph *xmlquery.Node) string {
	if i := attr(ph, "idx"); i != "" {
		return i
	}
	return "0"
}

// masterPlaceholderType maps a layout placeholder type to the master
// placeholder it inherits from.
var masterPlaceholderType = map[string]string{
	"body":     "body",
	"chart":    "body",
	"clipArt":  "body",
	"dgm":      "body",
	"media":    "body",
	"obj":      "body",
	"pic":      "body",
	"subTitle": "body",
	"tbl":      "body",
	"ctrTitle": "title",
	"title":    "title",
	"dt":       "dt",
	"ftr":      "ftr",
	"sldNum":   "sldNum",
}

// inheritedGeometry resolves a slide placeholder's transform through the
// layout (matched by idx) and then the master (matched by type).
func (s *Slide) inheritedGeometry(ph *xmlquery.Node) Geometry {
	_, layout := s.layout()
	if layout == nil {
		return Geometry{}
	}
	lp := findPlaceholder(layout, func(cand *xmlquery.Node) bool {
		return phIdx(cand) == phIdx(ph)
	})
	if lp == nil {
		return Geometry{}
	}
	if x := xfrmOf(lp); x != nil {
		return geometryFromXfrm(x)
	}

	master := s.master()
	if master == nil {
		return Geometry{}
	}
	want, ok := masterPlaceholderType[phType(placeholderOf(lp))]
	if !ok {
		return Geometry{}
	}
	mp := findPlaceholder(master, func(cand *xmlquery.Node) bool {
		return phType(cand) == want
	})
	if mp == nil {
		return Geometry{}
	}
	if x := xfrmOf(mp); x != nil {
		return geometryFromXfrm(x)
	}
	return Geometry{}
}

// findPlaceholder returns the first top-level shape of a layout or master
// whose placeholder satisfies match.
func findPlaceholder(doc *xmlquery.Node, match func(ph *xmlquery.Node) bool) *xmlquery.Node {
	tree := descend(rootElement(doc), "cSld", "spTree")
	for _, n := range elements(tree) {
		if !shapeTags[n.Data] {
			continue
		}
		if ph := placeholderOf(n); ph != nil && match(ph) {
			return n
		}
	}
	return nil
}
