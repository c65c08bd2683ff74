package pptx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
)

// part is one entry of the package. XML parts are parsed on first use and
// re-serialized on save only when marked dirty.
type part struct {
	name     string
	data     []byte
	modified time.Time
	doc      *xmlquery.Node
	dirty    bool
}

// opcPackage holds every part of a PPTX file in its original order.
type opcPackage struct {
	parts []*part
	index map[string]*part
}

// relationship is one entry of a .rels part.
type relationship struct {
	ID         string
	Type       string
	Target     string
	TargetMode string
}

// readPackage loads every entry of the archive into memory.
func readPackage(zr *zip.Reader) (*opcPackage, error) {
	pkg := &opcPackage{index: make(map[string]*part)}
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.Name, err)
		}
		p := &part{name: f.Name, data: data, modified: f.Modified}
		pkg.parts = append(pkg.parts, p)
		pkg.index[f.Name] = p
	}
	return pkg, nil
}

func (pkg *opcPackage) has(name string) bool {
	_, ok := pkg.index[name]
	return ok
}

// xml returns the parsed tree of a part.
func (pkg *opcPackage) xml(name string) (*xmlquery.Node, error) {
	p, ok := pkg.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
	}
	if p.doc == nil {
		doc, err := parseXML(p.data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		p.doc = doc
	}
	return p.doc, nil
}

func (pkg *opcPackage) markDirty(name string) {
	if p, ok := pkg.index[name]; ok {
		p.dirty = true
	}
}

// addPart appends a new binary part.
func (pkg *opcPackage) addPart(name string, data []byte) {
	p := &part{name: name, data: data, modified: time.Now()}
	pkg.parts = append(pkg.parts, p)
	pkg.index[name] = p
}

// addXMLPart appends a new part backed by a tree.
func (pkg *opcPackage) addXMLPart(name string, doc *xmlquery.Node) {
	p := &part{name: name, doc: doc, dirty: true, modified: time.Now()}
	pkg.parts = append(pkg.parts, p)
	pkg.index[name] = p
}

// names returns the part names with the given prefix, sorted.
func (pkg *opcPackage) names(prefix string) []string {
	var out []string
	for _, p := range pkg.parts {
		if strings.HasPrefix(p.name, prefix) {
			out = append(out, p.name)
		}
	}
	sort.Strings(out)
	return out
}

// writeTo writes the package as a ZIP archive. Content types come first
// as OPC consumers expect.
func (pkg *opcPackage) writeTo(w io.Writer) error {
	zw := zip.NewWriter(w)

	ordered := make([]*part, 0, len(pkg.parts))
	if ct, ok := pkg.index[contentTypesPart]; ok {
		ordered = append(ordered, ct)
	}
	for _, p := range pkg.parts {
		if p.name != contentTypesPart {
			ordered = append(ordered, p)
		}
	}

	for _, p := range ordered {
		data := p.data
		if p.dirty && p.doc != nil {
			var err error
			if data, err = renderXML(p.doc); err != nil {
				return fmt.Errorf("serializing %s: %w", p.name, err)
			}
		}
		hdr := &zip.FileHeader{Name: p.name, Method: zip.Deflate, Modified: p.modified}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

const (
	contentTypesPart = "[Content_Types].xml"
	packageRelsPart  = "_rels/.rels"
)

// relsName returns the relationships part name for a source part.
// The package itself is represented by the empty string.
func relsName(source string) string {
	if source == "" {
		return packageRelsPart
	}
	dir, file := path.Split(source)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget turns a relationship target into an absolute part name.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir(source), target), "/")
}

// relativeTarget expresses target relative to the directory of source.
func relativeTarget(source, target string) string {
	from := strings.Split(path.Dir(source), "/")
	to := strings.Split(target, "/")
	if path.Dir(source) == "." {
		return target
	}
	i := 0
	for i < len(from) && i < len(to)-1 && from[i] == to[i] {
		i++
	}
	var parts []string
	for range from[i:] {
		parts = append(parts, "..")
	}
	parts = append(parts, to[i:]...)
	return strings.Join(parts, "/")
}

// relationships lists the relationships of source in document order.
// A missing .rels part yields no relationships.
func (pkg *opcPackage) relationships(source string) ([]relationship, error) {
	name := relsName(source)
	if !pkg.has(name) {
		return nil, nil
	}
	doc, err := pkg.xml(name)
	if err != nil {
		return nil, err
	}
	var rels []relationship
	for _, n := range children(rootElement(doc), "Relationship") {
		rels = append(rels, relationship{
			ID:         attr(n, "Id"),
			Type:       attr(n, "Type"),
			Target:     attr(n, "Target"),
			TargetMode: attr(n, "TargetMode"),
		})
	}
	return rels, nil
}

// related returns the absolute part name of the relationship with id.
func (pkg *opcPackage) related(source, id string) (string, bool) {
	rels, err := pkg.relationships(source)
	if err != nil {
		return "", false
	}
	for _, r := range rels {
		if r.ID == id && r.TargetMode != "External" {
			return resolveTarget(source, r.Target), true
		}
	}
	return "", false
}

// relatedByType returns the first internal target of the given type.
func (pkg *opcPackage) relatedByType(source, relType string) (string, bool) {
	rels, err := pkg.relationships(source)
	if err != nil {
		return "", false
	}
	for _, r := range rels {
		if r.Type == relType && r.TargetMode != "External" {
			return resolveTarget(source, r.Target), true
		}
	}
	return "", false
}

// relate returns the ID of a relationship from source to target of the
// given type, adding one with the lowest free rIdN when none exists.
func (pkg *opcPackage) relate(source, relType, target string) (string, error) {
	rels, err := pkg.relationships(source)
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(rels))
	for _, r := range rels {
		if r.Type == relType && r.TargetMode != "External" && resolveTarget(source, r.Target) == target {
			return r.ID, nil
		}
		used[r.ID] = true
	}

	id := ""
	for n := 1; ; n++ {
		id = "rId" + strconv.Itoa(n)
		if !used[id] {
			break
		}
	}

	name := relsName(source)
	if !pkg.has(name) {
		doc, err := parseXML([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<Relationships xmlns="` + nsPackageRels + `"></Relationships>`))
		if err != nil {
			return "", err
		}
		pkg.addXMLPart(name, doc)
	}
	doc, err := pkg.xml(name)
	if err != nil {
		return "", err
	}
	rel := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "Relationship", NamespaceURI: nsPackageRels}
	rel.Attr = []xmlquery.Attr{
		{Name: xml.Name{Local: "Id"}, Value: id},
		{Name: xml.Name{Local: "Type"}, Value: relType},
		{Name: xml.Name{Local: "Target"}, Value: relativeTarget(source, target)},
	}
	xmlquery.AddChild(rootElement(doc), rel)
	pkg.markDirty(name)
	return id, nil
}

// ensureDefaultContentType registers a Default entry for ext when the
// content types part has none.
func (pkg *opcPackage) ensureDefaultContentType(ext, contentType string) error {
	doc, err := pkg.xml(contentTypesPart)
	if err != nil {
		return err
	}
	root := rootElement(doc)
	for _, d := range children(root, "Default") {
		if strings.EqualFold(attr(d, "Extension"), ext) {
			return nil
		}
	}
	def := &xmlquery.Node{Type: xmlquery.ElementNode, Data: "Default", NamespaceURI: nsContentTypes}
	def.Attr = []xmlquery.Attr{
		{Name: xml.Name{Local: "Extension"}, Value: ext},
		{Name: xml.Name{Local: "ContentType"}, Value: contentType},
	}
	// Defaults precede Overrides by convention.
	if first := child(root, "Override"); first != nil {
		insertBefore(first, def)
	} else {
		xmlquery.AddChild(root, def)
	}
	pkg.markDirty(contentTypesPart)
	return nil
}
