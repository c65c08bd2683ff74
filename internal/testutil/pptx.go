// Package testutil builds PPTX, XLSX and image fixtures for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Rect is a shape position and size in EMU.
type Rect struct {
	X, Y, W, H int64
}

// Deck describes a presentation fixture. Each slide is the inner markup of
// its p:spTree, built with the shape helpers below.
type Deck struct {
	Slides []string
	// Layout and Master are spTree bodies for the single layout and master
	// every slide links to. Empty means a bare tree.
	Layout string
	Master string
	// Extra parts added verbatim, keyed by part name.
	Extra map[string][]byte
}

const (
	nsP   = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA   = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR   = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsRel = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOffice = nsR + "/officeDocument"
	relSlide  = nsR + "/slide"
	relLayout = nsR + "/slideLayout"
	relMaster = nsR + "/slideMaster"
)

const treeHead = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
	`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`

func slidePart(root, body string) string {
	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<p:` + root + ` xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:spTree>` + treeHead + body + `</p:spTree></p:cSld>` +
		`</p:` + root + `>`
}

type rel struct{ id, typ, target string }

func relsPart(rels ...rel) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<Relationships xmlns="` + nsRel + `">`)
	for _, r := range rels {
		fmt.Fprintf(&b, `<Relationship Id="%s" Type="%s" Target="%s"/>`, r.id, r.typ, r.target)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

// PPTXBytes renders d as a PPTX archive.
func PPTXBytes(t testing.TB, d Deck) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name, content string) {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	var ct strings.Builder
	ct.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	ct.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	ct.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	ct.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	ct.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	ct.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	ct.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	for i := range d.Slides {
		fmt.Fprintf(&ct, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	ct.WriteString(`</Types>`)
	write("[Content_Types].xml", ct.String())

	write("_rels/.rels", relsPart(rel{"rId1", relOffice, "ppt/presentation.xml"}))

	presRels := []rel{{"rId1", relMaster, "slideMasters/slideMaster1.xml"}}
	var ids strings.Builder
	for i := range d.Slides {
		rid := fmt.Sprintf("rId%d", i+2)
		presRels = append(presRels, rel{rid, relSlide, fmt.Sprintf("slides/slide%d.xml", i+1)})
		fmt.Fprintf(&ids, `<p:sldId id="%d" r:id="%s"/>`, 256+i, rid)
	}
	write("ppt/_rels/presentation.xml.rels", relsPart(presRels...))

	write("ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
		`<p:presentation xmlns:a="`+nsA+`" xmlns:r="`+nsR+`" xmlns:p="`+nsP+`">`+
		`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`+
		`<p:sldIdLst>`+ids.String()+`</p:sldIdLst>`+
		`<p:sldSz cx="9144000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/>`+
		`</p:presentation>`)

	write("ppt/slideMasters/slideMaster1.xml", slidePart("sldMaster", d.Master))
	write("ppt/slideMasters/_rels/slideMaster1.xml.rels", relsPart(rel{"rId1", relLayout, "../slideLayouts/slideLayout1.xml"}))
	write("ppt/slideLayouts/slideLayout1.xml", slidePart("sldLayout", d.Layout))
	write("ppt/slideLayouts/_rels/slideLayout1.xml.rels", relsPart(rel{"rId1", relMaster, "../slideMasters/slideMaster1.xml"}))

	for i, body := range d.Slides {
		write(fmt.Sprintf("ppt/slides/slide%d.xml", i+1), slidePart("sld", body))
		write(fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1), relsPart(rel{"rId1", relLayout, "../slideLayouts/slideLayout1.xml"}))
	}

	write("docProps/core.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`+"\n"+
		`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/">`+
		`<dc:title>Fixture</dc:title><dc:creator>testutil</dc:creator></cp:coreProperties>`)

	for name, data := range d.Extra {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s in zip: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// WritePPTX writes d to dir/name and returns the path.
func WritePPTX(t testing.TB, dir, name string, d Deck) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, PPTXBytes(t, d), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// Para is a paragraph given as its runs' texts.
type Para []string

func xfrm(r *Rect) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm>`, r.X, r.Y, r.W, r.H)
}

func txBody(prefix string, paras []Para) string {
	var b strings.Builder
	b.WriteString(`<` + prefix + `:txBody><a:bodyPr/><a:lstStyle/>`)
	for _, p := range paras {
		b.WriteString(`<a:p>`)
		for _, run := range p {
			b.WriteString(`<a:r><a:rPr lang="en-US" dirty="0"/><a:t>` + html.EscapeString(run) + `</a:t></a:r>`)
		}
		b.WriteString(`</a:p>`)
	}
	b.WriteString(`</` + prefix + `:txBody>`)
	return b.String()
}

// TextBox returns a p:sp with the given paragraphs.
func TextBox(id int, name string, r *Rect, paras ...Para) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name) +
		`<p:spPr>` + xfrm(r) + `<a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>` +
		txBody("p", paras) + `</p:sp>`
}

// Shape returns a p:sp without a text body.
func Shape(id int, name string, r *Rect) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr>`, id, name) +
		`<p:spPr>` + xfrm(r) + `</p:spPr></p:sp>`
}

// Placeholder returns a placeholder p:sp. A nil r leaves the transform to
// be inherited from the layout.
func Placeholder(id int, name, phType string, idx int, r *Rect, paras ...Para) string {
	ph := `<p:ph`
	if phType != "" {
		ph += fmt.Sprintf(` type="%s"`, phType)
	}
	if idx > 0 {
		ph += fmt.Sprintf(` idx="%d"`, idx)
	}
	ph += `/>`
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr/><p:nvPr>%s</p:nvPr></p:nvSpPr>`, id, name, ph) +
		`<p:spPr>` + xfrm(r) + `</p:spPr>` + txBody("p", paras) + `</p:sp>`
}

// Table returns a graphic frame holding a table with one run per cell.
func Table(id int, name string, r *Rect, rows [][]string) string {
	cols := 0
	for _, row := range rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<p:graphicFrame><p:nvGraphicFramePr><p:cNvPr id="%d" name="%s"/><p:cNvGraphicFramePr><a:graphicFrameLocks noGrp="1"/></p:cNvGraphicFramePr><p:nvPr/></p:nvGraphicFramePr>`, id, name)
	if r != nil {
		fmt.Fprintf(&b, `<p:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></p:xfrm>`, r.X, r.Y, r.W, r.H)
	}
	b.WriteString(`<a:graphic><a:graphicData uri="http://schemas.openxmlformats.org/drawingml/2006/table"><a:tbl><a:tblPr firstRow="1" bandRow="1"/><a:tblGrid>`)
	for i := 0; i < cols; i++ {
		b.WriteString(`<a:gridCol w="1828800"/>`)
	}
	b.WriteString(`</a:tblGrid>`)
	for _, row := range rows {
		b.WriteString(`<a:tr h="370840">`)
		for _, cell := range row {
			b.WriteString(`<a:tc>` + txBody("a", []Para{{cell}}) + `<a:tcPr/></a:tc>`)
		}
		b.WriteString(`</a:tr>`)
	}
	b.WriteString(`</a:tbl></a:graphicData></a:graphic></p:graphicFrame>`)
	return b.String()
}

// Group returns a p:grpSp wrapping the member markup.
func Group(id int, name string, r *Rect, members ...string) string {
	x := ""
	if r != nil {
		x = fmt.Sprintf(`<a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/><a:chOff x="%d" y="%d"/><a:chExt cx="%d" cy="%d"/></a:xfrm>`,
			r.X, r.Y, r.W, r.H, r.X, r.Y, r.W, r.H)
	}
	return fmt.Sprintf(`<p:grpSp><p:nvGrpSpPr><p:cNvPr id="%d" name="%s"/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`, id, name) +
		`<p:grpSpPr>` + x + `</p:grpSpPr>` + strings.Join(members, "") + `</p:grpSp>`
}

// Connector returns a p:cxnSp.
func Connector(id int, name string, r *Rect) string {
	return fmt.Sprintf(`<p:cxnSp><p:nvCxnSpPr><p:cNvPr id="%d" name="%s"/><p:cNvCxnSpPr/><p:nvPr/></p:nvCxnSpPr>`, id, name) +
		`<p:spPr>` + xfrm(r) + `<a:prstGeom prst="line"><a:avLst/></a:prstGeom></p:spPr></p:cxnSp>`
}

// RawParagraphs returns a text box whose txBody holds the given a:p
// markup verbatim, for runs with fields, breaks or split formatting.
func RawParagraphs(id int, name string, r *Rect, paras string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, id, name) +
		`<p:spPr>` + xfrm(r) + `</p:spPr><p:txBody><a:bodyPr/><a:lstStyle/>` + paras + `</p:txBody></p:sp>`
}

// ZipEntries returns the contents of every entry in a ZIP archive.
func ZipEntries(t testing.TB, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open archive: %v", err)
	}
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Failed to open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("Failed to read %s: %v", f.Name, err)
		}
		out[f.Name] = b
	}
	return out
}
