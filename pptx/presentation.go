package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Package-level sentinel errors.
var (
	// ErrMissingPart is returned when a referenced part is not in the package.
	ErrMissingPart = errors.New("pptx: missing part")
	// ErrNoPresentation is returned when the package has no presentation part.
	ErrNoPresentation = errors.New("pptx: no presentation part")
	// ErrOverwriteTemplate is returned when saving over the source file.
	ErrOverwriteTemplate = errors.New("pptx: refusing to overwrite the source presentation")
	// ErrForeignShape is returned when a shape is edited through another slide.
	ErrForeignShape = errors.New("pptx: shape does not belong to this slide")
)

// Presentation is an in-memory, editable PPTX package.
type Presentation struct {
	pkg    *opcPackage
	main   string // presentation part name, usually ppt/presentation.xml
	slides []*Slide
	source string // absolute path the package was read from, if any
}

// Open reads the PPTX file at filename into memory. The file is closed
// before Open returns; later edits never touch it.
func Open(filename string) (*Presentation, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	defer zr.Close()

	p, err := load(&zr.Reader)
	if err != nil {
		return nil, err
	}
	if abs, err := filepath.Abs(filename); err == nil {
		p.source = abs
	}
	return p, nil
}

// Read loads a PPTX package from r.
func Read(r io.ReaderAt, size int64) (*Presentation, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening ZIP archive: %w", err)
	}
	return load(zr)
}

// ReadBytes loads a PPTX package from memory.
func ReadBytes(data []byte) (*Presentation, error) {
	return Read(bytes.NewReader(data), int64(len(data)))
}

func load(zr *zip.Reader) (*Presentation, error) {
	pkg, err := readPackage(zr)
	if err != nil {
		return nil, err
	}
	if !pkg.has(contentTypesPart) {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, contentTypesPart)
	}

	main, ok := pkg.relatedByType("", relOfficeDocument)
	if !ok {
		main = "ppt/presentation.xml"
	}
	if !pkg.has(main) {
		return nil, ErrNoPresentation
	}

	p := &Presentation{pkg: pkg, main: main}
	if err := p.parseSlides(); err != nil {
		return nil, fmt.Errorf("parsing presentation: %w", err)
	}
	return p, nil
}

// parseSlides builds the slide list in sldIdLst order.
func (p *Presentation) parseSlides() error {
	doc, err := p.pkg.xml(p.main)
	if err != nil {
		return err
	}
	list := child(rootElement(doc), "sldIdLst")
	for _, id := range children(list, "sldId") {
		rid := attrNS(id, nsRelationships, "id")
		name, ok := p.pkg.related(p.main, rid)
		if !ok {
			return fmt.Errorf("slide relationship %q not found", rid)
		}
		if !p.pkg.has(name) {
			return fmt.Errorf("%w: %s", ErrMissingPart, name)
		}
		slideDoc, err := p.pkg.xml(name)
		if err != nil {
			return err
		}
		tree := descend(rootElement(slideDoc), "cSld", "spTree")
		if tree == nil {
			return fmt.Errorf("%s: no shape tree", name)
		}
		p.slides = append(p.slides, &Slide{
			pres:  p,
			index: len(p.slides),
			part:  name,
			doc:   slideDoc,
			tree:  tree,
		})
	}
	return nil
}

// Slides returns the slides in presentation order.
func (p *Presentation) Slides() []*Slide {
	out := make([]*Slide, len(p.slides))
	copy(out, p.slides)
	return out
}

// SlideCount returns the number of slides.
func (p *Presentation) SlideCount() int {
	return len(p.slides)
}

// PageCount is an alias for SlideCount.
func (p *Presentation) PageCount() int {
	return p.SlideCount()
}

// Slide returns the slide at a 0-based index.
func (p *Presentation) Slide(index int) (*Slide, error) {
	if index < 0 || index >= len(p.slides) {
		return nil, fmt.Errorf("slide index %d out of range [0, %d)", index, len(p.slides))
	}
	return p.slides[index], nil
}

// Write serializes the package to w.
func (p *Presentation) Write(w io.Writer) error {
	return p.pkg.writeTo(w)
}

// SaveAs writes the package to path. The file is written to a temporary
// sibling and renamed into place, so a failure leaves no partial output.
// The output directory must exist. A replaced file keeps its permissions;
// a new file gets 0644. Saving over the file the presentation was opened
// from is refused.
func (p *Presentation) SaveAs(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if p.source != "" && sameFile(abs, p.source) {
		return ErrOverwriteTemplate
	}

	mode := os.FileMode(0o644)
	if fi, err := os.Stat(abs); err == nil {
		if fi.IsDir() {
			return fmt.Errorf("%s is a directory", path)
		}
		mode = fi.Mode().Perm()
	}

	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := p.pkg.writeTo(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// sameFile reports whether a and b name the same file on disk.
func sameFile(a, b string) bool {
	if a == b {
		return true
	}
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
