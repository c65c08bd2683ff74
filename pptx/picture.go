package pptx

import (
	"encoding/hex"
	"fmt"
	"html"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/zeebo/blake3"
)

const mediaPrefix = "ppt/media/image"

// digest returns the hex BLAKE3 sum of data.
func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// mediaPart returns the part holding img, adding one when no existing
// media part has identical bytes.
func (p *Presentation) mediaPart(img *Image) (string, error) {
	want := digest(img.Data)
	for _, name := range p.pkg.names(mediaPrefix) {
		if digest(p.pkg.index[name].data) == want {
			return name, nil
		}
	}

	name := fmt.Sprintf("%s%d.%s", mediaPrefix, p.nextImageIndex(), img.Ext())
	p.pkg.addPart(name, img.Data)
	if err := p.pkg.ensureDefaultContentType(img.Ext(), img.ContentType()); err != nil {
		return "", err
	}
	return name, nil
}

// nextImageIndex returns the lowest N not used by a ppt/media/imageN part.
func (p *Presentation) nextImageIndex() int {
	var used []int
	for _, name := range p.pkg.names(mediaPrefix) {
		stem := strings.TrimSuffix(strings.TrimPrefix(name, mediaPrefix), path.Ext(name))
		if n, err := strconv.Atoi(stem); err == nil {
			used = append(used, n)
		}
	}
	sort.Ints(used)
	for i, n := range used {
		if i+1 < n {
			return i + 1
		}
	}
	return len(used) + 1
}

const picTemplate = `<%[1]s:pic xmlns:%[1]s="%[2]s" xmlns:%[3]s="%[4]s" xmlns:%[5]s="%[6]s">` +
	`<%[1]s:nvPicPr>` +
	`<%[1]s:cNvPr id="%[7]d" name="%[8]s" descr="%[9]s"/>` +
	`<%[1]s:cNvPicPr><%[3]s:picLocks noChangeAspect="1"/></%[1]s:cNvPicPr>` +
	`<%[1]s:nvPr/>` +
	`</%[1]s:nvPicPr>` +
	`<%[1]s:blipFill>` +
	`<%[3]s:blip %[5]s:embed="%[10]s"/>` +
	`<%[3]s:stretch><%[3]s:fillRect/></%[3]s:stretch>` +
	`</%[1]s:blipFill>` +
	`<%[1]s:spPr>` +
	`<%[3]s:xfrm><%[3]s:off x="%[11]d" y="%[12]d"/><%[3]s:ext cx="%[13]d" cy="%[14]d"/></%[3]s:xfrm>` +
	`<%[3]s:prstGeom prst="rect"><%[3]s:avLst/></%[3]s:prstGeom>` +
	`</%[1]s:spPr>` +
	`</%[1]s:pic>`

// AddPicture embeds img and appends a picture at g to the top of the
// slide's z-order. A zero width or height is derived from the image's
// native size.
func (s *Slide) AddPicture(img *Image, g Geometry) (*ImageShape, error) {
	media, err := s.pres.mediaPart(img)
	if err != nil {
		return nil, err
	}
	rid, err := s.pres.pkg.relate(s.part, relImage, media)
	if err != nil {
		return nil, err
	}

	root := rootElement(s.doc)
	pPrefix := s.tree.Prefix
	if pPrefix == "" {
		pPrefix = prefixFor(root, nsPresentationML, "p")
	}
	aPrefix := prefixFor(root, nsDrawingML, "a")
	rPrefix := prefixFor(root, nsRelationships, "r")

	g = img.scale(g)
	id := s.nextShapeID()
	markup := fmt.Sprintf(picTemplate,
		pPrefix, nsPresentationML,
		aPrefix, nsDrawingML,
		rPrefix, nsRelationships,
		id, html.EscapeString(fmt.Sprintf("Picture %d", id-1)), html.EscapeString(img.Name),
		rid,
		g.Left, g.Top, g.Width, g.Height,
	)
	pic, err := parseFragment(markup)
	if err != nil {
		return nil, fmt.Errorf("building picture: %w", err)
	}

	if ext := child(s.tree, "extLst"); ext != nil {
		insertBefore(ext, pic)
	} else {
		xmlquery.AddChild(s.tree, pic)
	}
	s.touch()
	return &ImageShape{shapeBase{slide: s, node: pic}}, nil
}

// Edit stages shape tree mutations so callers can finish walking the tree
// before it changes. Operations apply in the order they were staged.
type Edit struct {
	slide *Slide
	ops   []func() (undo func(), err error)
	added []*ImageShape
}

// Edit starts a staged edit of the slide.
func (s *Slide) Edit() *Edit {
	return &Edit{slide: s}
}

// Remove stages removal of sh.
func (e *Edit) Remove(sh Shape) *Edit {
	e.ops = append(e.ops, func() (func(), error) { return e.slide.removeShape(sh) })
	return e
}

// AddPicture stages insertion of a picture.
func (e *Edit) AddPicture(img *Image, g Geometry) *Edit {
	e.ops = append(e.ops, func() (func(), error) {
		pic, err := e.slide.AddPicture(img, g)
		if err != nil {
			return nil, err
		}
		e.added = append(e.added, pic)
		return func() {
			xmlquery.RemoveFromTree(pic.node)
			e.added = e.added[:len(e.added)-1]
		}, nil
	})
	return e
}

// Pending returns the number of staged operations.
func (e *Edit) Pending() int { return len(e.ops) }

// Commit applies the staged operations. When one fails, the operations
// already applied are undone in reverse order, so the shape tree is left
// as it was, and the error is returned. Media parts and relationships
// added before the failure are kept.
func (e *Edit) Commit() error {
	ops := e.ops
	e.ops = nil
	var undo []func()
	for _, op := range ops {
		u, err := op()
		if err != nil {
			for i := len(undo) - 1; i >= 0; i-- {
				undo[i]()
			}
			return err
		}
		undo = append(undo, u)
	}
	return nil
}

// Added returns the pictures inserted by Commit.
func (e *Edit) Added() []*ImageShape { return e.added }
