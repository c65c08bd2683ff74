// Package imageplace swaps marker shapes for pictures.
package imageplace

import (
	"log/slog"
	"strings"

	"github.com/tsawler/slidefill/errs"
	"github.com/tsawler/slidefill/pptx"
)

// Resolver replaces marker shapes with images. Decoded images are cached
// by path, so one file used on many slides is read once.
type Resolver struct {
	logger *slog.Logger
	images map[string]*pptx.Image
}

// New returns a Resolver. A nil logger uses slog.Default.
func New(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger, images: make(map[string]*pptx.Image)}
}

// Locate returns the first top-level shape whose text frame contains
// marker. Paragraphs are joined before matching, so a marker split across
// runs is still found. An empty marker matches nothing.
func Locate(s *pptx.Slide, marker string) (pptx.Shape, bool) {
	if marker == "" {
		return nil, false
	}
	for _, sh := range s.Shapes() {
		f, ok := pptx.TextFrameOf(sh)
		if !ok {
			continue
		}
		if strings.Contains(f.Text(), marker) {
			return sh, true
		}
	}
	return nil, false
}

// Resolve replaces the first shape on s containing marker with the image
// at path, keeping the shape's geometry. It reports whether a picture was
// inserted. Failures are logged and leave the slide as it was.
func (r *Resolver) Resolve(s *pptx.Slide, marker, path string) bool {
	pic, err := r.Replace(s, marker, path)
	if err != nil {
		r.logger.Warn("image insertion failed", "slide", s.Number(), "error", err)
		return false
	}
	return pic != nil
}

// Replace is Resolve with the failure returned as an *errs.ImageInsertError.
// It returns nil, nil when no shape on s contains marker.
func (r *Resolver) Replace(s *pptx.Slide, marker, path string) (*pptx.ImageShape, error) {
	sh, ok := Locate(s, marker)
	if !ok {
		return nil, nil
	}
	img, err := r.load(path)
	if err != nil {
		return nil, errs.ImageInsert(marker, path, err)
	}

	g := sh.Geometry()
	edit := s.Edit().Remove(sh).AddPicture(img, g)
	if err := edit.Commit(); err != nil {
		return nil, errs.ImageInsert(marker, path, err)
	}

	pic := edit.Added()[0]
	r.logger.Debug("marker replaced",
		"slide", s.Number(),
		"marker", marker,
		"shape", sh.Name(),
		"picture_id", pic.ID(),
		"media", pic.MediaPart(),
		"left", g.Left, "top", g.Top, "width", g.Width, "height", g.Height)
	return pic, nil
}

func (r *Resolver) load(path string) (*pptx.Image, error) {
	if img, ok := r.images[path]; ok {
		return img, nil
	}
	img, err := pptx.LoadImage(path)
	if err != nil {
		return nil, err
	}
	r.images[path] = img
	return img, nil
}
