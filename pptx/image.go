package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrUnsupportedImage is returned for data no registered decoder accepts.
var ErrUnsupportedImage = errors.New("pptx: unsupported image format")

// emuPerPixel converts pixels to EMU at 72 dpi.
const emuPerPixel = 12700

// Image is a decoded-header picture ready to embed.
type Image struct {
	Name   string // base file name, used as the picture description
	Data   []byte
	Format string // decoder name: png, jpeg, gif, bmp, tiff, webp
	Width  int    // pixels
	Height int    // pixels
}

// LoadImage reads and validates the image at path.
func LoadImage(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewImage(filepath.Base(path), data)
}

// NewImage validates data by decoding its header.
func NewImage(name string, data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, name)
		}
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("decoding %s: empty image", name)
	}
	return &Image{
		Name:   name,
		Data:   data,
		Format: format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// Ext returns the media part extension for the image.
func (img *Image) Ext() string {
	switch img.Format {
	case "jpeg":
		return "jpg"
	case "tiff":
		return "tiff"
	default:
		return img.Format
	}
}

// ContentType returns the MIME type registered for the extension.
func (img *Image) ContentType() string {
	switch img.Format {
	case "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// NativeSize returns the image size in EMU at 72 dpi.
func (img *Image) NativeSize() (cx, cy int64) {
	return int64(img.Width) * emuPerPixel, int64(img.Height) * emuPerPixel
}

// scale fills in a missing width or height from the native aspect ratio.
func (img *Image) scale(g Geometry) Geometry {
	cx, cy := img.NativeSize()
	switch {
	case g.Width == 0 && g.Height == 0:
		g.Width, g.Height = cx, cy
	case g.Width == 0:
		g.Width = g.Height * cx / cy
	case g.Height == 0:
		g.Height = g.Width * cy / cx
	}
	return g
}
