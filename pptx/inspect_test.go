package pptx

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tsawler/slidefill/errs"
	"github.com/tsawler/slidefill/internal/testutil"
)

func TestInspect(t *testing.T) {
	path := testutil.WritePPTX(t, t.TempDir(), "deck.pptx", twoSlideDeck())

	info, err := Inspect(path)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if info.Slides != 2 {
		t.Errorf("Slides = %d, want 2", info.Slides)
	}
	if info.Width != 9144000 || info.Height != 6858000 {
		t.Errorf("size = %dx%d", info.Width, info.Height)
	}
	if info.Title != "Fixture" || info.Creator != "testutil" {
		t.Errorf("properties = %q %q", info.Title, info.Creator)
	}

	n, err := SlideCount(path)
	if err != nil || n != 2 {
		t.Errorf("SlideCount() = %d, %v; want 2", n, err)
	}
}

func TestInspectZeroSlides(t *testing.T) {
	path := testutil.WritePPTX(t, t.TempDir(), "empty.pptx", testutil.Deck{})
	n, err := SlideCount(path)
	if err != nil {
		t.Fatalf("SlideCount() error = %v", err)
	}
	if n != 0 {
		t.Errorf("SlideCount() = %d, want 0", n)
	}
}

func TestInspectLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.pptx")},
		{"not a zip", testutil.WriteFile(t, dir, "bad.pptx", []byte("plain text"))},
		{"workbook", testutil.WriteWorkbook(t, dir, "book.xlsx", "", [][]any{{"a"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SlideCount(tt.path)
			if err == nil {
				t.Fatalf("SlideCount(%s) should fail", tt.name)
			}
			if !errors.Is(err, errs.ErrLoad) {
				t.Errorf("error = %v, want errs.ErrLoad", err)
			}
			var le *errs.LoadError
			if !errors.As(err, &le) || le.Path != tt.path {
				t.Errorf("LoadError = %+v", le)
			}
		})
	}
}

// withoutEntry copies a PPTX archive, leaving out one entry.
func withoutEntry(t *testing.T, data []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range zr.File {
		if f.Name == name {
			continue
		}
		if err := zw.Copy(f); err != nil {
			t.Fatalf("Failed to copy %s: %v", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestInspectDanglingSlides(t *testing.T) {
	full := testutil.PPTXBytes(t, twoSlideDeck())
	tests := []struct {
		name    string
		missing string
	}{
		{"slide part missing", "ppt/slides/slide2.xml"},
		{"presentation relationships missing", "ppt/_rels/presentation.xml.rels"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := withoutEntry(t, full, tt.missing)
			path := filepath.Join(t.TempDir(), "deck.pptx")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			if n, err := SlideCount(path); !errors.Is(err, errs.ErrLoad) {
				t.Errorf("SlideCount() = %d, %v; want a load error", n, err)
			}
			if _, err := Open(path); err == nil {
				t.Errorf("Open() should fail like SlideCount")
			}
		})
	}

	data := withoutEntry(t, full, "ppt/slides/slide2.xml")
	path := filepath.Join(t.TempDir(), "deck.pptx")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Inspect(path); !errors.Is(err, ErrMissingPart) {
		t.Errorf("Inspect() error = %v, want ErrMissingPart", err)
	}
}
