package format

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{PPTX, "PPTX"},
		{XLSX, "XLSX"},
		{CSV, "CSV"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_Extension(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{PPTX, ".pptx"},
		{XLSX, ".xlsx"},
		{CSV, ".csv"},
		{Unknown, ""},
	}

	for _, tt := range tests {
		if got := tt.format.Extension(); got != tt.want {
			t.Errorf("Format(%d).Extension() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
	}{
		{"deck.pptx", PPTX},
		{"DECK.PPTX", PPTX},
		{"template.potx", PPTX},
		{"words.xlsx", XLSX},
		{"words.XLSM", XLSX},
		{"words.csv", CSV},
		{"words.tsv", CSV},
		{"/path/to/words.csv", CSV},
		{"document.pdf", Unknown},
		{"noext", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		if got := Detect(tt.filename); got != tt.want {
			t.Errorf("Detect(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"empty", nil, Unknown},
		{"zip", []byte{0x50, 0x4B, 0x03, 0x04, 0x00}, Unknown},
		{"csv header", []byte("Start Word,End Word\n{{a}},b\n"), CSV},
		{"tab separated", []byte("start word\tend word\n"), CSV},
		{"binary", []byte{0x00, 0x01, 0x02, 0x2c}, Unknown},
		{"plain text", []byte("hello world\n"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func buildZip(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
		if _, err := w.Write([]byte("<x/>")); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close zip: %v", err)
	}
	return buf.Bytes()
}

func TestDetectFromReader(t *testing.T) {
	tests := []struct {
		name  string
		parts []string
		want  Format
	}{
		{"presentation", []string{"[Content_Types].xml", "ppt/presentation.xml"}, PPTX},
		{"workbook", []string{"[Content_Types].xml", "xl/workbook.xml"}, XLSX},
		{"other zip", []string{"word/document.xml"}, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := buildZip(t, tt.parts...)
			got, err := DetectFromReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("DetectFromReader() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFromReader() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFile(t *testing.T) {
	dir := t.TempDir()

	// Content wins over a misleading extension.
	mislabeled := filepath.Join(dir, "words.csv")
	if err := os.WriteFile(mislabeled, buildZip(t, "xl/workbook.xml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := DetectFile(mislabeled); err != nil || got != XLSX {
		t.Errorf("DetectFile(mislabeled) = %v, %v; want XLSX", got, err)
	}

	// Inconclusive content falls back to the extension.
	single := filepath.Join(dir, "single.csv")
	if err := os.WriteFile(single, []byte("onlyonecolumn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got, err := DetectFile(single); err != nil || got != CSV {
		t.Errorf("DetectFile(single) = %v, %v; want CSV", got, err)
	}

	if _, err := DetectFile(filepath.Join(dir, "missing.xlsx")); err == nil {
		t.Errorf("DetectFile(missing) should fail")
	}
}
