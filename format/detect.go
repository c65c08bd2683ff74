// Package format provides input format detection for slidefill.
package format

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PPTX indicates a Microsoft PowerPoint (.pptx) presentation.
	PPTX
	// XLSX indicates a Microsoft Excel (.xlsx, .xlsm) workbook.
	XLSX
	// CSV indicates comma-separated text.
	CSV
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PPTX:
		return "PPTX"
	case XLSX:
		return "XLSX"
	case CSV:
		return "CSV"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PPTX:
		return ".pptx"
	case XLSX:
		return ".xlsx"
	case CSV:
		return ".csv"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pptx", ".pptm", ".potx":
		return PPTX
	case ".xlsx", ".xlsm", ".xltx":
		return XLSX
	case ".csv", ".tsv", ".txt":
		return CSV
	default:
		return Unknown
	}
}

// isZIP reports whether data starts with the local file header signature.
func isZIP(data []byte) bool {
	return len(data) >= 4 && data[0] == 0x50 && data[1] == 0x4B && data[2] == 0x03 && data[3] == 0x04
}

// DetectFromMagic checks leading bytes to determine format.
// ZIP containers are ambiguous at this level and report Unknown;
// use DetectFromReader to tell workbooks from presentations.
func DetectFromMagic(data []byte) Format {
	if len(data) == 0 || isZIP(data) {
		return Unknown
	}
	if looksLikeText(data) {
		return CSV
	}
	return Unknown
}

// looksLikeText reports whether data is plausibly delimited text: no NUL
// bytes and at least one delimiter in the first line. Legacy encodings
// such as CP949 are accepted since they contain no NUL bytes.
func looksLikeText(data []byte) bool {
	if bytes.IndexByte(data, 0) >= 0 {
		return false
	}
	line := data
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		line = data[:i]
	}
	return bytes.ContainsAny(line, ",;\t")
}

// DetectFromReader inspects the content to determine format.
// It distinguishes ZIP-based formats by their part names.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	if isZIP(magic) {
		return detectZIPFormat(r, size)
	}
	return DetectFromMagic(magic), nil
}

// detectZIPFormat inspects a ZIP archive to decide between XLSX and PPTX.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}

	for _, f := range zr.File {
		switch {
		case f.Name == "[Content_Types].xml":
			continue
		case strings.HasPrefix(f.Name, "xl/"):
			return XLSX, nil
		case strings.HasPrefix(f.Name, "ppt/"):
			return PPTX, nil
		}
	}

	return Unknown, nil
}

// DetectFile determines the format of the file at path from its content,
// falling back to the extension when the content is inconclusive.
func DetectFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Unknown, err
	}

	got, err := DetectFromReader(f, info.Size())
	if err != nil || got == Unknown {
		return Detect(path), nil
	}
	return got, nil
}
