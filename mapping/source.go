package mapping

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
	"golang.org/x/net/html/charset"

	"github.com/tsawler/slidefill/format"
)

// Source yields a table whose first row is the header.
type Source interface {
	Rows() ([][]string, error)
}

// ErrNoSheets is returned for a workbook without worksheets.
var ErrNoSheets = errors.New("mapping: workbook has no sheets")

// XLSXSource reads one worksheet of an Excel workbook. Cell values are
// returned as formatted by the workbook, as a user sees them.
type XLSXSource struct {
	Path  string
	Sheet string // empty selects the first sheet
}

// Rows returns the worksheet rows.
func (s XLSXSource) Rows() ([][]string, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, ErrNoSheets
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return rows, nil
}

// CSVSource reads delimited text. The delimiter is sniffed from the first
// line (comma, semicolon or tab). Encoding names a charset label such as
// "euc-kr"; when empty the encoding is detected from a byte order mark
// and UTF-8 validity.
type CSVSource struct {
	Path     string
	Encoding string
}

// Rows returns the parsed records.
func (s CSVSource) Rows() ([][]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}

	contentType := "text/csv"
	if s.Encoding != "" {
		if enc, _ := charset.Lookup(s.Encoding); enc == nil {
			return nil, fmt.Errorf("mapping: unknown encoding %q", s.Encoding)
		}
		contentType += "; charset=" + s.Encoding
	}
	text, err := charset.NewReader(bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.Path, err)
	}

	r := csv.NewReader(text)
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// sniffDelimiter picks the most frequent candidate in the first line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(c))); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// OpenSource picks a Source for path by content, then extension.
// Anything not recognized as delimited text is read as a workbook.
func OpenSource(path, sheet, encoding string) (Source, error) {
	f, err := format.DetectFile(path)
	if err != nil {
		return nil, err
	}
	if f == format.CSV {
		return CSVSource{Path: path, Encoding: encoding}, nil
	}
	return XLSXSource{Path: path, Sheet: sheet}, nil
}
