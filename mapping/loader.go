package mapping

import (
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/slidefill/errs"
)

// Columns lists the tokens a header must contain to be recognized.
type Columns struct {
	Start []string
	End   []string
}

// DefaultColumns matches "Start Word" and "End Word".
var DefaultColumns = Columns{
	Start: []string{"start", "word"},
	End:   []string{"end", "word"},
}

// Loader turns a spreadsheet into a ReplacementMap.
type Loader struct {
	columns  Columns
	sheet    string
	encoding string
	logger   *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithColumns overrides the header tokens.
func WithColumns(c Columns) Option {
	return func(l *Loader) {
		if len(c.Start) > 0 {
			l.columns.Start = c.Start
		}
		if len(c.End) > 0 {
			l.columns.End = c.End
		}
	}
}

// WithSheet selects a worksheet by name.
func WithSheet(name string) Option {
	return func(l *Loader) { l.sheet = name }
}

// WithEncoding sets the charset label for delimited text sources.
func WithEncoding(name string) Option {
	return func(l *Loader) { l.encoding = name }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader returns a Loader with the default columns.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{columns: DefaultColumns}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	return l
}

// Load reads the spreadsheet at path with a default Loader.
func Load(path string) (*ReplacementMap, error) {
	return NewLoader().Load(path)
}

// Load reads the spreadsheet at path. Missing or unreadable files yield
// *errs.LoadError; header problems *errs.SchemaError; a sheet without
// usable rows *errs.EmptyMappingError.
func (l *Loader) Load(path string) (*ReplacementMap, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errs.Load("spreadsheet", path, err)
	}
	src, err := OpenSource(path, l.sheet, l.encoding)
	if err != nil {
		return nil, errs.Load("spreadsheet", path, err)
	}
	rows, err := src.Rows()
	if err != nil {
		return nil, errs.Load("spreadsheet", path, err)
	}
	return l.FromRows(path, rows)
}

// FromRows builds a map from a header row followed by data rows. The
// first non-empty row is the header. source names the input in errors.
func (l *Loader) FromRows(source string, rows [][]string) (*ReplacementMap, error) {
	header := -1
	for i, row := range rows {
		if !blank(row) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, &errs.SchemaError{Missing: []string{l.describe(l.columns.Start), l.describe(l.columns.End)}}
	}

	names := make([]string, len(rows[header]))
	for i, h := range rows[header] {
		names[i] = Normalize(h)
	}
	start := l.find(names, l.columns.Start)
	end := l.find(names, l.columns.End)
	if start < 0 || end < 0 {
		var missing []string
		if start < 0 {
			missing = append(missing, l.describe(l.columns.Start))
		}
		if end < 0 {
			missing = append(missing, l.describe(l.columns.End))
		}
		return nil, &errs.SchemaError{Missing: missing, Columns: names}
	}

	m := NewReplacementMap()
	skipped := 0
	for _, row := range rows[header+1:] {
		from := strings.TrimSpace(cell(row, start))
		to := strings.TrimSpace(cell(row, end))
		if from == "" || to == "" {
			skipped++
			continue
		}
		m.Set(from, to)
	}

	l.logger.Debug("replacement map loaded",
		"source", source,
		"pairs", m.Len(),
		"skipped_rows", skipped)

	if m.Len() == 0 {
		return nil, &errs.EmptyMappingError{Source: source}
	}
	return m, nil
}

// find returns the index of the last header containing every token.
func (l *Loader) find(names []string, tokens []string) int {
	idx := -1
	for i, name := range names {
		ok := true
		for _, tok := range tokens {
			if !strings.Contains(name, Normalize(tok)) {
				ok = false
				break
			}
		}
		if ok {
			idx = i
		}
	}
	return idx
}

func (l *Loader) describe(tokens []string) string {
	return strings.Join(tokens, " ")
}

// Normalize folds a header for matching: compatibility-normalized (so
// full-width letters match), trimmed and lower-cased.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return cases.Lower(language.Und).String(strings.TrimSpace(norm.NFKC.String(s)))
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
