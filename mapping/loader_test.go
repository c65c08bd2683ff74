package mapping

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/tsawler/slidefill/errs"
	"github.com/tsawler/slidefill/internal/testutil"
)

func TestReplacementMapOrder(t *testing.T) {
	m := NewReplacementMap()
	m.Set("b", "1")
	m.Set("a", "2")
	m.Set("b", "3")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"b", "a"}, m.Keys())
	assert.Equal(t, []Pair{{"b", "3"}, {"a", "2"}}, m.Pairs())

	v, ok := m.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	_, ok = m.Get("missing")
	assert.False(t, ok)

	var nilMap *ReplacementMap
	assert.Equal(t, 0, nilMap.Len())
	assert.Nil(t, nilMap.Pairs())
}

func TestFromRows(t *testing.T) {
	tests := []struct {
		name      string
		rows      [][]string
		wantPairs []Pair
	}{
		{
			name: "basic",
			rows: [][]string{
				{"Start Word", "End Word"},
				{"{{name}}", "World"},
				{"{{city}}", "Seoul"},
			},
			wantPairs: []Pair{{"{{name}}", "World"}, {"{{city}}", "Seoul"}},
		},
		{
			name: "headers are trimmed and case-folded",
			rows: [][]string{
				{"  START WORD ", "end word  ", "note"},
				{"a", "b", "ignored"},
			},
			wantPairs: []Pair{{"a", "b"}},
		},
		{
			name: "full-width headers",
			rows: [][]string{
				{"Ｓｔａｒｔ Ｗｏｒｄ", "Ｅｎｄ Ｗｏｒｄ"},
				{"x", "y"},
			},
			wantPairs: []Pair{{"x", "y"}},
		},
		{
			name: "values trimmed, blank rows skipped",
			rows: [][]string{
				{"Start Word", "End Word"},
				{"  key  ", "  value  "},
				{"", "orphan"},
				{"lonely", "   "},
				{},
				{"short"},
			},
			wantPairs: []Pair{{"key", "value"}},
		},
		{
			name: "duplicates: last value wins, first position kept",
			rows: [][]string{
				{"Start Word", "End Word"},
				{"k1", "first"},
				{"k2", "two"},
				{"k1", "last"},
			},
			wantPairs: []Pair{{"k1", "last"}, {"k2", "two"}},
		},
		{
			name: "last matching column wins",
			rows: [][]string{
				{"Start Word (old)", "Start Word", "End Word"},
				{"old", "new", "value"},
			},
			wantPairs: []Pair{{"new", "value"}},
		},
		{
			name: "leading blank rows before header",
			rows: [][]string{
				{},
				{"", ""},
				{"Start Word", "End Word"},
				{"a", "b"},
			},
			wantPairs: []Pair{{"a", "b"}},
		},
		{
			name: "columns in any order",
			rows: [][]string{
				{"End Word", "Comment", "Start Word"},
				{"to", "", "from"},
			},
			wantPairs: []Pair{{"from", "to"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewLoader().FromRows("test", tt.rows)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPairs, m.Pairs())
		})
	}
}

func TestFromRowsUniqueCount(t *testing.T) {
	rows := [][]string{{"Start Word", "End Word"}}
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		rows = append(rows, []string{k, k + "!"})
	}
	m, err := NewLoader().FromRows("test", rows)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())

	rows = append(rows, []string{"a", "again"})
	m, err = NewLoader().FromRows("test", rows)
	require.NoError(t, err)
	assert.Equal(t, 5, m.Len())
	v, _ := m.Get("a")
	assert.Equal(t, "again", v)
}

func TestFromRowsSchemaError(t *testing.T) {
	tests := []struct {
		name        string
		rows        [][]string
		wantMissing []string
	}{
		{"name/value", [][]string{{"Name", "Value"}, {"a", "b"}}, []string{"start word", "end word"}},
		{"only start", [][]string{{"Start Word", "Replacement"}}, []string{"end word"}},
		{"empty sheet", nil, []string{"start word", "end word"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().FromRows("test", tt.rows)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrSchema))

			var se *errs.SchemaError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantMissing, se.Missing)
			assert.Contains(t, err.Error(), "Start Word")
		})
	}
}

func TestFromRowsEmptyMapping(t *testing.T) {
	_, err := NewLoader().FromRows("words.xlsx", [][]string{
		{"Start Word", "End Word"},
		{"", ""},
		{"a", ""},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrEmptyMapping))
	assert.False(t, errors.Is(err, errs.ErrSchema))
	assert.Contains(t, err.Error(), "words.xlsx")
}

func TestCustomColumns(t *testing.T) {
	l := NewLoader(WithColumns(Columns{Start: []string{"Placeholder"}, End: []string{"Value"}}))
	m, err := l.FromRows("test", [][]string{{"placeholder", "value"}, {"{{x}}", "1"}})
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"{{x}}", "1"}}, m.Pairs())
}

func TestLoadXLSX(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteWorkbook(t, dir, "words.xlsx", "", [][]any{
		{"Start Word", "End Word"},
		{"{{name}}", "World"},
		{"{{count}}", 42},
		{nil, "skipped"},
	})

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"{{name}}", "World"}, {"{{count}}", "42"}}, m.Pairs())
}

func TestLoadXLSXSheetSelection(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteWorkbook(t, dir, "words.xlsx", "Notes", [][]any{{"nothing here"}})
	testutil.AddSheet(t, path, "Pairs", [][]any{
		{"Start Word", "End Word"},
		{"a", "b"},
	})

	_, err := Load(path)
	assert.True(t, errors.Is(err, errs.ErrSchema), "first sheet has no columns: %v", err)

	m, err := NewLoader(WithSheet("Pairs")).Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	_, err = NewLoader(WithSheet("Missing")).Load(path)
	assert.True(t, errors.Is(err, errs.ErrLoad), "unknown sheet: %v", err)
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()

	utf8 := testutil.WriteFile(t, dir, "words.csv", []byte("\ufeffStart Word,End Word\n\"{{a}}\",\"x, y\"\n{{b}},z\n"))
	m, err := Load(utf8)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"{{a}}", "x, y"}, {"{{b}}", "z"}}, m.Pairs())

	semi := testutil.WriteFile(t, dir, "semi.csv", []byte("Start Word;End Word\na;b\n"))
	m, err = Load(semi)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{"a", "b"}}, m.Pairs())

	encoded, err := korean.EUCKR.NewEncoder().String("Start Word,End Word\n{{이름}},홍길동\n")
	require.NoError(t, err)
	legacy := testutil.WriteFile(t, dir, "legacy.csv", []byte(encoded))
	m, err = NewLoader(WithEncoding("euc-kr")).Load(legacy)
	require.NoError(t, err)
	v, ok := m.Get("{{이름}}")
	assert.True(t, ok)
	assert.Equal(t, "홍길동", v)

	_, err = NewLoader(WithEncoding("no-such-charset")).Load(legacy)
	assert.True(t, errors.Is(err, errs.ErrLoad))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.xlsx"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrLoad))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadCorruptWorkbook(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.xlsx", []byte{0x50, 0x4B, 0x03, 0x04, 0x00, 0x00})
	_, err := Load(path)
	assert.True(t, errors.Is(err, errs.ErrLoad), "got %v", err)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "start word", Normalize("  Start Word\t"))
	assert.Equal(t, "end word", Normalize("\ufeffEND WORD"))
	assert.Equal(t, "start word", Normalize("Ｓｔａｒｔ Ｗｏｒｄ"))
}
