package errs

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"testing"
)

func TestSentinelMatching(t *testing.T) {
	cause := fmt.Errorf("disk error")

	tests := []struct {
		name     string
		err      error
		wantBase error
	}{
		{"schema", &SchemaError{Missing: []string{"start word"}}, ErrSchema},
		{"empty mapping", &EmptyMappingError{Source: "words.xlsx"}, ErrEmptyMapping},
		{"load without cause", &LoadError{Kind: "template", Path: "a.pptx"}, ErrLoad},
		{"load with cause", &LoadError{Kind: "template", Path: "a.pptx", Err: cause}, ErrLoad},
		{"image insert", &ImageInsertError{Marker: "{{img}}", Path: "a.png", Err: cause}, ErrImageInsert},
		{"serialize", &SerializeError{Path: "out.pptx", Err: cause}, ErrSerialize},
		{"limit", &LimitError{Limit: "pairs", Max: 10, Actual: 11}, ErrLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.wantBase) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantBase)
			}
			wrapped := fmt.Errorf("convert: %w", tt.err)
			if !errors.Is(wrapped, tt.wantBase) {
				t.Errorf("wrapped error does not match %v", tt.wantBase)
			}
		})
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	err := Load("spreadsheet", "missing.xlsx", fs.ErrNotExist)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected LoadError to unwrap to fs.ErrNotExist")
	}

	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("errors.As failed for LoadError")
	}
	if le.Kind != "spreadsheet" || le.Path != "missing.xlsx" {
		t.Errorf("LoadError = %+v", le)
	}
}

func TestMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "schema mentions columns",
			err:  &SchemaError{Missing: []string{"end word"}, Columns: []string{"name", "value"}},
			want: "'Start Word' and 'End Word' columns (missing: end word); found columns: name, value",
		},
		{
			name: "empty mapping without source",
			err:  &EmptyMappingError{},
			want: "no valid replacement pairs found",
		},
		{
			name: "load defaults kind",
			err:  &LoadError{Path: "x"},
			want: "failed to load file x",
		},
		{
			name: "limit",
			err:  &LimitError{Limit: "slides", Max: 5, Actual: 7},
			want: "slides limit exceeded: 7 > 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestCategoriesAreDistinct(t *testing.T) {
	err := &SchemaError{}
	if errors.Is(err, ErrEmptyMapping) {
		t.Errorf("SchemaError must not match ErrEmptyMapping")
	}
	if errors.Is(&EmptyMappingError{}, ErrSchema) {
		t.Errorf("EmptyMappingError must not match ErrSchema")
	}
}
