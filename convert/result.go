package convert

import (
	"encoding/json"
	"io"
	"time"

	"github.com/tsawler/slidefill/substitute"
)

// Result is the outcome of one conversion. Only the fields with JSON
// names are part of the printed report.
type Result struct {
	Success        bool
	PageCount      int
	PairCount      int
	ImagesInserted int
	OutputPath     string
	Error          string

	// Err is the failure cause, for errors.Is checks.
	Err      error
	RunID    string
	State    State
	Stats    substitute.Stats
	Duration time.Duration
}

type successReport struct {
	Success        bool   `json:"success"`
	PageCount      int    `json:"page_count"`
	PairCount      int    `json:"pair_count"`
	ImagesInserted int    `json:"images_inserted"`
	OutputPath     string `json:"output_path"`
}

type failureReport struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Report returns the value printed for r: the success fields, or the
// success flag and error message on failure.
func (r Result) Report() any {
	if !r.Success {
		return failureReport{Success: false, Error: r.Error}
	}
	return successReport{
		Success:        true,
		PageCount:      r.PageCount,
		PairCount:      r.PairCount,
		ImagesInserted: r.ImagesInserted,
		OutputPath:     r.OutputPath,
	}
}

// WriteJSON writes the report as one line of JSON. Non-ASCII text and
// HTML-significant characters are written as is.
func (r Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r.Report())
}
