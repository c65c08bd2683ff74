// Package slidefill provides a fluent API for filling PowerPoint templates
// from a spreadsheet of replacement pairs.
//
// Basic usage:
//
//	res := slidefill.Open("template.pptx").
//	    Replacements("words.xlsx").
//	    Save("out.pptx")
//	if !res.Success {
//	    // handle res.Err
//	}
//
// With options:
//
//	res := slidefill.Open("template.pptx").
//	    Replacements("words.csv").
//	    Encoding("euc-kr").
//	    Image("{{logo}}", "logo.png").
//	    GroupDepth(2).
//	    Save("out.pptx")
//
// For finer control, the convert, substitute, imageplace and pptx packages
// are also available.
package slidefill

import (
	"github.com/tsawler/slidefill/pptx"
)

// Open returns a Filler for the template at filename. Nothing is read
// until a terminal operation such as Save.
//
// Example:
//
//	res := slidefill.Open("template.pptx").Replacements("words.xlsx").Save("out.pptx")
func Open(filename string) *Filler {
	return &Filler{
		template: filename,
		options:  defaultOptions(),
	}
}

// PageCount returns the number of slides in the presentation at filename.
func PageCount(filename string) (int, error) {
	return pptx.SlideCount(filename)
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	count := slidefill.Must(slidefill.PageCount("deck.pptx"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
