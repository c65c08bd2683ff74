package slidefill

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tsawler/slidefill/convert"
	"github.com/tsawler/slidefill/mapping"
	"github.com/tsawler/slidefill/pptx"
)

// Result is the outcome of Save.
type Result = convert.Result

// Filler provides a fluent interface for filling a template. Each
// configuration method returns a new Filler, so a base configuration can
// be shared and specialized safely.
type Filler struct {
	template string
	options  FillOptions

	// Accumulated error (fail-fast)
	err error
}

// clone creates a shallow copy of the Filler with a deep copy of options.
func (f *Filler) clone() *Filler {
	return &Filler{
		template: f.template,
		options:  f.options.clone(),
		err:      f.err,
	}
}

// Replacements reads replacement pairs from the spreadsheet at path
// (XLSX or CSV).
func (f *Filler) Replacements(path string) *Filler {
	newF := f.clone()
	newF.options.mappingPath = path
	newF.options.pairs = nil
	return newF
}

// Pairs uses the given replacement pairs instead of a spreadsheet. Later
// pairs with a repeated key overwrite earlier ones.
func (f *Filler) Pairs(pairs ...mapping.Pair) *Filler {
	newF := f.clone()
	newF.options.mappingPath = ""
	newF.options.pairs = append(newF.options.pairs, pairs...)
	return newF
}

// Replace adds one replacement pair.
func (f *Filler) Replace(from, to string) *Filler {
	return f.Pairs(mapping.Pair{From: from, To: to})
}

// Sheet selects the worksheet to read pairs from.
func (f *Filler) Sheet(name string) *Filler {
	newF := f.clone()
	newF.options.sheet = name
	return newF
}

// Encoding sets the charset of a CSV replacement source, e.g. "euc-kr".
func (f *Filler) Encoding(charset string) *Filler {
	newF := f.clone()
	newF.options.encoding = charset
	return newF
}

// Columns overrides the header tokens that identify the start and end
// columns.
func (f *Filler) Columns(start, end []string) *Filler {
	newF := f.clone()
	newF.options.columns = mapping.Columns{Start: start, End: end}
	return newF
}

// Image replaces the first shape containing marker on each slide with the
// image at path. Markers are resolved in the order they were added.
func (f *Filler) Image(marker, path string) *Filler {
	newF := f.clone()
	newF.options.images = append(newF.options.images, convert.ImageEntry{Marker: marker, Path: path})
	return newF
}

// ImagesJSON adds the markers of a JSON object mapping marker to image
// path, in document order.
func (f *Filler) ImagesJSON(data string) *Filler {
	newF := f.clone()
	m, err := convert.ParseImageMappingJSON([]byte(data))
	if err != nil {
		if newF.err == nil {
			newF.err = err
		}
		return newF
	}
	newF.options.images = append(newF.options.images, m.Entries()...)
	return newF
}

// GroupDepth sets how many levels of grouped shapes receive substitution.
// Zero leaves grouped shapes untouched.
func (f *Filler) GroupDepth(depth int) *Filler {
	newF := f.clone()
	if depth < 0 {
		if newF.err == nil {
			newF.err = fmt.Errorf("invalid group depth: %d", depth)
		}
		return newF
	}
	newF.options.groupDepth = depth
	return newF
}

// Limits caps the number of pairs and slides. Zero is unlimited.
func (f *Filler) Limits(maxPairs, maxSlides int) *Filler {
	newF := f.clone()
	newF.options.limits = convert.Limits{MaxPairs: maxPairs, MaxSlides: maxSlides}
	return newF
}

// Logger sets the logger used during the fill.
func (f *Filler) Logger(l *slog.Logger) *Filler {
	newF := f.clone()
	newF.options.logger = l
	return newF
}

// Observe subscribes fn to conversion state changes.
func (f *Filler) Observe(fn convert.Observer) *Filler {
	newF := f.clone()
	newF.options.observers = append(newF.options.observers, fn)
	return newF
}

// Save fills the template and writes the result to output.
func (f *Filler) Save(output string) Result {
	return f.SaveContext(context.Background(), output)
}

// SaveContext is Save with a context carrying the run ID and logger
// attributes.
func (f *Filler) SaveContext(ctx context.Context, output string) Result {
	if f.err != nil {
		return Result{State: convert.Failed, Err: f.err, Error: f.err.Error()}
	}
	return f.options.converter().Convert(ctx, f.request(output))
}

func (f *Filler) request(output string) convert.Request {
	req := convert.Request{
		TemplatePath: f.template,
		MappingPath:  f.options.mappingPath,
		OutputPath:   output,
	}
	if f.options.mappingPath == "" {
		req.Replacements = mapping.FromPairs(f.options.pairs...)
	}
	if len(f.options.images) > 0 {
		req.Images = convert.NewImageMapping(f.options.images...)
	}
	return req
}

// PageCount returns the number of slides in the template.
func (f *Filler) PageCount() (int, error) {
	return pptx.SlideCount(f.template)
}

// Inspect returns the template's slide count, slide size and document
// properties.
func (f *Filler) Inspect() (*pptx.Info, error) {
	return pptx.Inspect(f.template)
}
