package slidefill

import (
	"log/slog"

	"github.com/tsawler/slidefill/convert"
	"github.com/tsawler/slidefill/mapping"
	"github.com/tsawler/slidefill/substitute"
)

// FillOptions holds configuration for a fill.
type FillOptions struct {
	// Replacement source: a spreadsheet path or in-memory pairs
	mappingPath string
	pairs       []mapping.Pair

	// Spreadsheet reading
	sheet    string
	encoding string
	columns  mapping.Columns

	// Images in marker order
	images []convert.ImageEntry

	// Processing options
	groupDepth int
	limits     convert.Limits

	logger    *slog.Logger
	observers []convert.Observer
}

// defaultOptions returns the default fill options.
func defaultOptions() FillOptions {
	return FillOptions{
		groupDepth: substitute.DefaultGroupDepth,
	}
}

// clone creates a deep copy of FillOptions.
func (o FillOptions) clone() FillOptions {
	newOpts := o
	newOpts.pairs = append([]mapping.Pair(nil), o.pairs...)
	newOpts.images = append([]convert.ImageEntry(nil), o.images...)
	newOpts.observers = append([]convert.Observer(nil), o.observers...)
	newOpts.columns = mapping.Columns{
		Start: append([]string(nil), o.columns.Start...),
		End:   append([]string(nil), o.columns.End...),
	}
	return newOpts
}

// loader builds the spreadsheet loader for the options.
func (o FillOptions) loader() *mapping.Loader {
	opts := []mapping.Option{
		mapping.WithSheet(o.sheet),
		mapping.WithEncoding(o.encoding),
		mapping.WithColumns(o.columns),
	}
	if o.logger != nil {
		opts = append(opts, mapping.WithLogger(o.logger))
	}
	return mapping.NewLoader(opts...)
}

// converter builds the converter for the options.
func (o FillOptions) converter() *convert.Converter {
	opts := []convert.Option{
		convert.WithLoader(o.loader()),
		convert.WithGroupDepth(o.groupDepth),
		convert.WithLimits(o.limits),
	}
	if o.logger != nil {
		opts = append(opts, convert.WithLogger(o.logger))
	}
	for _, fn := range o.observers {
		opts = append(opts, convert.WithObserver(fn))
	}
	return convert.New(opts...)
}
