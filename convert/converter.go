// Package convert runs a template conversion from spreadsheet to output
// presentation and reports the result.
//
// A conversion moves through the states
//
//	Idle → LoadingMapping → Substituting → InsertingImages → Serializing → Done
//
// and lands in Failed from any of them. Every failure, including a panic,
// is turned into a failed Result; nothing is written before Serializing.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/tsawler/slidefill/errs"
	"github.com/tsawler/slidefill/imageplace"
	"github.com/tsawler/slidefill/internal/logging"
	"github.com/tsawler/slidefill/mapping"
	"github.com/tsawler/slidefill/pptx"
	"github.com/tsawler/slidefill/substitute"
)

// Request names the inputs and output of a conversion. Replacements, when
// set, is used instead of loading MappingPath.
type Request struct {
	TemplatePath string
	MappingPath  string
	OutputPath   string
	Replacements *mapping.ReplacementMap
	Images       *ImageMapping // optional
}

// Limits caps the size of a conversion. Zero means unlimited.
type Limits struct {
	MaxPairs  int
	MaxSlides int
}

// Converter runs conversions. It holds no per-run state and may be reused.
type Converter struct {
	loader     *mapping.Loader
	limits     Limits
	groupDepth int
	logger     *slog.Logger
	observers  []Observer
}

// Option configures a Converter.
type Option func(*Converter)

// WithLoader sets the spreadsheet loader.
func WithLoader(l *mapping.Loader) Option {
	return func(c *Converter) { c.loader = l }
}

// WithLimits sets the pair and slide caps.
func WithLimits(l Limits) Option {
	return func(c *Converter) { c.limits = l }
}

// WithGroupDepth sets how deep text substitution descends into groups.
func WithGroupDepth(depth int) Option {
	return func(c *Converter) { c.groupDepth = depth }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) { c.logger = logger }
}

// WithObserver subscribes fn to state transitions.
func WithObserver(fn Observer) Option {
	return func(c *Converter) { c.observers = append(c.observers, fn) }
}

// New returns a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{groupDepth: substitute.DefaultGroupDepth}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.loader == nil {
		c.loader = mapping.NewLoader(mapping.WithLogger(c.logger))
	}
	return c
}

// run is the state of one conversion.
type run struct {
	c      *Converter
	log    *slog.Logger
	state  State
	result Result
}

func (r *run) enter(s State) {
	from := r.state
	r.state = s
	r.log.Debug("state changed", "from", from.String(), "to", s.String())
	for _, fn := range r.c.observers {
		fn(from, s)
	}
}

func (r *run) fail(err error) Result {
	r.result.Success = false
	r.result.Err = err
	r.result.Error = err.Error()
	r.enter(Failed)
	r.log.Error("conversion failed", "error", err)
	return r.result
}

// Convert runs one conversion. The run ID is taken from ctx when set
// with logging.WithRunID, otherwise generated.
func (c *Converter) Convert(ctx context.Context, req Request) (res Result) {
	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	r := &run{
		c:      c,
		log:    logging.FromContext(ctx, c.logger),
		result: Result{RunID: runID},
	}
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = r.fail(fmt.Errorf("internal error: %v", p))
		}
		res.State = r.state
		res.Duration = time.Since(start)
	}()

	r.log.Info("conversion started",
		"template", req.TemplatePath,
		"mapping", req.MappingPath,
		"output", req.OutputPath,
		"images", req.Images.Len())

	r.enter(LoadingMapping)
	m, err := c.replacements(req)
	if err != nil {
		return r.fail(err)
	}
	if limit := c.limits.MaxPairs; limit > 0 && m.Len() > limit {
		return r.fail(&errs.LimitError{Limit: "pairs", Max: limit, Actual: m.Len()})
	}
	r.result.PairCount = m.Len()

	pres, err := pptx.Open(req.TemplatePath)
	if err != nil {
		return r.fail(errs.Load("template", req.TemplatePath, err))
	}
	if limit := c.limits.MaxSlides; limit > 0 && pres.SlideCount() > limit {
		return r.fail(&errs.LimitError{Limit: "slides", Max: limit, Actual: pres.SlideCount()})
	}
	r.result.PageCount = pres.PageCount()

	r.enter(Substituting)
	engine := substitute.New(m, substitute.WithGroupDepth(c.groupDepth), substitute.WithLogger(r.log))
	for _, s := range pres.Slides() {
		engine.Slide(s)
	}
	r.result.Stats = engine.Stats()

	if req.Images.Len() > 0 {
		r.enter(InsertingImages)
		r.result.ImagesInserted = r.insertImages(pres, req.Images)
	}

	r.enter(Serializing)
	if err := pres.SaveAs(req.OutputPath); err != nil {
		return r.fail(errs.Serialize(req.OutputPath, err))
	}

	r.result.Success = true
	r.result.OutputPath = req.OutputPath
	r.enter(Done)
	r.log.Info("conversion finished",
		"pages", r.result.PageCount,
		"pairs", r.result.PairCount,
		"runs_changed", r.result.Stats.RunsChanged,
		"images_inserted", r.result.ImagesInserted)
	return r.result
}

func (c *Converter) replacements(req Request) (*mapping.ReplacementMap, error) {
	if req.Replacements == nil {
		return c.loader.Load(req.MappingPath)
	}
	if req.Replacements.Len() == 0 {
		return nil, &errs.EmptyMappingError{Source: "replacement map"}
	}
	return req.Replacements, nil
}

// insertImages resolves each marker once per slide, markers in mapping
// order. Entries whose image file does not exist are skipped.
func (r *run) insertImages(pres *pptx.Presentation, images *ImageMapping) int {
	resolver := imageplace.New(r.log)
	inserted := 0
	for _, e := range images.Entries() {
		if _, err := os.Stat(e.Path); err != nil {
			r.log.Debug("image skipped", "marker", e.Marker, "image", e.Path, "error", err)
			continue
		}
		for _, s := range pres.Slides() {
			if resolver.Resolve(s, e.Marker, e.Path) {
				inserted++
			}
		}
	}
	return inserted
}
