// Package substitute rewrites slide text from a replacement map.
//
// Replacement is literal and run-local: each run's text is rewritten pair
// by pair in map order, every occurrence of a key at once, so a value
// produced by an earlier pair can be matched by a later key. Text split
// across runs is never matched.
package substitute

import (
	"log/slog"
	"strings"

	"github.com/tsawler/slidefill/mapping"
	"github.com/tsawler/slidefill/pptx"
)

// DefaultGroupDepth descends into direct members of top-level groups.
const DefaultGroupDepth = 1

// Stats counts the engine's work.
type Stats struct {
	Runs         int // runs visited
	RunsChanged  int // runs whose text was rewritten
	Replacements int // key occurrences replaced
}

// Engine applies a fixed list of pairs to shapes.
type Engine struct {
	pairs      []mapping.Pair
	groupDepth int
	logger     *slog.Logger
	stats      Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithGroupDepth sets how many levels of nested groups are entered.
// Zero or less leaves group members untouched.
func WithGroupDepth(depth int) Option {
	return func(e *Engine) { e.groupDepth = depth }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New returns an engine for a snapshot of m's pairs.
func New(m *mapping.ReplacementMap, opts ...Option) *Engine {
	e := &Engine{pairs: m.Pairs(), groupDepth: DefaultGroupDepth}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Stats returns the totals so far.
func (e *Engine) Stats() Stats { return e.stats }

// Replace applies every pair to s in order and reports how many key
// occurrences were replaced.
func (e *Engine) Replace(s string) (string, int) {
	n := 0
	for _, p := range e.pairs {
		if strings.Contains(s, p.From) {
			n += strings.Count(s, p.From)
			s = strings.ReplaceAll(s, p.From, p.To)
		}
	}
	return s, n
}

// Slide rewrites every shape of the slide.
func (e *Engine) Slide(s *pptx.Slide) {
	before := e.stats
	pptx.Walk(s.Shapes(), e)
	e.logger.Debug("slide substituted",
		"slide", s.Number(),
		"runs", e.stats.Runs-before.Runs,
		"runs_changed", e.stats.RunsChanged-before.RunsChanged)
}

// Shape rewrites one shape.
func (e *Engine) Shape(sh pptx.Shape) {
	sh.Accept(e)
}

// Frame rewrites every run of a text frame.
func (e *Engine) Frame(f *pptx.TextFrame) {
	if f == nil {
		return
	}
	for _, para := range f.Paragraphs() {
		for _, run := range para.Runs() {
			e.run(run)
		}
	}
}

func (e *Engine) run(r *pptx.Run) {
	e.stats.Runs++
	text, n := e.Replace(r.Text())
	if n == 0 {
		return
	}
	e.stats.RunsChanged++
	e.stats.Replacements += n
	r.SetText(text)
}

// VisitText rewrites the shape's text frame.
func (e *Engine) VisitText(s *pptx.TextShape) {
	e.Frame(s.TextFrame())
}

// VisitTable rewrites cells row by row.
func (e *Engine) VisitTable(s *pptx.TableShape) {
	for _, row := range s.Table().Rows() {
		for _, c := range row.Cells() {
			e.Frame(c.TextFrame())
		}
	}
}

// VisitGroup rewrites the text frames of group members.
func (e *Engine) VisitGroup(s *pptx.GroupShape) {
	e.group(s, 1)
}

// VisitImage does nothing: pictures carry no text frame.
func (e *Engine) VisitImage(*pptx.ImageShape) {}

// VisitOther does nothing.
func (e *Engine) VisitOther(*pptx.OtherShape) {}

func (e *Engine) group(g *pptx.GroupShape, depth int) {
	if depth > e.groupDepth {
		return
	}
	pptx.Walk(g.Shapes(), &memberVisitor{engine: e, depth: depth})
}

// memberVisitor handles shapes inside a group. Members only get their own
// text frame rewritten; nested groups are entered while depth allows.
type memberVisitor struct {
	pptx.BaseVisitor
	engine *Engine
	depth  int
}

func (v *memberVisitor) VisitText(s *pptx.TextShape) {
	v.engine.Frame(s.TextFrame())
}

func (v *memberVisitor) VisitGroup(s *pptx.GroupShape) {
	v.engine.group(s, v.depth+1)
}
