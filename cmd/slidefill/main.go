// Command slidefill fills a PowerPoint template from a spreadsheet of
// replacement pairs and prints a JSON result.
//
// Usage:
//
//	slidefill [flags] <template_path> <excel_path> <output_path> [image_mappings_json]
//
// The exit status is 0 when the conversion succeeded and 1 otherwise.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/tsawler/slidefill/config"
	"github.com/tsawler/slidefill/convert"
	"github.com/tsawler/slidefill/history"
	"github.com/tsawler/slidefill/internal/cli"
	"github.com/tsawler/slidefill/internal/logging"
	"github.com/tsawler/slidefill/mapping"
)

const usage = "usage: slidefill <template_path> <excel_path> <output_path> [image_mappings_json]"

// CLI defines the command-line interface for slidefill.
type CLI struct {
	Template string `arg:"" optional:"" help:"PowerPoint template (.pptx)"`
	Mapping  string `arg:"" optional:"" help:"Spreadsheet with 'Start Word' and 'End Word' columns (.xlsx or .csv)"`
	Output   string `arg:"" optional:"" help:"Path of the presentation to write"`
	Images   string `arg:"" optional:"" help:"JSON object mapping marker text to image paths"`

	Config     string `help:"YAML configuration file" type:"path"`
	LogLevel   string `help:"Log level: debug, info, warn, error"`
	LogFormat  string `help:"Log format: text or json"`
	History    string `help:"SQLite database recording conversion jobs" type:"path"`
	Sheet      string `help:"Worksheet holding the pairs (default: first sheet)"`
	Encoding   string `help:"Charset of a CSV spreadsheet, e.g. euc-kr"`
	MaxPairs   int    `help:"Maximum number of replacement pairs (0 = unlimited)" default:"-1"`
	MaxSlides  int    `help:"Maximum number of slides (0 = unlimited)" default:"-1"`
	GroupDepth int    `help:"Levels of grouped shapes to fill (0 = none)" default:"-1"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var c CLI
	if _, code, done := cli.Parse(&c, "slidefill", "Fill a PowerPoint template from a spreadsheet.", args, stdout, stderr); done {
		return code
	}

	if c.Output == "" {
		fmt.Fprintln(stdout, usage)
		return 1
	}

	var images *convert.ImageMapping
	if c.Images != "" {
		m, err := convert.ParseImageMappingJSON([]byte(c.Images))
		if err != nil {
			fmt.Fprintf(stderr, "invalid image mapping JSON: %v\n", err)
			return 1
		}
		images = m
	}
	if _, err := os.Stat(c.Template); err != nil {
		fmt.Fprintf(stderr, "template file not found: %s\n", c.Template)
		return 1
	}
	if _, err := os.Stat(c.Mapping); err != nil {
		fmt.Fprintf(stderr, "spreadsheet file not found: %s\n", c.Mapping)
		return 1
	}

	cfg, err := c.config()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	logger, err := cfg.NewLogger(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	ctx := logging.WithRunID(context.Background(), uuid.NewString())
	req := convert.Request{
		TemplatePath: c.Template,
		MappingPath:  c.Mapping,
		OutputPath:   c.Output,
		Images:       images,
	}

	rec := openRecorder(ctx, cfg.History.Path, req, logger)
	defer rec.close()

	conv := convert.New(
		convert.WithLoader(mapping.NewLoader(
			mapping.WithSheet(cfg.Mapping.Sheet),
			mapping.WithEncoding(cfg.Mapping.Encoding),
			mapping.WithColumns(mapping.Columns{Start: cfg.Mapping.StartTokens, End: cfg.Mapping.EndTokens}),
			mapping.WithLogger(logger),
		)),
		convert.WithLimits(convert.Limits{MaxPairs: cfg.Limits.MaxPairs, MaxSlides: cfg.Limits.MaxSlides}),
		convert.WithGroupDepth(cfg.Substitution.GroupDepth),
		convert.WithLogger(logger),
		convert.WithObserver(rec.observe),
	)
	res := conv.Convert(ctx, req)
	rec.finish(res)

	if err := res.WriteJSON(stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if !res.Success {
		return 1
	}
	return 0
}

// config loads the configuration file and applies flag overrides.
func (c *CLI) config() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	if c.History != "" {
		cfg.History.Path = c.History
	}
	if c.Sheet != "" {
		cfg.Mapping.Sheet = c.Sheet
	}
	if c.Encoding != "" {
		cfg.Mapping.Encoding = c.Encoding
	}
	if c.MaxPairs >= 0 {
		cfg.Limits.MaxPairs = c.MaxPairs
	}
	if c.MaxSlides >= 0 {
		cfg.Limits.MaxSlides = c.MaxSlides
	}
	if c.GroupDepth >= 0 {
		cfg.Substitution.GroupDepth = c.GroupDepth
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// recorder writes the job to the history ledger. Ledger failures are
// logged and never fail the conversion.
type recorder struct {
	ctx    context.Context
	store  *history.Store
	job    *history.Job
	logger *slog.Logger
}

func openRecorder(ctx context.Context, path string, req convert.Request, logger *slog.Logger) *recorder {
	rec := &recorder{ctx: ctx, logger: logger}
	if path == "" {
		return rec
	}
	store, err := history.Open(path)
	if err != nil {
		logger.Warn("history disabled", "error", err)
		return rec
	}
	job := &history.Job{
		RunID:        logging.RunID(ctx),
		TemplatePath: req.TemplatePath,
		MappingPath:  req.MappingPath,
		OutputPath:   req.OutputPath,
	}
	if err := store.Create(ctx, job); err != nil {
		logger.Warn("history disabled", "error", err)
		store.Close()
		return rec
	}
	rec.store, rec.job = store, job
	return rec
}

func (r *recorder) observe(_, to convert.State) {
	if r.store == nil || to != convert.LoadingMapping {
		return
	}
	if err := r.store.UpdateStatus(r.ctx, r.job.ID, history.StatusProcessing); err != nil {
		r.logger.Warn("history update failed", "job", r.job.ID, "error", err)
	}
}

func (r *recorder) finish(res convert.Result) {
	if r.store == nil {
		return
	}
	out := history.Outcome{
		Success:        res.Success,
		PairCount:      res.PairCount,
		PageCount:      res.PageCount,
		ImagesInserted: res.ImagesInserted,
		Error:          res.Error,
	}
	if err := r.store.Finish(r.ctx, r.job.ID, out); err != nil {
		r.logger.Warn("history update failed", "job", r.job.ID, "error", err)
	}
}

func (r *recorder) close() {
	if r.store != nil {
		r.store.Close()
	}
}
