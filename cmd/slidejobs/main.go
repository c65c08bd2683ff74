// Command slidejobs prints the conversions recorded in a slidefill history
// database.
//
// Usage:
//
//	slidejobs --history <db> list [--limit N] [--json]
//	slidejobs --history <db> show <id> [--json]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"text/tabwriter"
	"time"

	"github.com/tsawler/slidefill/history"
	"github.com/tsawler/slidefill/internal/cli"
)

// CLI defines the command-line interface for slidejobs.
type CLI struct {
	History string `help:"SQLite history database" env:"SLIDEFILL_HISTORY" required:"" type:"path"`

	List ListCmd `cmd:"" help:"List recorded jobs, newest first"`
	Show ShowCmd `cmd:"" help:"Show one job"`
}

// app is bound into every command's Run method.
type app struct {
	ctx   context.Context
	store *history.Store
	out   io.Writer
}

// ListCmd lists jobs.
type ListCmd struct {
	Limit int  `help:"Maximum number of jobs (0 = all)" default:"20"`
	JSON  bool `help:"Print JSON"`
}

func (l *ListCmd) Run(a *app) error {
	jobs, err := a.store.List(a.ctx, l.Limit)
	if err != nil {
		return err
	}
	if l.JSON {
		if jobs == nil {
			jobs = []*history.Job{}
		}
		return writeJSON(a.out, jobs)
	}
	if len(jobs) == 0 {
		fmt.Fprintln(a.out, "No jobs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPAIRS\tPAGES\tIMAGES\tCREATED\tOUTPUT")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\t%s\n",
			j.ID, j.Status, j.PairCount, j.PageCount, j.ImagesInserted,
			j.CreatedAt.Local().Format(time.DateTime), j.OutputPath)
	}
	return tw.Flush()
}

// ShowCmd prints a single job.
type ShowCmd struct {
	ID   int64 `arg:"" help:"Job ID"`
	JSON bool  `help:"Print JSON"`
}

func (s *ShowCmd) Run(a *app) error {
	j, err := a.store.Get(a.ctx, s.ID)
	if err != nil {
		return err
	}
	if s.JSON {
		return writeJSON(a.out, j)
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%d\n", j.ID)
	fmt.Fprintf(tw, "Run:\t%s\n", j.RunID)
	fmt.Fprintf(tw, "Status:\t%s\n", j.Status)
	fmt.Fprintf(tw, "Template:\t%s\n", j.TemplatePath)
	fmt.Fprintf(tw, "Mapping:\t%s\n", j.MappingPath)
	fmt.Fprintf(tw, "Output:\t%s\n", j.OutputPath)
	fmt.Fprintf(tw, "Pairs:\t%d\n", j.PairCount)
	fmt.Fprintf(tw, "Pages:\t%d\n", j.PageCount)
	fmt.Fprintf(tw, "Images:\t%d\n", j.ImagesInserted)
	if j.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", j.Error)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", j.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(tw, "Updated:\t%s\n", j.UpdatedAt.Format(time.RFC3339))
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var c CLI
	kctx, code, done := cli.Parse(&c, "slidejobs", "Show conversions recorded by slidefill --history.", args, stdout, stderr)
	if done {
		return code
	}

	// Reading never creates a database.
	if _, err := os.Stat(c.History); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(stderr, "Error: no history database at %s\n", c.History)
		} else {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	store, err := history.Open(c.History)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	if err := kctx.Run(&app{ctx: context.Background(), store: store, out: stdout}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
