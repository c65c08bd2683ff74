// Command slidecount prints the number of slides in a PowerPoint file.
//
// Usage:
//
//	slidecount [--json] <ppt_file_path>
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/tsawler/slidefill/internal/cli"
	"github.com/tsawler/slidefill/pptx"
)

const usage = "usage: slidecount <ppt_file_path>"

// CLI defines the command-line interface for slidecount.
type CLI struct {
	Path string `arg:"" optional:"" help:"PowerPoint file (.pptx)"`
	JSON bool   `help:"Print slide size and document properties as JSON"`
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var c CLI
	if _, code, done := cli.Parse(&c, "slidecount", "Print the number of slides in a presentation.", args, stdout, stderr); done {
		return code
	}
	if c.Path == "" {
		fmt.Fprintln(stderr, usage)
		return 1
	}

	if !c.JSON {
		n, err := pptx.SlideCount(c.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, n)
		return 0
	}

	info, err := pptx.Inspect(c.Path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(info); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
