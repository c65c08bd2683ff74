// Package cli holds the kong setup shared by the slidefill commands.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
)

// exit is raised by kong's exit hook so parsing stops where kong would
// have terminated the process.
type exit struct{ code int }

// Parse parses args into grammar. When parsing ends the invocation (help
// was printed, or the arguments were invalid), done is true and code is
// the process exit status.
func Parse(grammar any, name, description string, args []string, stdout, stderr io.Writer, opts ...kong.Option) (ctx *kong.Context, code int, done bool) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(exit)
			if !ok {
				panic(r)
			}
			ctx, code, done = nil, e.code, true
		}
	}()

	opts = append([]kong.Option{
		kong.Name(name),
		kong.Description(description),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(exit{code}) }),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
	}, opts...)

	parser, err := kong.New(grammar, opts...)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return nil, 1, true
	}
	ctx, err = parser.Parse(args)
	if err != nil {
		var pe *kong.ParseError
		if errors.As(err, &pe) && pe.Context != nil {
			_ = pe.Context.PrintUsage(true)
		}
		fmt.Fprintf(stderr, "%s: error: %v\n", name, err)
		return nil, 1, true
	}
	return ctx, 0, false
}
