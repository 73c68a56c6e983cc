package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Exit codes returned by [Run] and [Command.Run].
const (
	ExitOK      = 0
	ExitFailure = 1 // a handle operation failed
	ExitUsage   = 2 // bad flags or arguments; help is printed to stderr
)

// Command is one fdprobe subcommand: a flag set, help text and the function
// that drives the owned handles.
type Command struct {
	// Flags holds the command's own flags. Its name is unused; the command
	// is identified by the first word of Usage.
	Flags *flag.FlagSet

	// Usage follows "fdprobe" in help output, e.g. "lock [--shared] <path>".
	Usage string

	// Short is the one-line summary in the command listing.
	Short string

	// Long is shown by "fdprobe <cmd> --help". Short is used when empty.
	Long string

	// Exec runs after flags are parsed. Returning an error wrapping
	// ErrMissingArgument or ErrTooManyArguments makes Run treat it as a
	// usage error.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name (first word of Usage).
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine returns the command's entry in the usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-34s %s", c.Usage, c.Short)
}

// PrintHelp writes the full help for the command to w.
func (c *Command) PrintHelp(w io.Writer) {
	fprintln(w, "Usage: fdprobe", c.Usage)
	fprintln(w)

	desc := c.Long
	if desc == "" {
		desc = c.Short
	}

	fprintln(w, desc)

	if c.Flags != nil && c.Flags.HasFlags() {
		fprintln(w)
		fprintln(w, "Flags:")

		var buf strings.Builder
		c.Flags.SetOutput(&buf)
		c.Flags.PrintDefaults()
		_, _ = io.WriteString(w, buf.String())
	}
}

// Run parses flags, executes the command and maps the outcome to an exit
// code. --help prints to stdout; usage errors print the error and help to
// stderr.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // discard pflag output

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o.Out())
			return ExitOK
		}

		return c.usageError(o, err)
	}

	err := c.Exec(ctx, o, c.Flags.Args())

	switch {
	case err == nil:
		return ExitOK
	case isUsageError(err):
		return c.usageError(o, err)
	default:
		o.ErrPrintln("error:", err)
		return ExitFailure
	}
}

func (c *Command) usageError(o *IO, err error) int {
	o.ErrPrintln("error:", err)
	o.ErrPrintln()
	c.PrintHelp(o.ErrOut())

	return ExitUsage
}

func isUsageError(err error) bool {
	return errors.Is(err, ErrMissingArgument) || errors.Is(err, ErrTooManyArguments)
}

// exactArgs checks a command received n positional arguments.
func exactArgs(args []string, n int, what string) error {
	switch {
	case len(args) < n:
		return fmt.Errorf("%w: %s", ErrMissingArgument, what)
	case len(args) > n:
		return fmt.Errorf("%w: %s", ErrTooManyArguments, strings.Join(args[n:], " "))
	}

	return nil
}
