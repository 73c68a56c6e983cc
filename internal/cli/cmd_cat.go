package cli

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sysown/pkg/fd"
)

// CatCmd returns the cat command.
func CatCmd(cfg *Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("cat", flag.ContinueOnError),
		Usage: "cat <file>...",
		Short: "Copy files to stdout",
		Long:  "Open each file as an owned descriptor, copy it to stdout and close it.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execCat(ctx, o, cfg, args)
		},
	}
}

func execCat(ctx context.Context, o *IO, cfg *Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: file", ErrMissingArgument)
	}

	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := catFile(o.Out(), resolvePath(cfg, path)); err != nil {
			return err
		}
	}

	return nil
}

func catFile(w io.Writer, path string) error {
	f, err := fd.Open(path, fd.ReadOnly, 0).Get()
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Drop()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return f.Discard().Wrap("close " + path)
}
