package cli

import (
	"context"
	"fmt"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sysown/pkg/dir"
)

// LsCmd returns the ls command.
func LsCmd(cfg *Config) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.BoolP("long", "l", false, "Show entry type and inode")

	return &Command{
		Flags: fs,
		Usage: "ls [-l] [dir]",
		Short: "List a directory",
		Long:  "Read a directory stream and print its entries sorted by name. Defaults to the working directory.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			long, _ := fs.GetBool("long")
			return execLs(o, cfg, args, long)
		},
	}
}

func execLs(o *IO, cfg *Config, args []string, long bool) error {
	path := "."

	switch len(args) {
	case 0:
	case 1:
		path = args[0]
	default:
		return fmt.Errorf("%w: %s", ErrTooManyArguments, strings.Join(args[1:], " "))
	}

	path = resolvePath(cfg, path)

	d, err := dir.Open(path).Get()
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer d.Drop()

	entries, err := d.ReadAll().Get()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	slices.SortFunc(entries, func(a, b dir.Entry) int { return strings.Compare(a.Name, b.Name) })

	for _, e := range entries {
		if long {
			o.Printf("%-8s %10d %s\n", e.Type, e.Ino, e.Name)
			continue
		}

		o.Println(e.Name)
	}

	return d.Discard().Wrap("close " + path)
}
