package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/mmap"
)

// MapCopyCmd returns the mapcopy command.
func MapCopyCmd(cfg *Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("mapcopy", flag.ContinueOnError),
		Usage: "mapcopy <src> <dst>",
		Short: "Copy a file through a memory map",
		Long: "Map src read-only and write its bytes to dst atomically: dst is either " +
			"the old content or the complete copy, never a partial file.",
		Exec: func(_ context.Context, o *IO, args []string) error {
			if err := exactArgs(args, 2, "src and dst"); err != nil {
				return err
			}

			return execMapCopy(o, resolvePath(cfg, args[0]), resolvePath(cfg, args[1]))
		},
	}
}

func execMapCopy(o *IO, src, dst string) error {
	data, release, err := mapForRead(src)
	if err != nil {
		return err
	}
	defer release()

	if err := atomic.WriteFile(dst, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}

	o.Printf("copied %d bytes from %s to %s\n", len(data), src, dst)

	return nil
}

// mapForRead maps src privately. An empty file cannot be mapped and yields
// an empty slice with no mapping behind it.
func mapForRead(src string) ([]byte, func(), error) {
	r := mmap.MapFile(src, mmap.Read, mmap.Private)
	if r.OK() {
		m := r.Must()
		_ = m.Advise(mmap.Sequential)

		return m.Bytes(), m.Drop, nil
	}

	if r.Code() == errno.Invalid {
		f, err := fd.Open(src, fd.ReadOnly, 0).Get()
		if err == nil {
			defer f.Drop()

			if st := f.Stat(); st.OK() && st.Value().Size == 0 {
				return nil, func() {}, nil
			}
		}
	}

	return nil, nil, fmt.Errorf("map %s: %w", src, r.Code().Err())
}
