package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sysown/pkg/dir"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/flock"
	"github.com/calvinalkan/sysown/pkg/mmap"
	"github.com/calvinalkan/sysown/pkg/sock"
)

// errSkipped marks a check the host cannot run.
var errSkipped = errors.New("skipped")

// check is one selftest probe. scratch is a private temporary directory.
type check struct {
	name string
	run  func(scratch string) error
}

// SelfTestCmd returns the selftest command.
func SelfTestCmd(_ *Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("selftest", flag.ContinueOnError),
		Usage: "selftest",
		Short: "Open, use and release one handle of every kind",
		Long: "Run a short probe per resource kind against the running kernel and " +
			"report ok, skip or FAIL for each. Exits non-zero if any probe fails.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execSelfTest(ctx, o, append(portableChecks(), platformChecks()...))
		},
	}
}

func execSelfTest(ctx context.Context, o *IO, checks []check) error {
	scratch, err := os.MkdirTemp("", "fdprobe-selftest-")
	if err != nil {
		return fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	var failed []string

	for _, c := range checks {
		if err := ctx.Err(); err != nil {
			return err
		}

		sub := filepath.Join(scratch, c.name)
		if err := os.Mkdir(sub, 0o700); err != nil {
			return fmt.Errorf("creating scratch dir: %w", err)
		}

		err := c.run(sub)

		switch {
		case err == nil:
			o.Printf("ok    %s\n", c.name)
		case errors.Is(err, errSkipped):
			o.Printf("skip  %s: %v\n", c.name, err)
		default:
			o.Printf("FAIL  %s: %v\n", c.name, err)

			failed = append(failed, c.name)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d checks failed: %v", len(failed), len(checks), failed)
	}

	return nil
}

func portableChecks() []check {
	return []check{
		{name: "fd", run: checkFD},
		{name: "dir", run: checkDir},
		{name: "mmap", run: checkMmap},
		{name: "socket", run: checkSocket},
		{name: "flock", run: checkFlock},
	}
}

var probeData = []byte("fdprobe")

func checkFD(scratch string) error {
	path := filepath.Join(scratch, "probe")

	f, err := fd.Open(path, fd.ReadWrite|fd.Create|fd.Exclusive, 0o600).Get()
	if err != nil {
		return err
	}
	defer f.Drop()

	if _, err := f.Write(probeData); err != nil {
		return err
	}

	got := make([]byte, len(probeData))
	if _, err := f.ReadAt(got, 0); err != nil {
		return err
	}

	if !bytes.Equal(got, probeData) {
		return fmt.Errorf("read back %q, want %q", got, probeData)
	}

	moved := f.Move()
	defer moved.Drop()

	if !f.Empty() {
		return errors.New("moved-from owner still owns its handle")
	}

	if code := moved.Discard(); code.Failed() {
		return code.Err()
	}

	return moved.Close().Err()
}

func checkDir(scratch string) error {
	for _, name := range []string{"a", "b"} {
		if err := os.WriteFile(filepath.Join(scratch, name), nil, 0o600); err != nil {
			return err
		}
	}

	d, err := dir.Open(scratch).Get()
	if err != nil {
		return err
	}
	defer d.Drop()

	entries, err := d.ReadAll().Get()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}

	slices.Sort(names)

	if !slices.Equal(names, []string{"a", "b"}) {
		return fmt.Errorf("entries %v, want [a b]", names)
	}

	return d.Discard().Err()
}

func checkMmap(string) error {
	m, err := mmap.Anonymous(os.Getpagesize(), mmap.Read|mmap.Write).Get()
	if err != nil {
		return err
	}
	defer m.Drop()

	b := m.Bytes()
	copy(b, probeData)

	if !bytes.Equal(b[:len(probeData)], probeData) {
		return errors.New("mapping did not keep written bytes")
	}

	return m.Discard().Err()
}

func checkSocket(string) error {
	p, err := sock.NewPair(sock.Unix, sock.Stream).Get()
	if err != nil {
		return err
	}
	defer p.Drop()

	if r := p.A.Send(probeData, 0); !r.OK() {
		return r.Code().Err()
	}

	buf := make([]byte, 64)

	n, err := p.B.Recv(buf, 0).Get()
	if err != nil {
		return err
	}

	if !bytes.Equal(buf[:n], probeData) {
		return fmt.Errorf("received %q, want %q", buf[:n], probeData)
	}

	return errors.Join(p.A.Discard().Err(), p.B.Discard().Err())
}

func checkFlock(scratch string) error {
	locker := flock.NewLocker()
	path := filepath.Join(scratch, "lock")

	held, err := locker.TryLock(path)
	if err != nil {
		return err
	}
	defer held.Drop()

	if second, err := locker.TryLock(path); !errors.Is(err, flock.ErrWouldBlock) {
		if second != nil {
			second.Drop()
		}

		return fmt.Errorf("second TryLock: err=%v, want %v", err, flock.ErrWouldBlock)
	}

	return held.Discard().Err()
}
