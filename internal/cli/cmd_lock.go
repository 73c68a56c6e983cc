package cli

import (
	"context"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sysown/pkg/flock"
)

// LockCmd returns the lock command.
func LockCmd(cfg *Config) *Command {
	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	fs.Bool("shared", false, "Take a shared lock instead of an exclusive one")
	fs.Duration("wait", 0, "How long to wait for the lock (0 tries once, negative blocks)")
	fs.Duration("hold", 0, "How long to hold the lock before releasing it")

	return &Command{
		Flags: fs,
		Usage: "lock [--shared] [--wait d] [--hold d] <path>",
		Short: "Acquire an advisory file lock",
		Long: "Acquire a flock(2) lock on path, hold it for --hold (or until interrupted " +
			"when --hold is negative) and release it. Exits non-zero if the lock is busy.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if err := exactArgs(args, 1, "path"); err != nil {
				return err
			}

			shared, _ := fs.GetBool("shared")
			wait, _ := fs.GetDuration("wait")
			hold, _ := fs.GetDuration("hold")

			return execLock(ctx, o, resolvePath(cfg, args[0]), shared, wait, hold)
		},
	}
}

func execLock(ctx context.Context, o *IO, path string, shared bool, wait, hold time.Duration) error {
	lock, err := acquireLock(flock.NewLocker(), path, shared, wait)
	if err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Drop()

	mode := "exclusive"
	if shared {
		mode = "shared"
	}

	o.Printf("locked %s (%s)\n", path, mode)

	switch {
	case hold < 0:
		<-ctx.Done()
	case hold > 0:
		timer := time.NewTimer(hold)
		defer timer.Stop()

		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}

	if code := lock.Discard(); code.Failed() {
		return code.Wrap("unlock " + path)
	}

	o.Printf("released %s\n", path)

	return nil
}

func acquireLock(l *flock.Locker, path string, shared bool, wait time.Duration) (*flock.Lock, error) {
	switch {
	case wait == 0 && shared:
		return l.TryRLock(path)
	case wait == 0:
		return l.TryLock(path)
	case wait < 0 && shared:
		return l.RLock(path)
	case wait < 0:
		return l.Lock(path)
	case shared:
		return l.RLockWithTimeout(path, wait)
	default:
		return l.LockWithTimeout(path, wait)
	}
}
