package owner

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/calvinalkan/sysown/pkg/errno"
)

// DropMode selects what [Owner.Drop] does when the release call fails.
type DropMode uint8

const (
	// DropLog records the failure on the configured logger and abandons the
	// handle.
	DropLog DropMode = iota

	// DropPanic logs the failure and then panics with a [*DropError].
	DropPanic
)

func (m DropMode) String() string {
	switch m {
	case DropLog:
		return "log"
	case DropPanic:
		return "panic"
	default:
		return fmt.Sprintf("DropMode(%d)", uint8(m))
	}
}

// ParseDropMode parses "log" or "panic".
func ParseDropMode(s string) (DropMode, error) {
	switch s {
	case "log", "":
		return DropLog, nil
	case "panic":
		return DropPanic, nil
	default:
		return DropLog, fmt.Errorf("%w: %q (want \"log\" or \"panic\")", ErrInvalidDropMode, s)
	}
}

// Options configures drop-time and leak behaviour for every owner in the
// process.
type Options struct {
	// OnDropError selects the reaction to a failed close inside Drop.
	// The default is DropLog unless built with the sysown_droppanic tag.
	OnDropError DropMode

	// Logger receives drop failures and leak reports. Nil means
	// logrus.StandardLogger().
	Logger logrus.FieldLogger

	// TrackLeaks registers a GC cleanup for every owning owner. An owner
	// that becomes unreachable while still holding a handle is logged and
	// its handle released.
	TrackLeaks bool
}

// DefaultOptions returns the options in effect before any [Configure] call.
func DefaultOptions() Options {
	return Options{
		OnDropError: defaultDropMode,
		Logger:      logrus.StandardLogger(),
		TrackLeaks:  true,
	}
}

var current atomic.Pointer[Options]

// Configure replaces the process-wide options. It affects owners created
// afterwards (leak tracking) and every later Drop.
func Configure(opts Options) {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	current.Store(&opts)
}

// CurrentOptions returns the options in effect.
func CurrentOptions() Options {
	if p := current.Load(); p != nil {
		return *p
	}

	return DefaultOptions()
}

// DropError is the panic value used by [DropPanic].
type DropError struct {
	Kind   string
	Handle string
	Code   errno.Code
}

func (e *DropError) Error() string {
	return fmt.Sprintf("owner: dropping %s %s: %v", e.Kind, e.Handle, e.Code)
}

// Unwrap exposes the errno.
func (e *DropError) Unwrap() error { return e.Code.Err() }

func reportDropFailure(kind string, handle any, code errno.Code) {
	opts := CurrentOptions()

	entry := opts.Logger.WithFields(logrus.Fields{
		"kind":   kind,
		"handle": handle,
		"errno":  code.String(),
	})

	if opts.OnDropError == DropPanic {
		entry.Error("close failed while dropping owner")
		panic(&DropError{Kind: kind, Handle: fmt.Sprint(handle), Code: code})
	}

	entry.Warn("close failed while dropping owner; handle abandoned")
}

func reportLeak(kind string, handle any, code errno.Code) {
	entry := CurrentOptions().Logger.WithFields(logrus.Fields{
		"kind":   kind,
		"handle": handle,
	})

	if code.Failed() {
		entry.WithField("errno", code.String()).Error("leaked owner reclaimed by GC; release failed")
		return
	}

	entry.Warn("leaked owner reclaimed by GC; call Close or Drop")
}

func reportAbandoned(kind string, handle any) {
	CurrentOptions().Logger.WithFields(logrus.Fields{
		"kind":   kind,
		"handle": handle,
	}).Warn("leaked owner collected by GC; handle left in place, call Close or Drop")
}
