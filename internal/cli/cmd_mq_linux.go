//go:build linux

package cli

import (
	"context"
	"fmt"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/mqueue"
)

func platformCommands(cfg *Config) []*Command {
	return []*Command{MqCmd(cfg)}
}

// MqCmd returns the mq command.
func MqCmd(_ *Config) *Command {
	fs := flag.NewFlagSet("mq", flag.ContinueOnError)
	fs.Bool("create", false, "Create the queue if it does not exist")
	fs.Uint("prio", 0, "Message priority for send")
	fs.Duration("timeout", 0, "Give up after this long (0 waits forever)")
	fs.Int("max-msg", 10, "Queue capacity when creating")
	fs.Int("msg-size", 1024, "Maximum message size when creating")

	return &Command{
		Flags: fs,
		Usage: "mq <send|recv|stat|unlink> <name> [msg]",
		Short: "Use a POSIX message queue",
		Long: "Send or receive one message, show queue attributes, or unlink the queue. " +
			"Names may be given with or without the leading slash.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("%w: action and queue name", ErrMissingArgument)
			}

			opts := mqOptions{}
			opts.create, _ = fs.GetBool("create")
			opts.prio, _ = fs.GetUint("prio")
			opts.timeout, _ = fs.GetDuration("timeout")
			opts.maxMsg, _ = fs.GetInt("max-msg")
			opts.msgSize, _ = fs.GetInt("msg-size")

			return execMq(ctx, o, args[0], args[1], args[2:], opts)
		},
	}
}

type mqOptions struct {
	create  bool
	prio    uint
	timeout time.Duration
	maxMsg  int
	msgSize int
}

func execMq(ctx context.Context, o *IO, action, name string, rest []string, opts mqOptions) error {
	switch action {
	case "unlink":
		if err := exactArgs(rest, 0, ""); err != nil {
			return err
		}

		return mqueue.Unlink(name).Wrap("mq_unlink " + name)
	case "send":
		if err := exactArgs(rest, 1, "message"); err != nil {
			return err
		}

		return withQueue(name, fd.WriteOnly, opts, func(q *mqueue.Queue) error {
			return q.SendUntil([]byte(rest[0]), opts.prio, deadline(ctx, opts.timeout)).Wrap("mq_send")
		})
	case "recv":
		if err := exactArgs(rest, 0, ""); err != nil {
			return err
		}

		return withQueue(name, fd.ReadOnly, opts, func(q *mqueue.Queue) error {
			attr, err := q.Attr().Get()
			if err != nil {
				return err
			}

			buf := make([]byte, attr.MsgSize)

			msg, err := q.ReceiveUntil(buf, deadline(ctx, opts.timeout)).Get()
			if err != nil {
				return fmt.Errorf("mq_receive: %w", err)
			}

			o.Printf("%d\t%s\n", msg.Prio, buf[:msg.N])

			return nil
		})
	case "stat":
		if err := exactArgs(rest, 0, ""); err != nil {
			return err
		}

		return withQueue(name, fd.ReadOnly, opts, func(q *mqueue.Queue) error {
			attr, err := q.Attr().Get()
			if err != nil {
				return err
			}

			o.Printf("max_msg=%d\nmsg_size=%d\ncur_msgs=%d\nnonblocking=%t\n",
				attr.MaxMsg, attr.MsgSize, attr.CurMsgs, attr.Nonblocking())

			return nil
		})
	default:
		return fmt.Errorf("%w: mq %s", ErrUnknownCommand, action)
	}
}

func withQueue(name string, access fd.OpenFlag, opts mqOptions, fn func(q *mqueue.Queue) error) error {
	var attr *mqueue.Attr

	flags := access
	if opts.create {
		flags |= fd.Create
		attr = &mqueue.Attr{MaxMsg: opts.maxMsg, MsgSize: opts.msgSize}
	}

	q, err := mqueue.Open(name, flags, 0o600, attr).Get()
	if err != nil {
		return fmt.Errorf("mq_open %s: %w", name, err)
	}
	defer q.Drop()

	if err := fn(q); err != nil {
		return err
	}

	return q.Discard().Wrap("close " + name)
}

// deadline bounds a queue operation by timeout and by ctx's deadline,
// whichever is earlier. The zero time means no deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	var d time.Time
	if timeout > 0 {
		d = time.Now().Add(timeout)
	}

	if ctxDeadline, ok := ctx.Deadline(); ok && (d.IsZero() || ctxDeadline.Before(d)) {
		d = ctxDeadline
	}

	return d
}
