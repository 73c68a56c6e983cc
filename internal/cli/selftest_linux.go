//go:build linux

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/epoll"
	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/mqueue"
)

func platformChecks() []check {
	return []check{
		{name: "pipe", run: checkPipe},
		{name: "eventfd", run: checkEventfd},
		{name: "memfd", run: checkMemfd},
		{name: "epoll", run: checkEpoll},
		{name: "mqueue", run: checkMqueue},
	}
}

func checkPipe(string) error {
	p, err := fd.Pipe(0).Get()
	if err != nil {
		return err
	}
	defer p.Drop()

	if _, err := p.W.Write(probeData); err != nil {
		return err
	}

	if code := p.W.Discard(); code.Failed() {
		return code.Err()
	}

	got, err := io.ReadAll(p.R)
	if err != nil {
		return err
	}

	if !bytes.Equal(got, probeData) {
		return fmt.Errorf("read %q, want %q", got, probeData)
	}

	return p.R.Discard().Err()
}

func checkEventfd(string) error {
	efd, err := fd.Eventfd(0, fd.NonBlock).Get()
	if err != nil {
		return err
	}
	defer efd.Drop()

	for _, v := range []uint64{2, 3} {
		if code := efd.Notify(v); code.Failed() {
			return code.Err()
		}
	}

	n, err := efd.Counter().Get()
	if err != nil {
		return err
	}

	if n != 5 {
		return fmt.Errorf("counter %d, want 5", n)
	}

	return efd.Discard().Err()
}

func checkMemfd(string) error {
	f, err := fd.Memfd("fdprobe").Get()
	if err != nil {
		return skipIfUnsupported(errno.FromError(err))
	}
	defer f.Drop()

	size := int64(os.Getpagesize())
	if code := f.Truncate(size); code.Failed() {
		return code.Err()
	}

	st, err := f.Stat().Get()
	if err != nil {
		return err
	}

	if st.Size != size {
		return fmt.Errorf("size %d, want %d", st.Size, size)
	}

	return f.Discard().Err()
}

func checkEpoll(string) error {
	ep, err := epoll.Create().Get()
	if err != nil {
		return err
	}
	defer ep.Drop()

	efd, err := fd.Eventfd(1, fd.NonBlock).Get()
	if err != nil {
		return err
	}
	defer efd.Drop()

	if code := ep.Add(efd, epoll.In); code.Failed() {
		return code.Err()
	}

	events := make([]unix.EpollEvent, 1)

	n, err := ep.WaitTimeout(events, time.Second).Get()
	if err != nil {
		return err
	}

	if n != 1 || !epoll.EventsOf(events[0]).Has(epoll.In) {
		return fmt.Errorf("got %d events, want one readable", n)
	}

	return errors.Join(efd.Discard().Err(), ep.Discard().Err())
}

func checkMqueue(string) error {
	name := fmt.Sprintf("/fdprobe-%d", os.Getpid())

	q, err := mqueue.Open(name, fd.ReadWrite|fd.Create|fd.Exclusive, 0o600,
		&mqueue.Attr{MaxMsg: 1, MsgSize: 64}).Get()
	if err != nil {
		return skipIfUnsupported(errno.FromError(err))
	}
	defer q.Drop()
	defer mqueue.Unlink(name)

	if code := q.Send(probeData, 1); code.Failed() {
		return code.Err()
	}

	buf := make([]byte, 64)

	msg, err := q.Receive(buf).Get()
	if err != nil {
		return err
	}

	if !bytes.Equal(buf[:msg.N], probeData) || msg.Prio != 1 {
		return fmt.Errorf("received %q prio %d", buf[:msg.N], msg.Prio)
	}

	return q.Discard().Err()
}

// skipIfUnsupported turns codes meaning "not available on this host" into
// errSkipped.
func skipIfUnsupported(code errno.Code) error {
	switch {
	case code.IsZero():
		return nil
	case code == errno.NotSupp, code.Is(unix.EPERM), code.Is(unix.EACCES):
		return fmt.Errorf("%w: %v", errSkipped, code)
	default:
		return code.Err()
	}
}
