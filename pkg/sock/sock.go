// Package sock provides the socket resource kind.
//
// A [Socket] owns one socket descriptor. Socket operations take typed
// [Domain], [Type], [MsgFlag] and [Option] values and report failures as
// [errno.Code] or [result.Result].
package sock

import (
	"golang.org/x/sys/unix"

	"github.com/calvinalkan/sysown/pkg/errno"
	"github.com/calvinalkan/sysown/pkg/fd"
	"github.com/calvinalkan/sysown/pkg/owner"
	"github.com/calvinalkan/sysown/pkg/result"
	"github.com/calvinalkan/sysown/pkg/view"
)

// Policy releases a socket with close(2), retrying on EINTR.
type Policy struct{}

// Null implements [owner.Policy].
func (Policy) Null() int { return fd.Null }

// Kind implements [owner.Policy].
func (Policy) Kind() string { return "socket" }

// Release implements [owner.Policy].
func (Policy) Release(h int) errno.Code {
	return owner.RetryInterrupted(func() error { return unix.Close(h) })
}

// Socket owns one socket descriptor.
type Socket struct {
	owner.Owner[int, Policy]
}

func wrap(raw int) *Socket {
	s := &Socket{}
	s.Init(Policy{}, raw)

	return s
}

// Open creates a socket. The descriptor is close-on-exec.
func Open(domain Domain, typ Type, proto int) result.Result[*Socket] {
	raw, err := socket(int(domain), int(typ), proto)
	if err != nil {
		return result.Err[*Socket](errno.FromError(err))
	}

	return result.Ok(wrap(raw))
}

// Pair holds the two connected ends of a socketpair.
type Pair struct {
	A *Socket
	B *Socket
}

// Drop drops both ends.
func (p Pair) Drop() {
	p.A.Drop()
	p.B.Drop()
}

// NewPair creates a connected pair with socketpair(2).
func NewPair(domain Domain, typ Type) result.Result[Pair] {
	fds, err := socketpair(int(domain), int(typ), 0)
	if err != nil {
		return result.Err[Pair](errno.FromError(err))
	}

	return result.Ok(Pair{A: wrap(fds[0]), B: wrap(fds[1])})
}

// Move transfers ownership to a new Socket and leaves s Empty.
func (s *Socket) Move() *Socket {
	dst := wrap(fd.Null)
	s.TransferTo(&dst.Owner)

	return dst
}

// Bind assigns a local address.
func (s *Socket) Bind(addr unix.Sockaddr) errno.Code {
	return errno.FromError(unix.Bind(s.Raw(), addr))
}

// Listen marks the socket as accepting connections.
func (s *Socket) Listen(backlog int) errno.Code {
	return errno.FromError(unix.Listen(s.Raw(), backlog))
}

// Connect connects to addr. EINTR is returned, not retried: the connection
// attempt continues in the background.
func (s *Socket) Connect(addr unix.Sockaddr) errno.Code {
	return errno.FromError(unix.Connect(s.Raw(), addr))
}

// Accept waits for a connection and returns it as a new owner. The accepted
// descriptor is close-on-exec.
func (s *Socket) Accept() result.Result[*Socket] {
	raw, err := accept(s.Raw())
	if err != nil {
		return result.Err[*Socket](errno.FromError(err))
	}

	return result.Ok(wrap(raw))
}

// Name returns the local address.
func (s *Socket) Name() result.Result[unix.Sockaddr] {
	return result.Of(unix.Getsockname(s.Raw()))
}

// Peer returns the remote address.
func (s *Socket) Peer() result.Result[unix.Sockaddr] {
	return result.Of(unix.Getpeername(s.Raw()))
}

// Send sends p on a connected socket and returns the bytes sent.
func (s *Socket) Send(p []byte, flags MsgFlag) result.Result[int] {
	return result.Of(unix.SendmsgN(s.Raw(), p, nil, nil, int(flags)))
}

// SendTo sends a datagram to addr.
func (s *Socket) SendTo(p []byte, flags MsgFlag, addr unix.Sockaddr) errno.Code {
	return errno.FromError(unix.Sendto(s.Raw(), p, int(flags), addr))
}

// Recv receives into p. A stream socket whose peer has shut down reports 0.
func (s *Socket) Recv(p []byte, flags MsgFlag) result.Result[int] {
	n, _, err := unix.Recvfrom(s.Raw(), p, int(flags))

	return result.Of(n, err)
}

// Message is a received datagram's length and sender.
type Message struct {
	N    int
	From unix.Sockaddr
}

// RecvFrom receives one datagram into p.
func (s *Socket) RecvFrom(p []byte, flags MsgFlag) result.Result[Message] {
	n, from, err := unix.Recvfrom(s.Raw(), p, int(flags))
	if err != nil {
		return result.Err[Message](errno.FromError(err))
	}

	return result.Ok(Message{N: n, From: from})
}

// Shutdown disables sends, receives or both.
func (s *Socket) Shutdown(how How) errno.Code {
	return errno.FromError(unix.Shutdown(s.Raw(), int(how)))
}

// SetOptionInt sets an integer socket option.
func (s *Socket) SetOptionInt(opt Option, value int) errno.Code {
	return errno.FromError(unix.SetsockoptInt(s.Raw(), opt.Level, opt.Name, value))
}

// OptionInt reads an integer socket option.
func (s *Socket) OptionInt(opt Option) result.Result[int] {
	return result.Of(unix.GetsockoptInt(s.Raw(), opt.Level, opt.Name))
}

// SetOptionBool sets a boolean socket option.
func (s *Socket) SetOptionBool(opt Option, on bool) errno.Code {
	v := 0
	if on {
		v = 1
	}

	return s.SetOptionInt(opt, v)
}

// SetOption sets a socket option whose value is the fixed-size struct v,
// such as [unix.Linger] or [unix.Timeval]. T must not contain pointers.
func SetOption[T any](s *Socket, opt Option, v *T) errno.Code {
	return errno.FromError(unix.SetsockoptString(s.Raw(), opt.Level, opt.Name, string(view.Object(v))))
}

// LingerState reads SO_LINGER.
func (s *Socket) LingerState() result.Result[*unix.Linger] {
	return result.Of(unix.GetsockoptLinger(s.Raw(), Linger.Level, Linger.Name))
}

// PendingError reads and clears SO_ERROR.
func (s *Socket) PendingError() errno.Code {
	r := s.OptionInt(SockError)
	if !r.OK() {
		return r.Code()
	}

	return errno.FromErrno(unix.Errno(*r.Value()))
}
