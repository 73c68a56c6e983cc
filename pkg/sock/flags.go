package sock

import "golang.org/x/sys/unix"

// Domain is a socket address family.
type Domain int

const (
	Unix  Domain = unix.AF_UNIX
	Inet  Domain = unix.AF_INET
	Inet6 Domain = unix.AF_INET6
)

// Type is a socket type.
type Type int

const (
	Stream    Type = unix.SOCK_STREAM
	Dgram     Type = unix.SOCK_DGRAM
	SeqPacket Type = unix.SOCK_SEQPACKET
)

// MsgFlag is a set of send/recv flags.
type MsgFlag int

const (
	Peek     MsgFlag = unix.MSG_PEEK
	DontWait MsgFlag = unix.MSG_DONTWAIT
	WaitAll  MsgFlag = unix.MSG_WAITALL
	OOB      MsgFlag = unix.MSG_OOB
)

// How selects which half of a connection to shut down.
type How int

const (
	ShutRead  How = unix.SHUT_RD
	ShutWrite How = unix.SHUT_WR
	ShutBoth  How = unix.SHUT_RDWR
)

// Option names a socket option by level and name.
type Option struct {
	Level int
	Name  int
}

// Common options.
var (
	ReuseAddr = Option{unix.SOL_SOCKET, unix.SO_REUSEADDR}
	KeepAlive = Option{unix.SOL_SOCKET, unix.SO_KEEPALIVE}
	Broadcast = Option{unix.SOL_SOCKET, unix.SO_BROADCAST}
	RecvBuf   = Option{unix.SOL_SOCKET, unix.SO_RCVBUF}
	SendBuf   = Option{unix.SOL_SOCKET, unix.SO_SNDBUF}
	SockType  = Option{unix.SOL_SOCKET, unix.SO_TYPE}
	SockError = Option{unix.SOL_SOCKET, unix.SO_ERROR}
	Linger    = Option{unix.SOL_SOCKET, unix.SO_LINGER}
	RecvTime  = Option{unix.SOL_SOCKET, unix.SO_RCVTIMEO}
	NoDelay   = Option{unix.IPPROTO_TCP, unix.TCP_NODELAY}
)
