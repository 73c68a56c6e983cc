package fd

import (
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// OpenFlag is a set of open(2) flags. Flags compose with |, exactly like the
// integer constants they mirror.
type OpenFlag int

// Access modes. ReadOnly is zero, so it is the default and Has(ReadOnly)
// is always true; inspect Access() instead.
const (
	ReadOnly  OpenFlag = unix.O_RDONLY
	WriteOnly OpenFlag = unix.O_WRONLY
	ReadWrite OpenFlag = unix.O_RDWR
)

// Creation and status flags.
const (
	Append      OpenFlag = unix.O_APPEND
	Create      OpenFlag = unix.O_CREAT
	Exclusive   OpenFlag = unix.O_EXCL
	Trunc       OpenFlag = unix.O_TRUNC
	CloseOnExec OpenFlag = unix.O_CLOEXEC
	NonBlock    OpenFlag = unix.O_NONBLOCK
	Directory   OpenFlag = unix.O_DIRECTORY
	NoFollow    OpenFlag = unix.O_NOFOLLOW
	SyncWrites  OpenFlag = unix.O_SYNC
)

const accessMask = OpenFlag(unix.O_ACCMODE)

// Has reports whether every flag in x is set in f.
func (f OpenFlag) Has(x OpenFlag) bool { return f&x == x }

// Access returns the access mode bits (ReadOnly, WriteOnly or ReadWrite).
func (f OpenFlag) Access() OpenFlag { return f & accessMask }

var openFlagNames = []struct {
	flag OpenFlag
	name string
}{
	{Append, "Append"},
	{Create, "Create"},
	{Exclusive, "Exclusive"},
	{Trunc, "Trunc"},
	{CloseOnExec, "CloseOnExec"},
	{NonBlock, "NonBlock"},
	{Directory, "Directory"},
	{NoFollow, "NoFollow"},
	{SyncWrites, "SyncWrites"},
}

func (f OpenFlag) String() string {
	var parts []string

	switch f.Access() {
	case WriteOnly:
		parts = append(parts, "WriteOnly")
	case ReadWrite:
		parts = append(parts, "ReadWrite")
	default:
		parts = append(parts, "ReadOnly")
	}

	rest := f &^ accessMask
	for _, n := range openFlagNames {
		if n.flag != 0 && rest.Has(n.flag) {
			parts = append(parts, n.name)
			rest &^= n.flag
		}
	}

	if rest != 0 {
		parts = append(parts, "0x"+strconv.FormatInt(int64(rest), 16))
	}

	return strings.Join(parts, "|")
}
