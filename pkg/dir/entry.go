package dir

import "fmt"

// Type is the file type reported by the directory entry. Filesystems that
// do not report types yield [Unknown].
type Type uint8

const (
	Unknown Type = iota
	Regular
	Directory
	Symlink
	FIFO
	Socket
	CharDevice
	BlockDevice
)

func (t Type) String() string {
	switch t {
	case Unknown:
		return "unknown"
	case Regular:
		return "file"
	case Directory:
		return "dir"
	case Symlink:
		return "symlink"
	case FIFO:
		return "fifo"
	case Socket:
		return "socket"
	case CharDevice:
		return "chardev"
	case BlockDevice:
		return "blockdev"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Entry is one directory entry.
type Entry struct {
	Name string
	Ino  uint64
	Type Type
}
