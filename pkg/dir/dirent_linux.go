//go:build linux

package dir

import (
	"bytes"
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// linux_dirent64 layout.
const (
	offIno    = 0
	offReclen = 16
	offType   = 18
	offName   = 19
)

func parseDirents(buf []byte, dst []Entry) []Entry {
	for len(buf) >= offName {
		reclen := int(binary.NativeEndian.Uint16(buf[offReclen:]))
		if reclen < offName || reclen > len(buf) {
			break
		}

		rec := buf[:reclen]
		buf = buf[reclen:]

		ino := binary.NativeEndian.Uint64(rec[offIno:])
		if ino == 0 {
			continue
		}

		name := rec[offName:]
		if i := bytes.IndexByte(name, 0); i >= 0 {
			name = name[:i]
		}

		dst = append(dst, Entry{Name: string(name), Ino: ino, Type: direntType(rec[offType])})
	}

	return dst
}

func direntType(t uint8) Type {
	switch t {
	case unix.DT_REG:
		return Regular
	case unix.DT_DIR:
		return Directory
	case unix.DT_LNK:
		return Symlink
	case unix.DT_FIFO:
		return FIFO
	case unix.DT_SOCK:
		return Socket
	case unix.DT_CHR:
		return CharDevice
	case unix.DT_BLK:
		return BlockDevice
	default:
		return Unknown
	}
}
