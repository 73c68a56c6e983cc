//go:build !linux

package dir

import "golang.org/x/sys/unix"

func parseDirents(buf []byte, dst []Entry) []Entry {
	_, _, names := unix.ParseDirent(buf, -1, nil)

	for _, name := range names {
		dst = append(dst, Entry{Name: name})
	}

	return dst
}
