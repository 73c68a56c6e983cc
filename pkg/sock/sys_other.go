//go:build !linux

package sock

import "golang.org/x/sys/unix"

// Without SOCK_CLOEXEC the flag is set right after creation. A concurrent
// fork+exec in between can inherit the descriptor.

func socket(domain, typ, proto int) (int, error) {
	fd, err := unix.Socket(domain, typ, proto)
	if err != nil {
		return -1, err
	}

	unix.CloseOnExec(fd)

	return fd, nil
}

func socketpair(domain, typ, proto int) ([2]int, error) {
	fds, err := unix.Socketpair(domain, typ, proto)
	if err != nil {
		return fds, err
	}

	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])

	return fds, nil
}

func accept(fd int) (int, error) {
	nfd, _, err := unix.Accept(fd)
	if err != nil {
		return -1, err
	}

	unix.CloseOnExec(nfd)

	return nfd, nil
}
