//go:build linux

package sys

import (
	"os"

	"golang.org/x/sys/unix"
)

// NewSocket
// creates a close-on-exec socket in blocking mode with the default options applied.
func NewSocket(family int, sotype int, protocol int) (fd int, err error) {
	fd, err = unix.Socket(family, sotype|unix.SOCK_CLOEXEC, protocol)
	if err != nil {
		err = os.NewSyscallError("socket", err)
		return
	}
	if err = setDefaultSocketOpts(fd, family, sotype); err != nil {
		_ = unix.Close(fd)
		fd = -1
		return
	}
	return
}
