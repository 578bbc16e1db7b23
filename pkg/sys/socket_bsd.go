//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package sys

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// NewSocket
// creates a close-on-exec socket in blocking mode with the default options applied.
func NewSocket(family int, sotype int, protocol int) (fd int, err error) {
	syscall.ForkLock.RLock()
	fd, err = unix.Socket(family, sotype, protocol)
	if err == nil {
		unix.CloseOnExec(fd)
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		err = os.NewSyscallError("socket", err)
		return
	}
	if err = setDefaultSocketOpts(fd, family, sotype); err != nil {
		_ = unix.Close(fd)
		fd = -1
		return
	}
	if err = setNoSigpipe(fd); err != nil {
		_ = unix.Close(fd)
		fd = -1
		return
	}
	return
}
