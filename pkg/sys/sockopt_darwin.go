//go:build darwin

package sys

import (
	"os"

	"golang.org/x/sys/unix"
)

func setNoSigpipe(fd int) error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_NOSIGPIPE, 1))
}
