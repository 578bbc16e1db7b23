//go:build unix

package event

import (
	"context"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const pollSlice = 50 * time.Millisecond

// FdWait
// waits for fd to become readable, polling in bounded slices so that ctx is honored.
func FdWait(fd int) WaitFunc {
	return func(ctx context.Context) error {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := unix.Poll(fds, int(pollSlice.Milliseconds()))
			if err != nil {
				if err == unix.EINTR {
					continue
				}
				return waitError(os.NewSyscallError("poll", err))
			}
			if n == 0 {
				continue
			}
			if fds[0].Revents&(unix.POLLERR|unix.POLLNVAL) != 0 {
				return waitError(os.NewSyscallError("poll", unix.EBADF))
			}
			return nil
		}
	}
}
