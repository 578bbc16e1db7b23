//go:build windows

package event

import (
	"context"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

const waitSlice = 50 * time.Millisecond

// HandleWait
// waits for a waitable handle (event, process, semaphore ...) to become signaled.
// The wait runs in bounded slices so that ctx is honored; a failed wait reports
// the system error code.
func HandleWait(h windows.Handle) WaitFunc {
	return func(ctx context.Context) error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			ev, err := windows.WaitForSingleObject(h, uint32(waitSlice.Milliseconds()))
			switch ev {
			case windows.WAIT_OBJECT_0, windows.WAIT_ABANDONED:
				return nil
			case uint32(windows.WAIT_TIMEOUT):
				continue
			default:
				if err == nil {
					err = windows.GetLastError()
				}
				return waitError(os.NewSyscallError("WaitForSingleObject", err))
			}
		}
	}
}
