//go:build linux

// Package process adjusts scheduling properties of the calling thread.
package process

import (
	"os"
	"runtime"

	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
)

// SetCPUAffinity
// binds the calling thread to one CPU, chosen as index modulo the CPU count.
// The caller must hold the thread with runtime.LockOSThread.
func SetCPUAffinity(index int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(index % runtime.NumCPU())
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return errors.New(
			"set cpu affinity failed",
			errors.WithMeta("pkg", "process"),
			errors.WithWrap(os.NewSyscallError("sched_setaffinity", err)),
		)
	}
	return nil
}
