//go:build !linux && (unix || windows)

package sys

import "syscall"

func MaxListenerBacklog() int {
	return syscall.SOMAXCONN
}
