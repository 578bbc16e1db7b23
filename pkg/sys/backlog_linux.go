//go:build linux

package sys

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

var (
	somaxconn   = syscall.SOMAXCONN
	backlogOnce = sync.Once{}
)

// MaxListenerBacklog
// reads the kernel's accept queue limit, falling back to SOMAXCONN.
func MaxListenerBacklog() int {
	backlogOnce.Do(func() {
		fd, err := os.Open("/proc/sys/net/core/somaxconn")
		if err != nil {
			return
		}
		defer func() {
			_ = fd.Close()
		}()
		line, readErr := bufio.NewReader(fd).ReadString('\n')
		if readErr != nil {
			return
		}
		n, parseErr := strconv.Atoi(strings.TrimSpace(line))
		if parseErr != nil || n < 1 {
			return
		}
		if n > 1<<16-1 {
			n = 1<<16 - 1
		}
		somaxconn = n
	})
	return somaxconn
}
