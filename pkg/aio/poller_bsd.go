//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package aio

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const sendFlags = 0

// poller
// is a kqueue instance. Each filter is armed one-shot. The self-pipe is
// registered level-triggered, so a single byte wakes every cylinder on shutdown.
type poller struct {
	fd   int
	pipe [2]int
}

func openPoller() (*poller, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	unix.CloseOnExec(fd)
	p := &poller{fd: fd}
	syscall.ForkLock.RLock()
	err = unix.Pipe(p.pipe[:])
	if err == nil {
		unix.CloseOnExec(p.pipe[0])
		unix.CloseOnExec(p.pipe[1])
	}
	syscall.ForkLock.RUnlock()
	if err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("pipe", err)
	}
	_ = unix.SetNonblock(p.pipe[0], true)
	_ = unix.SetNonblock(p.pipe[1], true)
	changes := make([]unix.Kevent_t, 1)
	unix.SetKevent(&changes[0], p.pipe[0], unix.EVFILT_READ, unix.EV_ADD)
	if _, err = unix.Kevent(fd, changes, nil, nil); err != nil {
		_ = p.close()
		return nil, os.NewSyscallError("kevent", err)
	}
	return p, nil
}

func (p *poller) register(_ int) error {
	return nil
}

func (p *poller) deregister(fd int) error {
	changes := make([]unix.Kevent_t, 1)
	var err error
	for _, filter := range []int{unix.EVFILT_READ, unix.EVFILT_WRITE} {
		unix.SetKevent(&changes[0], fd, filter, unix.EV_DELETE)
		if _, kerr := unix.Kevent(p.fd, changes, nil, nil); kerr != nil && kerr != unix.ENOENT {
			err = kerr
		}
	}
	return err
}

func (p *poller) arm(fd int, in interest) error {
	changes := make([]unix.Kevent_t, 0, 2)
	if in&interestRead != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ONESHOT)
		changes = append(changes, ev)
	}
	if in&interestWrite != 0 {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ONESHOT)
		changes = append(changes, ev)
	}
	if _, err := unix.Kevent(p.fd, changes, nil, nil); err != nil {
		return os.NewSyscallError("kevent", err)
	}
	return nil
}

type pollEvents struct {
	raw   []unix.Kevent_t
	ready []readiness
}

func newPollEvents(n int) *pollEvents {
	return &pollEvents{
		raw:   make([]unix.Kevent_t, n),
		ready: make([]readiness, 0, n),
	}
}

func (p *poller) wait(events *pollEvents, timeout time.Duration) ([]readiness, error) {
	ready := events.ready[:0]
	ts := unix.NsecToTimespec(int64(timeout))
	n, err := unix.Kevent(p.fd, nil, events.raw, &ts)
	if err != nil {
		if err == unix.EINTR {
			return ready, nil
		}
		return nil, os.NewSyscallError("kevent", err)
	}
	for i := 0; i < n; i++ {
		ev := events.raw[i]
		fd := int(ev.Ident)
		if fd == p.pipe[0] {
			continue
		}
		ready = append(ready, readiness{
			fd:       fd,
			readable: ev.Filter == unix.EVFILT_READ,
			writable: ev.Filter == unix.EVFILT_WRITE,
			failed:   ev.Flags&(unix.EV_EOF|unix.EV_ERROR) != 0,
		})
	}
	return ready, nil
}

func (p *poller) wakeup() error {
	if _, err := unix.Write(p.pipe[1], []byte{1}); err != nil && err != unix.EAGAIN {
		return os.NewSyscallError("write", err)
	}
	return nil
}

func (p *poller) close() error {
	_ = unix.Close(p.pipe[0])
	_ = unix.Close(p.pipe[1])
	if err := unix.Close(p.fd); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}
