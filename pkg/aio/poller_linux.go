//go:build linux

package aio

import (
	"encoding/binary"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

const sendFlags = unix.MSG_NOSIGNAL

// poller
// is an epoll instance. Sockets are armed one-shot, so a notification is
// handed to exactly one cylinder. The eventfd is left readable once written,
// which wakes every cylinder on shutdown.
type poller struct {
	fd     int
	wakefd int
}

func openPoller() (*poller, error) {
	fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("eventfd", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err = unix.EpollCtl(fd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		_ = unix.Close(wakefd)
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("epoll_ctl", err)
	}
	return &poller{fd: fd, wakefd: wakefd}, nil
}

func (p *poller) register(fd int) error {
	ev := unix.EpollEvent{Events: unix.EPOLLONESHOT, Fd: int32(fd)}
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	return nil
}

func (p *poller) deregister(fd int) error {
	return unix.EpollCtl(p.fd, unix.EPOLL_CTL_DEL, fd, &unix.EpollEvent{})
}

func (p *poller) arm(fd int, in interest) error {
	events := uint32(unix.EPOLLONESHOT)
	if in&interestRead != 0 {
		events |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if in&interestWrite != 0 {
		events |= unix.EPOLLOUT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(fd)}
	if err := unix.EpollCtl(p.fd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return os.NewSyscallError("epoll_ctl", err)
	}
	return nil
}

type pollEvents struct {
	raw   []unix.EpollEvent
	ready []readiness
}

func newPollEvents(n int) *pollEvents {
	return &pollEvents{
		raw:   make([]unix.EpollEvent, n),
		ready: make([]readiness, 0, n),
	}
}

func (p *poller) wait(events *pollEvents, timeout time.Duration) ([]readiness, error) {
	ready := events.ready[:0]
	n, err := unix.EpollWait(p.fd, events.raw, int(timeout.Milliseconds()))
	if err != nil {
		if err == unix.EINTR {
			return ready, nil
		}
		return nil, os.NewSyscallError("epoll_wait", err)
	}
	for i := 0; i < n; i++ {
		ev := events.raw[i]
		fd := int(ev.Fd)
		if fd == p.wakefd {
			continue
		}
		ready = append(ready, readiness{
			fd:       fd,
			readable: ev.Events&(unix.EPOLLIN|unix.EPOLLRDHUP) != 0,
			writable: ev.Events&unix.EPOLLOUT != 0,
			failed:   ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0,
		})
	}
	return ready, nil
}

func (p *poller) wakeup() error {
	var b [8]byte
	binary.NativeEndian.PutUint64(b[:], 1)
	if _, err := unix.Write(p.wakefd, b[:]); err != nil {
		return os.NewSyscallError("write", err)
	}
	return nil
}

func (p *poller) close() error {
	_ = unix.Close(p.wakefd)
	if err := unix.Close(p.fd); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}
