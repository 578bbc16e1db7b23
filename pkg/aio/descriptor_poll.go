//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package aio

import (
	"net/netip"

	"github.com/brickingsoft/coio/pkg/sys"
	"golang.org/x/sys/unix"
)

// controlBlock
// holds the state of a request performed by the poller engine.
type controlBlock struct {
	errno   unix.Errno
	flags   int32
	n       int
	addrLen uint32
	sa      unix.Sockaddr
	fd      int
}

func (cb *controlBlock) peer() netip.AddrPort {
	return sys.SockaddrToAddrPort(cb.sa)
}

// perform issues the non-blocking system call of d once.
func perform(d *Descriptor) (n int, err error) {
	cb := &d.cb
	for {
		switch d.mode {
		case modeSendTo:
			n, err = unix.SendmsgN(cb.fd, d.buf, nil, cb.sa, sendFlags)
		case modeSend:
			n, err = unix.SendmsgN(cb.fd, d.buf, nil, nil, int(cb.flags)|sendFlags)
		case modeRecvFrom:
			n, cb.sa, err = unix.Recvfrom(cb.fd, d.buf, 0)
			cb.addrLen = sys.SockaddrLen(cb.sa)
		case modeRecv:
			n, _, err = unix.Recvfrom(cb.fd, d.buf, int(cb.flags))
		}
		if err != unix.EINTR {
			break
		}
	}
	if n < 0 {
		n = 0
	}
	cb.n = n
	if errno, ok := err.(unix.Errno); ok {
		cb.errno = errno
	}
	return
}

func syscallName(m mode) string {
	if m.writes() {
		return "sendmsg"
	}
	return "recvfrom"
}
