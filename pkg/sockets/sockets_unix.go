//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package sockets

import (
	"net/netip"
	"os"
	"syscall"

	"github.com/brickingsoft/coio/pkg/aio"
	"github.com/brickingsoft/coio/pkg/sys"
	"golang.org/x/sys/unix"
)

// Open
// creates a socket bound to address. A tcp socket is also listening. The bound
// address is returned, with the port resolved when address asked for port 0.
func Open(network string, address string) (aio.Handle, netip.AddrPort, error) {
	addr, family, sotype, err := sys.ResolveAddr(network, address)
	if err != nil {
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
	}
	fd, err := sys.NewSocket(family, sotype, 0)
	if err != nil {
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
	}
	if sotype == syscall.SOCK_STREAM {
		if err = sys.SetReuseAddr(fd); err != nil {
			_ = unix.Close(fd)
			return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
		}
	}
	sa, err := sys.AddrPortToSockaddr(addr)
	if err != nil {
		_ = unix.Close(fd)
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
	}
	if err = unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, os.NewSyscallError("bind", err))
	}
	if sotype == syscall.SOCK_STREAM {
		if err = unix.Listen(fd, sys.MaxListenerBacklog()); err != nil {
			_ = unix.Close(fd)
			return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, os.NewSyscallError("listen", err))
		}
	}
	sd := aio.Handle(fd)
	bound, err := LocalAddr(sd)
	if err != nil {
		_ = unix.Close(fd)
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
	}
	return sd, bound, nil
}

// Dial
// creates a socket connected to address.
func Dial(network string, address string) (aio.Handle, error) {
	addr, family, sotype, err := sys.ResolveAddr(network, address)
	if err != nil {
		return aio.InvalidHandle, newError("dial failed", errMetaOpDial, err)
	}
	fd, err := sys.NewSocket(family, sotype, 0)
	if err != nil {
		return aio.InvalidHandle, newError("dial failed", errMetaOpDial, err)
	}
	sa, err := sys.AddrPortToSockaddr(addr)
	if err != nil {
		_ = unix.Close(fd)
		return aio.InvalidHandle, newError("dial failed", errMetaOpDial, err)
	}
	for {
		err = unix.Connect(fd, sa)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		_ = unix.Close(fd)
		return aio.InvalidHandle, newError("dial failed", errMetaOpDial, os.NewSyscallError("connect", err))
	}
	return aio.Handle(fd), nil
}

// Accept
// waits for a connection on the listening socket sd.
func Accept(sd aio.Handle) (aio.Handle, netip.AddrPort, error) {
	lfd := int(sd)
	for {
		syscall.ForkLock.RLock()
		fd, sa, err := unix.Accept(lfd)
		if err == nil {
			unix.CloseOnExec(fd)
		}
		syscall.ForkLock.RUnlock()
		switch err {
		case nil:
			return aio.Handle(fd), sys.SockaddrToAddrPort(sa), nil
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN:
			if err = waitReadable(lfd); err != nil {
				return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, err)
			}
			continue
		default:
			return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, os.NewSyscallError("accept", err))
		}
	}
}

// waitReadable blocks on a listener that was switched to non-blocking mode.
func waitReadable(fd int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return os.NewSyscallError("poll", err)
		}
		return nil
	}
}

func LocalAddr(sd aio.Handle) (netip.AddrPort, error) {
	sa, err := unix.Getsockname(int(sd))
	if err != nil {
		return netip.AddrPort{}, newError("get local address failed", errMetaOpAddr, os.NewSyscallError("getsockname", err))
	}
	return sys.SockaddrToAddrPort(sa), nil
}

// Close
// disassociates sd from the engine, failing its pending requests, and closes it.
func Close(sd aio.Handle) error {
	if err := aio.Disassociate(sd); err != nil {
		return newError("close failed", errMetaOpClose, err)
	}
	if err := unix.Close(int(sd)); err != nil {
		return newError("close failed", errMetaOpClose, os.NewSyscallError("close", err))
	}
	return nil
}
