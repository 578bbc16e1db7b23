//go:build windows

package sockets

import (
	"net/netip"
	"os"
	"syscall"
	"unsafe"

	"github.com/brickingsoft/coio/pkg/aio"
	"github.com/brickingsoft/coio/pkg/sys"
	"golang.org/x/sys/windows"
)

const soUpdateAcceptContext = 0x700b

// Open
// creates a socket bound to address. A tcp socket is also listening. The bound
// address is returned, with the port resolved when address asked for port 0.
func Open(network string, address string) (aio.Handle, netip.AddrPort, error) {
	addr, family, sotype, err := sys.ResolveAddr(network, address)
	if err != nil {
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
	}
	h, err := sys.NewSocket(family, sotype, 0)
	if err != nil {
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
	}
	if sotype == syscall.SOCK_STREAM {
		if err = sys.SetReuseAddr(h); err != nil {
			_ = windows.Closesocket(h)
			return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
		}
	}
	sa, err := sys.AddrPortToSockaddr(addr)
	if err != nil {
		_ = windows.Closesocket(h)
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, err)
	}
	if err = windows.Bind(h, sa); err != nil {
		_ = windows.Closesocket(h)
		return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, os.NewSyscallError("bind", err))
	}
	if sotype == syscall.SOCK_STREAM {
		if err = windows.Listen(h, sys.MaxListenerBacklog()); err != nil {
			_ = windows.Closesocket(h)
			return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, os.NewSyscallError("listen", err))
		}
	}
	sd := aio.Handle(h)
	bound, err := LocalAddr(sd)
	if err != nil {
		_ = windows.Closesocket(h)
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
	h, err := sys.NewSocket(family, sotype, 0)
	if err != nil {
		return aio.InvalidHandle, newError("dial failed", errMetaOpDial, err)
	}
	sa, err := sys.AddrPortToSockaddr(addr)
	if err != nil {
		_ = windows.Closesocket(h)
		return aio.InvalidHandle, newError("dial failed", errMetaOpDial, err)
	}
	if err = windows.Connect(h, sa); err != nil {
		_ = windows.Closesocket(h)
		return aio.InvalidHandle, newError("dial failed", errMetaOpDial, os.NewSyscallError("connect", err))
	}
	return aio.Handle(h), nil
}

// Accept
// waits for a connection on the listening socket sd. The wait uses an event, and
// the low bit of the event handle keeps the completion off any completion port.
func Accept(sd aio.Handle) (aio.Handle, netip.AddrPort, error) {
	ls := windows.Handle(sd)
	lsa, err := windows.Getsockname(ls)
	if err != nil {
		return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, os.NewSyscallError("getsockname", err))
	}
	family := windows.AF_INET
	if _, ok := lsa.(*windows.SockaddrInet6); ok {
		family = windows.AF_INET6
	}
	as, err := sys.NewSocket(family, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, err)
	}
	ev, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		_ = windows.Closesocket(as)
		return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, os.NewSyscallError("CreateEvent", err))
	}
	defer windows.CloseHandle(ev)

	const addrLen = uint32(unsafe.Sizeof(windows.RawSockaddrAny{})) + 16
	var buf [2 * addrLen]byte
	var recvd uint32
	overlapped := windows.Overlapped{HEvent: ev | 1}
	err = windows.AcceptEx(ls, as, &buf[0], 0, addrLen, addrLen, &recvd, &overlapped)
	if err == windows.ERROR_IO_PENDING {
		if _, err = windows.WaitForSingleObject(ev, windows.INFINITE); err == nil {
			err = windows.GetOverlappedResult(ls, &overlapped, &recvd, false)
		}
	}
	if err != nil {
		_ = windows.Closesocket(as)
		return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, os.NewSyscallError("AcceptEx", err))
	}
	if err = windows.Setsockopt(as, windows.SOL_SOCKET, soUpdateAcceptContext, (*byte)(unsafe.Pointer(&ls)), int32(unsafe.Sizeof(ls))); err != nil {
		_ = windows.Closesocket(as)
		return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, os.NewSyscallError("setsockopt", err))
	}
	rsa, err := windows.Getpeername(as)
	if err != nil {
		_ = windows.Closesocket(as)
		return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, os.NewSyscallError("getpeername", err))
	}
	return aio.Handle(as), sys.SockaddrToAddrPort(rsa), nil
}

func LocalAddr(sd aio.Handle) (netip.AddrPort, error) {
	sa, err := windows.Getsockname(windows.Handle(sd))
	if err != nil {
		return netip.AddrPort{}, newError("get local address failed", errMetaOpAddr, os.NewSyscallError("getsockname", err))
	}
	return sys.SockaddrToAddrPort(sa), nil
}

// Close
// forgets sd in the engine and closes it, which aborts its pending requests.
func Close(sd aio.Handle) error {
	if err := aio.Disassociate(sd); err != nil {
		return newError("close failed", errMetaOpClose, err)
	}
	if err := windows.Closesocket(windows.Handle(sd)); err != nil {
		return newError("close failed", errMetaOpClose, os.NewSyscallError("closesocket", err))
	}
	return nil
}
