//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd || windows)

package sockets

import (
	"net/netip"

	"github.com/brickingsoft/coio/pkg/aio"
)

func Open(_ string, _ string) (aio.Handle, netip.AddrPort, error) {
	return aio.InvalidHandle, netip.AddrPort{}, newError("open failed", errMetaOpOpen, ErrUnsupported)
}

func Dial(_ string, _ string) (aio.Handle, error) {
	return aio.InvalidHandle, newError("dial failed", errMetaOpDial, ErrUnsupported)
}

func Accept(_ aio.Handle) (aio.Handle, netip.AddrPort, error) {
	return aio.InvalidHandle, netip.AddrPort{}, newError("accept failed", errMetaOpAccept, ErrUnsupported)
}

func LocalAddr(_ aio.Handle) (netip.AddrPort, error) {
	return netip.AddrPort{}, newError("get local address failed", errMetaOpAddr, ErrUnsupported)
}

func Close(_ aio.Handle) error {
	return newError("close failed", errMetaOpClose, ErrUnsupported)
}
