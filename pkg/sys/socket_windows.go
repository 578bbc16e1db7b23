//go:build windows

package sys

import (
	"os"
	"sync"

	"golang.org/x/sys/windows"
)

var (
	wsaOnce sync.Once
	wsaErr  error
)

// Startup
// initializes winsock once per process.
func Startup() error {
	wsaOnce.Do(func() {
		var data windows.WSAData
		if err := windows.WSAStartup(uint32(0x202), &data); err != nil {
			wsaErr = os.NewSyscallError("WSAStartup", err)
		}
	})
	return wsaErr
}

// NewSocket
// creates an overlapped, non-inheritable socket with the default options applied.
func NewSocket(family int, sotype int, protocol int) (windows.Handle, error) {
	if err := Startup(); err != nil {
		return windows.InvalidHandle, err
	}
	h, err := windows.WSASocket(int32(family), int32(sotype), int32(protocol), nil, 0, windows.WSA_FLAG_OVERLAPPED|windows.WSA_FLAG_NO_HANDLE_INHERIT)
	if err != nil {
		return windows.InvalidHandle, os.NewSyscallError("WSASocket", err)
	}
	if err = setDefaultSocketOpts(h, family, sotype); err != nil {
		_ = windows.Closesocket(h)
		return windows.InvalidHandle, err
	}
	return h, nil
}

func setDefaultSocketOpts(h windows.Handle, family int, sotype int) error {
	if family == windows.AF_INET6 {
		if err := windows.SetsockoptInt(h, windows.IPPROTO_IPV6, windows.IPV6_V6ONLY, 0); err != nil {
			return os.NewSyscallError("setsockopt", err)
		}
	}
	if sotype == windows.SOCK_DGRAM && family == windows.AF_INET {
		if err := windows.SetsockoptInt(h, windows.SOL_SOCKET, windows.SO_BROADCAST, 1); err != nil {
			return os.NewSyscallError("setsockopt", err)
		}
	}
	return nil
}

// SetReuseAddr
// lets a listener rebind a recently used address.
func SetReuseAddr(h windows.Handle) error {
	return os.NewSyscallError("setsockopt", windows.SetsockoptInt(h, windows.SOL_SOCKET, windows.SO_REUSEADDR, 1))
}
