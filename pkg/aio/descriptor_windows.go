//go:build windows

package aio

import (
	"net/netip"
	"unsafe"

	"github.com/brickingsoft/coio/pkg/sys"
	"golang.org/x/sys/windows"
)

// controlBlock
// is the overlapped record handed to the system. The completion port returns
// the address of overlapped, which is also the address of the Descriptor.
type controlBlock struct {
	overlapped windows.Overlapped
	wsabuf     windows.WSABuf
	flags      uint32
	qty        uint32
	rsa        windows.RawSockaddrAny
	rsaLen     int32
}

// OVERLAPPED is Internal, InternalHigh, a union of two DWORDs and hEvent.
const nativeOverlappedSize = 3*unsafe.Sizeof(uintptr(0)) + 8

var (
	_ = [1]struct{}{}[unsafe.Offsetof(Descriptor{}.cb)]
	_ = [1]struct{}{}[unsafe.Offsetof(controlBlock{}.overlapped)]
	_ [unsafe.Sizeof(windows.Overlapped{}) - nativeOverlappedSize]struct{}
	_ [nativeOverlappedSize - unsafe.Sizeof(windows.Overlapped{})]struct{}
)

func (cb *controlBlock) peer() netip.AddrPort {
	return sys.RawToAddrPort(&cb.rsa)
}

func descriptorOf(overlapped *windows.Overlapped) *Descriptor {
	return (*Descriptor)(unsafe.Pointer(overlapped))
}

func wsaName(m mode) string {
	switch m {
	case modeSendTo:
		return "WSASendTo"
	case modeRecvFrom:
		return "WSARecvFrom"
	case modeSend:
		return "WSASend"
	default:
		return "WSARecv"
	}
}
