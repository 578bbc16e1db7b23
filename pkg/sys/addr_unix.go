//go:build unix

package sys

import (
	"net/netip"

	"github.com/brickingsoft/errors"
	"golang.org/x/sys/unix"
)

func AddrPortToSockaddr(addr netip.AddrPort) (unix.Sockaddr, error) {
	ip := addr.Addr()
	if !ip.IsValid() {
		return nil, errors.From(ErrInvalidAddr, errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
	}
	if ip.Is4() {
		return &unix.SockaddrInet4{Port: int(addr.Port()), Addr: ip.As4()}, nil
	}
	return &unix.SockaddrInet6{Port: int(addr.Port()), ZoneId: zoneIndex(ip.Zone()), Addr: ip.As16()}, nil
}

func SockaddrToAddrPort(sa unix.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *unix.SockaddrInet6:
		ip := netip.AddrFrom16(sa.Addr)
		if zone := zoneName(int(sa.ZoneId)); zone != "" {
			ip = ip.WithZone(zone)
		}
		return netip.AddrPortFrom(ip, uint16(sa.Port))
	default:
		return netip.AddrPort{}
	}
}

// SockaddrLen
// is the length of the raw form of sa.
func SockaddrLen(sa unix.Sockaddr) uint32 {
	switch sa.(type) {
	case *unix.SockaddrInet4:
		return unix.SizeofSockaddrInet4
	case *unix.SockaddrInet6:
		return unix.SizeofSockaddrInet6
	default:
		return 0
	}
}
