//go:build windows

package sys

import (
	"net/netip"

	"github.com/brickingsoft/errors"
	"golang.org/x/sys/windows"
)

func AddrPortToSockaddr(addr netip.AddrPort) (windows.Sockaddr, error) {
	ip := addr.Addr()
	if !ip.IsValid() {
		return nil, errors.From(ErrInvalidAddr, errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
	}
	if ip.Is4() {
		return &windows.SockaddrInet4{Port: int(addr.Port()), Addr: ip.As4()}, nil
	}
	return &windows.SockaddrInet6{Port: int(addr.Port()), ZoneId: zoneIndex(ip.Zone()), Addr: ip.As16()}, nil
}

func SockaddrToAddrPort(sa windows.Sockaddr) netip.AddrPort {
	switch sa := sa.(type) {
	case *windows.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port))
	case *windows.SockaddrInet6:
		ip := netip.AddrFrom16(sa.Addr)
		if zone := zoneName(int(sa.ZoneId)); zone != "" {
			ip = ip.WithZone(zone)
		}
		return netip.AddrPortFrom(ip, uint16(sa.Port))
	default:
		return netip.AddrPort{}
	}
}

// RawToAddrPort
// decodes a socket address filled in by the system.
func RawToAddrPort(rsa *windows.RawSockaddrAny) netip.AddrPort {
	sa, err := rsa.Sockaddr()
	if err != nil {
		return netip.AddrPort{}
	}
	return SockaddrToAddrPort(sa)
}
