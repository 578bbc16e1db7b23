// Package sys converts between netip addresses and system socket addresses and
// creates sockets in the modes the aio engine expects.
package sys

import (
	"net"
	"net/netip"
	"strings"
	"syscall"

	"github.com/brickingsoft/errors"
)

var (
	ErrInvalidNetwork = errors.Define("invalid network")
	ErrInvalidAddr    = errors.Define("invalid address")
)

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "sys"
)

// ResolveAddr
// resolves address for one of the udp and tcp networks and reports the socket
// family and type to use.
func ResolveAddr(network string, address string) (addr netip.AddrPort, family int, sotype int, err error) {
	address = strings.TrimSpace(address)
	switch network {
	case "udp", "udp4", "udp6":
		sotype = syscall.SOCK_DGRAM
		a, resolveErr := net.ResolveUDPAddr(network, address)
		if resolveErr != nil {
			err = errors.From(ErrInvalidAddr, errors.WithWrap(resolveErr))
			return
		}
		addr = a.AddrPort()
	case "tcp", "tcp4", "tcp6":
		sotype = syscall.SOCK_STREAM
		a, resolveErr := net.ResolveTCPAddr(network, address)
		if resolveErr != nil {
			err = errors.From(ErrInvalidAddr, errors.WithWrap(resolveErr))
			return
		}
		addr = a.AddrPort()
	default:
		err = errors.From(ErrInvalidNetwork, errors.WithMeta("network", network))
		return
	}
	family, addr = AddrFamily(network, addr)
	return
}

// AddrFamily
// picks the socket family for addr. An unspecified address binds to the
// wildcard of the network's family.
func AddrFamily(network string, addr netip.AddrPort) (int, netip.AddrPort) {
	ip := addr.Addr()
	switch network[len(network)-1] {
	case '6':
		if !ip.IsValid() {
			ip = netip.IPv6Unspecified()
		}
		return syscall.AF_INET6, netip.AddrPortFrom(ip, addr.Port())
	}
	if !ip.IsValid() {
		return syscall.AF_INET, netip.AddrPortFrom(netip.IPv4Unspecified(), addr.Port())
	}
	if ip.Is4() || ip.Is4In6() {
		return syscall.AF_INET, netip.AddrPortFrom(ip.Unmap(), addr.Port())
	}
	return syscall.AF_INET6, addr
}

func zoneName(index int) string {
	if index == 0 {
		return ""
	}
	ifi, err := net.InterfaceByIndex(index)
	if err != nil {
		return ""
	}
	return ifi.Name
}

func zoneIndex(name string) uint32 {
	if name == "" {
		return 0
	}
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return 0
	}
	return uint32(ifi.Index)
}
