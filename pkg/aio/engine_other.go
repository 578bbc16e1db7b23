//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd || windows)

package aio

import "net/netip"

type controlBlock struct{}

func (cb *controlBlock) peer() netip.AddrPort {
	return netip.AddrPort{}
}

type Engine struct{}

func newEngine(_ Options) (*Engine, error) {
	return nil, ErrUnsupported
}

func (e *Engine) associate(_ Handle) error { return ErrUnsupported }

func (e *Engine) disassociate(_ Handle) error { return ErrUnsupported }

func (e *Engine) submit(_ *Descriptor) error { return ErrUnsupported }

func (e *Engine) cancel(_ *Descriptor) bool { return false }

func (e *Engine) stop() error { return nil }
