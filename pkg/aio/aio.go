// Package aio issues socket operations as awaitable requests.
//
// A request lives in a caller-owned Descriptor. The caller wraps the descriptor
// into one of the operation variants (SendTo, RecvFrom, Send, Recv) and awaits it
// with the coro drivers: Suspend stores the resumption token and starts the
// request, the Engine resumes the token once the request completed, and Resume
// reports the result.
package aio

import (
	"net/netip"
	"syscall"
)

// Handle
// is the system socket descriptor: a SOCKET on windows, a file descriptor elsewhere.
type Handle uintptr

const InvalidHandle = ^Handle(0)

// Result
// is the outcome of a completed request.
type Result struct {
	// N is the number of bytes transferred.
	N int
	// Addr is the peer of a RecvFrom.
	Addr netip.AddrPort
	// Err is nil on success, otherwise IsCompletionError(Err) is true.
	Err error
	// Errno is the system error code of a failed request, zero otherwise.
	Errno syscall.Errno
}

type mode uint8

const (
	modeSendTo mode = iota + 1
	modeRecvFrom
	modeSend
	modeRecv
)

func (m mode) String() string {
	switch m {
	case modeSendTo:
		return errMetaOpSendTo
	case modeRecvFrom:
		return errMetaOpRecvFrom
	case modeSend:
		return errMetaOpSend
	case modeRecv:
		return errMetaOpRecv
	default:
		return "unknown"
	}
}

func (m mode) writes() bool {
	return m == modeSendTo || m == modeSend
}
