package aio

import (
	"net/netip"

	"github.com/brickingsoft/coio/pkg/coro"
)

// SendTo
// sends one datagram to a remote address.
type SendTo Descriptor

func NewSendTo(sd Handle, remote netip.AddrPort, buf []byte, d *Descriptor) *SendTo {
	d.prepare(modeSendTo, sd, buf, 0, remote)
	return (*SendTo)(d)
}

func (op *SendTo) Descriptor() *Descriptor { return (*Descriptor)(op) }

func (op *SendTo) Ready() bool { return false }

func (op *SendTo) Suspend(t coro.Token) error { return op.Descriptor().submit(t) }

func (op *SendTo) Resume() Result { return op.result }

func (op *SendTo) Cancel() bool { return op.Descriptor().cancel() }

// RecvFrom
// receives one datagram. Resume reports the sender in Result.Addr.
type RecvFrom Descriptor

func NewRecvFrom(sd Handle, buf []byte, d *Descriptor) *RecvFrom {
	d.prepare(modeRecvFrom, sd, buf, 0, netip.AddrPort{})
	return (*RecvFrom)(d)
}

func (op *RecvFrom) Descriptor() *Descriptor { return (*Descriptor)(op) }

func (op *RecvFrom) Ready() bool { return false }

func (op *RecvFrom) Suspend(t coro.Token) error { return op.Descriptor().submit(t) }

func (op *RecvFrom) Resume() Result { return op.result }

func (op *RecvFrom) Cancel() bool { return op.Descriptor().cancel() }

// Send
// writes to a connected stream socket. flags are passed to the system call.
type Send Descriptor

func NewSend(sd Handle, buf []byte, flags int, d *Descriptor) *Send {
	d.prepare(modeSend, sd, buf, flags, netip.AddrPort{})
	return (*Send)(d)
}

func (op *Send) Descriptor() *Descriptor { return (*Descriptor)(op) }

func (op *Send) Ready() bool { return false }

func (op *Send) Suspend(t coro.Token) error { return op.Descriptor().submit(t) }

func (op *Send) Resume() Result { return op.result }

func (op *Send) Cancel() bool { return op.Descriptor().cancel() }

// Recv
// reads from a connected stream socket. A zero N with a nil error means the peer
// closed the stream.
type Recv Descriptor

func NewRecv(sd Handle, buf []byte, flags int, d *Descriptor) *Recv {
	d.prepare(modeRecv, sd, buf, flags, netip.AddrPort{})
	return (*Recv)(d)
}

func (op *Recv) Descriptor() *Descriptor { return (*Descriptor)(op) }

func (op *Recv) Ready() bool { return false }

func (op *Recv) Suspend(t coro.Token) error { return op.Descriptor().submit(t) }

func (op *Recv) Resume() Result { return op.result }

func (op *Recv) Cancel() bool { return op.Descriptor().cancel() }
