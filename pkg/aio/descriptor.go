package aio

import (
	"net/netip"
	"sync/atomic"

	"github.com/brickingsoft/coio/pkg/coro"
	"go.uber.org/zap"
)

// A descriptor is submitting while its request is being handed to the engine,
// and submitted once the engine may complete it.
const (
	stateIdle uint32 = iota
	stateSubmitting
	stateSubmitted
	stateCompleting
	stateCompleted
)

// Descriptor
// is the storage of one asynchronous request. It is owned by the caller, must
// not move or be dropped while the request is in flight, and carries exactly one
// request at a time.
//
// The platform control block is the first field, so the system can refer to the
// descriptor through the control block address.
type Descriptor struct {
	cb     controlBlock
	token  coro.Token
	buf    []byte
	mode   mode
	handle Handle
	flags  int
	remote netip.AddrPort
	state  atomic.Uint32
	result Result
}

// InFlight
// reports whether a request was started and has not completed yet.
func (d *Descriptor) InFlight() bool {
	s := d.state.Load()
	return s != stateIdle && s != stateCompleted
}

// Reset
// returns a completed descriptor to idle so it can carry another request.
func (d *Descriptor) Reset() error {
	for {
		s := d.state.Load()
		if s != stateIdle && s != stateCompleted {
			return engineError("reset failed", errMetaOpReset, ErrInFlight)
		}
		if d.state.CompareAndSwap(s, stateIdle) {
			break
		}
	}
	d.token = coro.Token{}
	d.buf = nil
	d.result = Result{}
	d.remote = netip.AddrPort{}
	d.cb = controlBlock{}
	return nil
}

// prepare leaves an in-flight descriptor untouched; its next submit fails with ErrInFlight.
func (d *Descriptor) prepare(m mode, sd Handle, buf []byte, flags int, remote netip.AddrPort) {
	if d.InFlight() {
		return
	}
	d.mode = m
	d.handle = sd
	d.buf = buf
	d.flags = flags
	d.remote = remote
}

// Complete
// populates the result of a submitted request and resumes its token. Only the
// first completion of a request takes effect; it reports whether this call was it.
func Complete(d *Descriptor, n int, err error) bool {
	if !d.claim() {
		return false
	}
	d.finish(n, err)
	return true
}

// claim moves a submitted descriptor into completing, so that one party
// at a time may perform or complete it.
func (d *Descriptor) claim() bool {
	return d.state.CompareAndSwap(stateSubmitted, stateCompleting)
}

// release gives a claimed descriptor back when the request must wait further.
func (d *Descriptor) release() {
	d.state.Store(stateSubmitted)
}

// submitted makes a submitting descriptor completable. The engine calls it at
// the point where completion may happen, and not earlier.
func (d *Descriptor) submitted() {
	d.state.Store(stateSubmitted)
}

func (d *Descriptor) finish(n int, err error) {
	d.result = Result{N: n, Err: err}
	if err != nil {
		d.result.Errno, _ = Errno(err)
	} else if d.mode == modeRecvFrom {
		d.result.Addr = d.cb.peer()
	}
	token := d.token
	d.token = coro.Token{}
	d.state.Store(stateCompleted)
	resume(token)
}

func resume(token coro.Token) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("aio: continuation panicked", zap.Any("panic", r))
		}
	}()
	token.Resume()
}

// submit starts the request of d. On failure d is idle again and t is not kept.
func (d *Descriptor) submit(t coro.Token) error {
	op := d.mode.String()
	if !d.state.CompareAndSwap(stateIdle, stateSubmitting) && !d.state.CompareAndSwap(stateCompleted, stateSubmitting) {
		return submissionError(op, ErrInFlight)
	}
	d.token = t
	d.result = Result{}
	eng, err := engine()
	if err == nil {
		err = eng.submit(d)
	}
	if err != nil {
		d.token = coro.Token{}
		d.state.Store(stateIdle)
		return submissionError(op, err)
	}
	return nil
}

// cancel detaches an in-flight request. The request completes with a cancellation error.
// A request still being submitted cannot be canceled.
func (d *Descriptor) cancel() bool {
	if d.state.Load() != stateSubmitted {
		return false
	}
	eng, err := engine()
	if err != nil {
		return false
	}
	return eng.cancel(d)
}
