//go:build windows

package aio

import (
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/brickingsoft/coio/pkg/sys"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

// orphans keeps descriptors whose requests never reported back before shutdown;
// the system may still write into them.
var orphans sync.Map

// Engine
// is a completion port. Cylinders dequeue completion packets and resume the
// descriptors they point to.
type Engine struct {
	options    Options
	port       windows.Handle
	associated sync.Map
	inflight   sync.Map
	pending    atomic.Int64
	stopping   atomic.Bool
	wg         sync.WaitGroup
}

func newEngine(options Options) (*Engine, error) {
	if err := sys.Startup(); err != nil {
		return nil, err
	}
	port, err := windows.CreateIoCompletionPort(windows.InvalidHandle, 0, 0, uint32(options.Cylinders))
	if err != nil {
		return nil, os.NewSyscallError("CreateIoCompletionPort", err)
	}
	e := &Engine{
		options: options,
		port:    port,
	}
	for i := 0; i < options.Cylinders; i++ {
		e.wg.Add(1)
		go e.loop(i)
	}
	return e, nil
}

func (e *Engine) loop(index int) {
	defer e.wg.Done()
	defer e.options.lockCylinder(index)()
	timeout := uint32(e.options.WaitTimeout.Milliseconds())
	for {
		var qty uint32
		var key uintptr
		var overlapped *windows.Overlapped
		err := windows.GetQueuedCompletionStatus(e.port, &qty, &key, &overlapped, timeout)
		if overlapped == nil {
			if err == nil {
				if e.stopping.Load() {
					return
				}
				continue
			}
			if err == windows.Errno(windows.WAIT_TIMEOUT) {
				continue
			}
			Logger().Error("aio: engine wait failed", zap.Error(os.NewSyscallError("GetQueuedCompletionStatus", err)))
			return
		}
		e.complete(descriptorOf(overlapped), int(qty), err)
	}
}

func (e *Engine) complete(d *Descriptor, n int, err error) {
	if _, loaded := e.inflight.LoadAndDelete(d); loaded {
		e.pending.Add(-1)
	}
	if err != nil {
		op := d.mode.String()
		if e.stopping.Load() && err == windows.ERROR_OPERATION_ABORTED {
			err = completionError(op, ErrClosed)
		} else {
			err = completionError(op, os.NewSyscallError(wsaName(d.mode), err))
		}
	}
	Complete(d, n, err)
}

func (e *Engine) associate(sd Handle) error {
	if _, ok := e.associated.Load(sd); ok {
		return nil
	}
	if _, err := windows.CreateIoCompletionPort(windows.Handle(sd), e.port, 0, 0); err != nil {
		return os.NewSyscallError("CreateIoCompletionPort", err)
	}
	e.associated.Store(sd, struct{}{})
	return nil
}

// disassociate only forgets sd; closing the socket aborts its requests.
func (e *Engine) disassociate(sd Handle) error {
	e.associated.Delete(sd)
	return nil
}

func (e *Engine) submit(d *Descriptor) (err error) {
	if e.stopping.Load() {
		return ErrClosed
	}
	if err = e.associate(d.handle); err != nil {
		return err
	}
	cb := &d.cb
	*cb = controlBlock{}
	cb.wsabuf.Len = uint32(len(d.buf))
	if len(d.buf) > 0 {
		cb.wsabuf.Buf = unsafe.SliceData(d.buf)
	}
	cb.flags = uint32(d.flags)
	var sa windows.Sockaddr
	if d.mode == modeSendTo {
		if sa, err = sys.AddrPortToSockaddr(d.remote); err != nil {
			return err
		}
	}

	e.inflight.Store(d, struct{}{})
	e.pending.Add(1)
	d.submitted()
	sd := windows.Handle(d.handle)
	switch d.mode {
	case modeSendTo:
		err = windows.WSASendto(sd, &cb.wsabuf, 1, &cb.qty, cb.flags, sa, &cb.overlapped, nil)
	case modeRecvFrom:
		cb.rsaLen = int32(unsafe.Sizeof(cb.rsa))
		err = windows.WSARecvFrom(sd, &cb.wsabuf, 1, &cb.qty, &cb.flags, &cb.rsa, &cb.rsaLen, &cb.overlapped, nil)
	case modeSend:
		err = windows.WSASend(sd, &cb.wsabuf, 1, &cb.qty, cb.flags, &cb.overlapped, nil)
	case modeRecv:
		err = windows.WSARecv(sd, &cb.wsabuf, 1, &cb.qty, &cb.flags, &cb.overlapped, nil)
	}
	if err != nil && err != windows.ERROR_IO_PENDING {
		if _, loaded := e.inflight.LoadAndDelete(d); loaded {
			e.pending.Add(-1)
		}
		if !d.state.CompareAndSwap(stateSubmitted, stateSubmitting) {
			// completed by shutdown meanwhile
			return nil
		}
		return os.NewSyscallError(wsaName(d.mode), err)
	}
	return nil
}

// cancel requests the abort of d; the completion arrives with ERROR_OPERATION_ABORTED.
func (e *Engine) cancel(d *Descriptor) bool {
	if _, ok := e.inflight.Load(d); !ok {
		return false
	}
	return windows.CancelIoEx(windows.Handle(d.handle), &d.cb.overlapped) == nil
}

func (e *Engine) stop() error {
	if e.stopping.Swap(true) {
		return nil
	}
	e.inflight.Range(func(key, _ any) bool {
		d := key.(*Descriptor)
		_ = windows.CancelIoEx(windows.Handle(d.handle), &d.cb.overlapped)
		return true
	})
	deadline := time.Now().Add(e.options.DrainTimeout)
	for e.pending.Load() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	e.inflight.Range(func(key, _ any) bool {
		d := key.(*Descriptor)
		if _, loaded := e.inflight.LoadAndDelete(d); loaded {
			e.pending.Add(-1)
			orphans.Store(d, struct{}{})
			Logger().Warn("aio: request abandoned at shutdown", zap.String("op", d.mode.String()))
			Complete(d, 0, completionError(d.mode.String(), ErrClosed))
		}
		return true
	})
	for i := 0; i < e.options.Cylinders; i++ {
		if err := windows.PostQueuedCompletionStatus(e.port, 0, 0, nil); err != nil {
			Logger().Warn("aio: engine wakeup failed", zap.Error(err))
		}
	}
	e.wg.Wait()
	e.associated.Clear()
	if err := windows.CloseHandle(e.port); err != nil {
		return os.NewSyscallError("CloseHandle", err)
	}
	return nil
}
