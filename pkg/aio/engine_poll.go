//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package aio

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/coio/pkg/sys"
	"github.com/eapache/queue"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

type interest uint8

const (
	interestRead interest = 1 << iota
	interestWrite
)

// readiness is one poller notification.
type readiness struct {
	fd       int
	readable bool
	writable bool
	failed   bool
}

// registration
// keeps the requests pending on one socket, one FIFO per direction.
type registration struct {
	mu      sync.Mutex
	fd      int
	readers *queue.Queue
	writers *queue.Queue
	armed   interest
	closed  bool
}

func (reg *registration) queueOf(d *Descriptor) *queue.Queue {
	if d.mode.writes() {
		return reg.writers
	}
	return reg.readers
}

func (reg *registration) wants() (in interest) {
	if reg.readers.Length() > 0 {
		in |= interestRead
	}
	if reg.writers.Length() > 0 {
		in |= interestWrite
	}
	return
}

// remove must be called with the lock held.
func (reg *registration) remove(d *Descriptor) {
	q := reg.queueOf(d)
	n := q.Length()
	for i := 0; i < n; i++ {
		e := q.Remove().(*Descriptor)
		if e != d {
			q.Add(e)
		}
	}
}

// takeAll must be called with the lock held.
func (reg *registration) takeAll(ds []*Descriptor) []*Descriptor {
	for _, q := range []*queue.Queue{reg.readers, reg.writers} {
		for q.Length() > 0 {
			d := q.Remove().(*Descriptor)
			if d.claim() {
				ds = append(ds, d)
			}
		}
	}
	return ds
}

type completion struct {
	d   *Descriptor
	n   int
	err error
}

// Engine
// is a readiness reactor: requests wait in per-socket queues, cylinders wait on
// the poller and perform the queued requests once their socket is ready.
type Engine struct {
	options  Options
	poller   *poller
	regsLock sync.RWMutex
	regs     map[int]*registration
	stopping atomic.Bool
	wg       sync.WaitGroup
}

func newEngine(options Options) (*Engine, error) {
	p, err := openPoller()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		options: options,
		poller:  p,
		regs:    make(map[int]*registration),
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
	events := newPollEvents(128)
	for !e.stopping.Load() {
		ready, err := e.poller.wait(events, e.options.WaitTimeout)
		if err != nil {
			Logger().Error("aio: engine wait failed", zap.Error(err))
			return
		}
		for _, r := range ready {
			e.dispatch(r)
		}
	}
}

func (e *Engine) dispatch(r readiness) {
	e.regsLock.RLock()
	reg := e.regs[r.fd]
	e.regsLock.RUnlock()
	if reg == nil {
		return
	}
	var completions []completion
	reg.mu.Lock()
	reg.armed = 0
	if r.readable || r.failed {
		completions = drain(reg.readers, completions)
	}
	if r.writable || r.failed {
		completions = drain(reg.writers, completions)
	}
	if err := e.rearm(reg); err != nil {
		Logger().Error("aio: engine rearm failed", zap.Int("fd", reg.fd), zap.Error(err))
		for _, d := range reg.takeAll(nil) {
			completions = append(completions, completion{d: d, err: completionError(d.mode.String(), err)})
		}
	}
	reg.mu.Unlock()

	for _, c := range completions {
		c.d.finish(c.n, c.err)
	}
}

// drain performs the queued requests in order until one would block.
func drain(q *queue.Queue, completions []completion) []completion {
	for q.Length() > 0 {
		d := q.Peek().(*Descriptor)
		if !d.claim() {
			q.Remove()
			continue
		}
		n, err := perform(d)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			d.release()
			break
		}
		q.Remove()
		if err != nil {
			err = completionError(d.mode.String(), os.NewSyscallError(syscallName(d.mode), err))
		}
		completions = append(completions, completion{d: d, n: n, err: err})
	}
	return completions
}

// rearm must be called with the lock held.
func (e *Engine) rearm(reg *registration) error {
	want := reg.wants()
	if want&^reg.armed == 0 {
		return nil
	}
	want |= reg.armed
	if err := e.poller.arm(reg.fd, want); err != nil {
		return err
	}
	reg.armed = want
	return nil
}

func (e *Engine) registration(fd int) (*registration, error) {
	e.regsLock.RLock()
	if e.stopping.Load() {
		e.regsLock.RUnlock()
		return nil, ErrClosed
	}
	reg := e.regs[fd]
	e.regsLock.RUnlock()
	if reg != nil {
		return reg, nil
	}
	return e.register(fd)
}

func (e *Engine) register(fd int) (*registration, error) {
	e.regsLock.Lock()
	defer e.regsLock.Unlock()
	if e.stopping.Load() {
		return nil, ErrClosed
	}
	if reg := e.regs[fd]; reg != nil {
		return reg, nil
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		return nil, os.NewSyscallError("fcntl", err)
	}
	if err := e.poller.register(fd); err != nil {
		return nil, err
	}
	reg := &registration{
		fd:      fd,
		readers: queue.New(),
		writers: queue.New(),
	}
	e.regs[fd] = reg
	return reg, nil
}

func (e *Engine) associate(sd Handle) error {
	_, err := e.register(int(sd))
	return err
}

func (e *Engine) disassociate(sd Handle) error {
	fd := int(sd)
	e.regsLock.Lock()
	reg := e.regs[fd]
	delete(e.regs, fd)
	e.regsLock.Unlock()
	if reg == nil {
		return nil
	}
	reg.mu.Lock()
	reg.closed = true
	pending := reg.takeAll(nil)
	err := e.poller.deregister(fd)
	reg.mu.Unlock()

	for _, d := range pending {
		d.finish(0, completionError(d.mode.String(), ErrClosed))
	}
	if err == unix.ENOENT || err == unix.EBADF {
		err = nil
	}
	if err != nil {
		return os.NewSyscallError("deregister", err)
	}
	return nil
}

func (e *Engine) submit(d *Descriptor) error {
	cb := &d.cb
	*cb = controlBlock{fd: int(d.handle), flags: int32(d.flags)}
	if d.mode == modeSendTo {
		sa, err := sys.AddrPortToSockaddr(d.remote)
		if err != nil {
			return err
		}
		cb.sa, cb.addrLen = sa, sys.SockaddrLen(sa)
	}
	reg, err := e.registration(cb.fd)
	if err != nil {
		return err
	}
	reg.mu.Lock()
	if reg.closed {
		reg.mu.Unlock()
		return ErrClosed
	}
	d.submitted()
	reg.queueOf(d).Add(d)
	if err = e.rearm(reg); err != nil {
		reg.remove(d)
		if !d.state.CompareAndSwap(stateSubmitted, stateSubmitting) {
			// claimed by a concurrent Complete, which resumes it
			reg.mu.Unlock()
			return nil
		}
		reg.mu.Unlock()
		return err
	}
	reg.mu.Unlock()
	return nil
}

func (e *Engine) cancel(d *Descriptor) bool {
	e.regsLock.RLock()
	reg := e.regs[int(d.handle)]
	e.regsLock.RUnlock()
	if reg == nil {
		// being disassociated, which completes d with ErrClosed
		return false
	}
	reg.mu.Lock()
	if !d.claim() {
		reg.mu.Unlock()
		return false
	}
	reg.remove(d)
	reg.mu.Unlock()
	d.cb.errno = unix.ECANCELED
	d.finish(0, completionError(d.mode.String(), os.NewSyscallError(syscallName(d.mode), unix.ECANCELED)))
	return true
}

func (e *Engine) stop() error {
	e.regsLock.Lock()
	if e.stopping.Swap(true) {
		e.regsLock.Unlock()
		return nil
	}
	regs := e.regs
	e.regs = make(map[int]*registration)
	e.regsLock.Unlock()

	var pending []*Descriptor
	for fd, reg := range regs {
		reg.mu.Lock()
		reg.closed = true
		pending = reg.takeAll(pending)
		_ = e.poller.deregister(fd)
		reg.mu.Unlock()
	}
	for _, d := range pending {
		d.finish(0, completionError(d.mode.String(), ErrClosed))
	}
	if err := e.poller.wakeup(); err != nil {
		Logger().Warn("aio: engine wakeup failed", zap.Error(err))
	}
	e.wg.Wait()
	return e.poller.close()
}
