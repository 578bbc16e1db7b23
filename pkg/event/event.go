// Package event implements a one-shot signal that a coroutine awaits, resolved
// by Set or Cancel from any goroutine, optionally backed by a background wait.
package event

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brickingsoft/coio/pkg/coro"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"go.uber.org/zap"
)

type State uint32

const (
	Unset State = iota
	Set
	Canceled
)

func (s State) String() string {
	switch s {
	case Unset:
		return "unset"
	case Set:
		return "set"
	case Canceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Event
// transitions once from Unset to either Set or Canceled. The awaiting coroutine
// is resumed exactly once, by whichever of Set or Cancel wins.
//
// An Event is single-shot: it has no reset, and only one coroutine may be
// suspended on it at a time.
type Event struct {
	state    atomic.Uint32
	cause    error
	mu       sync.Mutex
	token    coro.Token
	awaiting bool
	wait     WaitFunc
	exec     rxp.Executors
	timeout  time.Duration
	cancel   context.CancelFunc
}

func New(options ...Option) *Event {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	ev := &Event{
		wait:    opts.WaitFunc,
		exec:    opts.Executors,
		timeout: opts.Timeout,
	}
	return ev
}

func (ev *Event) State() State {
	return State(ev.state.Load())
}

// Err
// returns nil unless the event was canceled.
func (ev *Event) Err() error {
	if ev.State() != Canceled {
		return nil
	}
	ev.mu.Lock()
	cause := ev.cause
	ev.mu.Unlock()
	return cause
}

// Set
// resolves the event successfully. It reports whether this call made the transition.
func (ev *Event) Set() bool {
	return ev.transition(Set, nil)
}

// Cancel
// resolves the event as canceled with cause, which the awaiting coroutine receives
// wrapped as ErrCanceled. A nil cause is reported as ErrCanceled alone.
func (ev *Event) Cancel(cause error) bool {
	var err error
	if cause == nil {
		err = errors.From(ErrCanceled)
	} else {
		err = errors.From(ErrCanceled, errors.WithWrap(cause))
	}
	return ev.transition(Canceled, err)
}

func (ev *Event) transition(to State, cause error) bool {
	ev.mu.Lock()
	if !ev.state.CompareAndSwap(uint32(Unset), uint32(to)) {
		ev.mu.Unlock()
		return false
	}
	ev.cause = cause
	token := ev.token
	ev.token = coro.Token{}
	cancel := ev.cancel
	ev.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if token.Valid() {
		token.Resume()
	}
	return true
}

// Wait
// returns the awaiter of ev. Its outcome is nil for Set and the cancellation
// error for Canceled.
func (ev *Event) Wait() *Waiter {
	return &Waiter{ev: ev}
}

// Await
// waits on the calling goroutine.
func (ev *Event) Await(ctx context.Context) error {
	outcome, err := coro.Await[error](ctx, ev.Wait())
	if err != nil {
		return err
	}
	return outcome
}

type Waiter struct {
	ev *Event
}

func (w *Waiter) Ready() bool {
	return w.ev.State() != Unset
}

func (w *Waiter) Suspend(t coro.Token) error {
	ev := w.ev
	ev.mu.Lock()
	if ev.State() != Unset {
		ev.mu.Unlock()
		t.Resume()
		return nil
	}
	if ev.awaiting {
		ev.mu.Unlock()
		return errors.New(
			"await failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpAwait),
			errors.WithWrap(errors.From(ErrAwaited)),
		)
	}
	ev.awaiting = true
	ev.token = t
	if ev.wait == nil {
		ev.mu.Unlock()
		return nil
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if ev.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), ev.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	ev.cancel = cancel
	ev.mu.Unlock()

	if err := ev.schedule(ctx); err != nil {
		cancel()
		ev.mu.Lock()
		if ev.State() != Unset {
			// Set or Cancel already took the token.
			ev.mu.Unlock()
			return nil
		}
		ev.awaiting = false
		ev.token = coro.Token{}
		ev.cancel = nil
		ev.mu.Unlock()
		return errors.New(
			"await failed",
			errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
			errors.WithMeta(errMetaOpKey, errMetaOpSchedule),
			errors.WithWrap(err),
		)
	}
	return nil
}

func (w *Waiter) Resume() error {
	return w.ev.Err()
}

// Cancel
// cancels the event on behalf of the awaiting coroutine.
func (w *Waiter) Cancel() bool {
	return w.ev.Cancel(context.Canceled)
}

func (ev *Event) schedule(ctx context.Context) error {
	exec := ev.exec
	if exec == nil {
		var err error
		if exec, err = defaultExecutors(); err != nil {
			return err
		}
	}
	return exec.Execute(ctx, &backgroundWait{ev: ev, wait: ev.wait})
}

// backgroundWait
// runs the wait of an event on an executor and resolves the event with its outcome.
type backgroundWait struct {
	ev   *Event
	wait WaitFunc
}

func (task *backgroundWait) Handle(ctx context.Context) {
	err := task.wait(ctx)
	if err == nil {
		task.ev.Set()
		return
	}
	if task.ev.Cancel(err) {
		Logger().Debug("event: background wait failed", zap.Error(err))
	}
}

var (
	executors     rxp.Executors
	executorsLock sync.Mutex
)

// SetExecutors
// replaces the executors running background waits of events created without WithExecutors.
func SetExecutors(exec rxp.Executors) {
	executorsLock.Lock()
	executors = exec
	executorsLock.Unlock()
}

func defaultExecutors() (rxp.Executors, error) {
	executorsLock.Lock()
	defer executorsLock.Unlock()
	if executors == nil {
		exec, err := rxp.New()
		if err != nil {
			return nil, err
		}
		executors = exec
	}
	return executors, nil
}
