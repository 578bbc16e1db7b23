// Package channel implements a suspending, closeable conduit that hands one
// value at a time from a writing coroutine to a reading coroutine.
package channel

import (
	"context"
	"sync"

	"github.com/brickingsoft/coio/pkg/coro"
	"github.com/eapache/queue"
)

type partyState int

const (
	idle partyState = iota
	pending
	done
)

// Received
// is the outcome of a read. OK is false when the channel was closed before a
// writer arrived, in which case Value is the zero value.
type Received[T any] struct {
	Value T
	OK    bool
}

// Channel
// matches writers and readers pairwise. A write and a read are never pending at
// the same time: the first to arrive suspends, the second performs the transfer
// and resumes the first. Pending parties of one side are matched in arrival order.
//
// Close must be called before a channel with pending parties is dropped; it
// resumes every pending party with a failed outcome.
type Channel[T any] struct {
	locker         sync.Locker
	exclusive      bool
	closed         bool
	writers        *queue.Queue
	readers        *queue.Queue
	pendingWriters int
	pendingReaders int
}

func New[T any](options ...Option) *Channel[T] {
	opts := Options{}
	for _, option := range options {
		option(&opts)
	}
	locker := opts.Locker
	if locker == nil {
		locker = new(sync.Mutex)
	}
	return &Channel[T]{
		locker:    locker,
		exclusive: opts.Exclusive,
		writers:   queue.New(),
		readers:   queue.New(),
	}
}

// Write
// returns the awaiter of writing v. Its outcome is true once a reader consumed v,
// false when the channel closed first.
func (ch *Channel[T]) Write(v T) *Writer[T] {
	return &Writer[T]{ch: ch, value: v}
}

// Read
// returns the awaiter of reading one value.
func (ch *Channel[T]) Read() *Reader[T] {
	return &Reader[T]{ch: ch}
}

// Send
// writes v and waits on the calling goroutine.
func (ch *Channel[T]) Send(ctx context.Context, v T) (ok bool, err error) {
	ok, err = coro.Await[bool](ctx, ch.Write(v))
	return
}

// Receive
// reads one value and waits on the calling goroutine.
func (ch *Channel[T]) Receive(ctx context.Context) (v T, ok bool, err error) {
	r, awaitErr := coro.Await[Received[T]](ctx, ch.Read())
	v, ok, err = r.Value, r.OK, awaitErr
	return
}

func (ch *Channel[T]) Closed() bool {
	ch.locker.Lock()
	closed := ch.closed
	ch.locker.Unlock()
	return closed
}

// Close
// resumes every pending writer and reader with a failed outcome. Writes and
// reads after Close complete immediately with a failed outcome.
func (ch *Channel[T]) Close() {
	ch.locker.Lock()
	if ch.closed {
		ch.locker.Unlock()
		return
	}
	ch.closed = true
	tokens := make([]coro.Token, 0, ch.pendingWriters+ch.pendingReaders)
	for ch.writers.Length() > 0 {
		w := ch.writers.Remove().(*Writer[T])
		if w.state != pending {
			continue
		}
		w.state, w.ok = done, false
		tokens = append(tokens, w.token)
	}
	for ch.readers.Length() > 0 {
		r := ch.readers.Remove().(*Reader[T])
		if r.state != pending {
			continue
		}
		r.state, r.received = done, Received[T]{}
		tokens = append(tokens, r.token)
	}
	ch.pendingWriters, ch.pendingReaders = 0, 0
	ch.locker.Unlock()

	for _, token := range tokens {
		token.Resume()
	}
}

// popReader must be called with the lock held.
func (ch *Channel[T]) popReader() *Reader[T] {
	for ch.readers.Length() > 0 {
		r := ch.readers.Remove().(*Reader[T])
		if r.state == pending {
			ch.pendingReaders--
			return r
		}
	}
	return nil
}

// popWriter must be called with the lock held.
func (ch *Channel[T]) popWriter() *Writer[T] {
	for ch.writers.Length() > 0 {
		w := ch.writers.Remove().(*Writer[T])
		if w.state == pending {
			ch.pendingWriters--
			return w
		}
	}
	return nil
}

type Writer[T any] struct {
	ch    *Channel[T]
	value T
	token coro.Token
	ok    bool
	state partyState
}

func (w *Writer[T]) Ready() bool {
	ch := w.ch
	ch.locker.Lock()
	defer ch.locker.Unlock()
	if w.state == idle && ch.closed {
		w.state, w.ok = done, false
	}
	return w.state == done
}

func (w *Writer[T]) Suspend(t coro.Token) error {
	ch := w.ch
	ch.locker.Lock()
	if w.state != idle {
		ch.locker.Unlock()
		return newError(errMetaOpWrite, ErrReused)
	}
	if ch.closed {
		w.state, w.ok = done, false
		ch.locker.Unlock()
		t.Resume()
		return nil
	}
	if r := ch.popReader(); r != nil {
		r.state, r.received = done, Received[T]{Value: w.value, OK: true}
		w.state, w.ok = done, true
		ch.locker.Unlock()
		r.token.Resume()
		t.Resume()
		return nil
	}
	if ch.exclusive && ch.pendingWriters > 0 {
		ch.locker.Unlock()
		return newError(errMetaOpWrite, ErrBusy)
	}
	w.token, w.state = t, pending
	ch.writers.Add(w)
	ch.pendingWriters++
	ch.locker.Unlock()
	return nil
}

func (w *Writer[T]) Resume() bool {
	return w.ok
}

// Cancel
// detaches a pending write, which then resumes with false.
func (w *Writer[T]) Cancel() bool {
	ch := w.ch
	ch.locker.Lock()
	if w.state != pending {
		ch.locker.Unlock()
		return false
	}
	w.state, w.ok = done, false
	ch.pendingWriters--
	ch.locker.Unlock()
	w.token.Resume()
	return true
}

type Reader[T any] struct {
	ch       *Channel[T]
	token    coro.Token
	received Received[T]
	state    partyState
}

func (r *Reader[T]) Ready() bool {
	ch := r.ch
	ch.locker.Lock()
	defer ch.locker.Unlock()
	if r.state == idle && ch.closed {
		r.state, r.received = done, Received[T]{}
	}
	return r.state == done
}

func (r *Reader[T]) Suspend(t coro.Token) error {
	ch := r.ch
	ch.locker.Lock()
	if r.state != idle {
		ch.locker.Unlock()
		return newError(errMetaOpRead, ErrReused)
	}
	if ch.closed {
		r.state, r.received = done, Received[T]{}
		ch.locker.Unlock()
		t.Resume()
		return nil
	}
	if w := ch.popWriter(); w != nil {
		w.state, w.ok = done, true
		r.state, r.received = done, Received[T]{Value: w.value, OK: true}
		var zero T
		w.value = zero
		ch.locker.Unlock()
		w.token.Resume()
		t.Resume()
		return nil
	}
	if ch.exclusive && ch.pendingReaders > 0 {
		ch.locker.Unlock()
		return newError(errMetaOpRead, ErrBusy)
	}
	r.token, r.state = t, pending
	ch.readers.Add(r)
	ch.pendingReaders++
	ch.locker.Unlock()
	return nil
}

func (r *Reader[T]) Resume() Received[T] {
	return r.received
}

// Cancel
// detaches a pending read, which then resumes with a failed outcome.
func (r *Reader[T]) Cancel() bool {
	ch := r.ch
	ch.locker.Lock()
	if r.state != pending {
		ch.locker.Unlock()
		return false
	}
	r.state, r.received = done, Received[T]{}
	ch.pendingReaders--
	ch.locker.Unlock()
	r.token.Resume()
	return true
}
