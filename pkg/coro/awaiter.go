package coro

import (
	"context"
)

// Awaiter
// is the three-phase await contract.
//
// Ready reports whether the result is available without suspension.
// Suspend stores the token and starts the work; it returns an error only when
// the work could not be started, in which case the token must not be resumed.
// Resume reads the outcome once the token has been resumed.
type Awaiter[R any] interface {
	Ready() bool
	Suspend(t Token) error
	Resume() R
}

// Canceler
// is implemented by awaiters whose pending work can be detached early. Cancel
// returns false when the work already completed. The token is still resumed
// exactly once either way.
type Canceler interface {
	Cancel() bool
}

// Await
// drives a on the calling goroutine, which parks while a is suspended.
//
// The returned error is the Suspend error when the work could not be started, or
// ctx.Err() when ctx ended the wait through Canceler. Await never returns before
// the token has been resumed once Suspend succeeded.
func Await[R any](ctx context.Context, a Awaiter[R]) (r R, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Ready() {
		r = a.Resume()
		return
	}
	done := make(chan struct{})
	if err = a.Suspend(NewToken(func() { close(done) })); err != nil {
		return
	}
	select {
	case <-done:
	case <-ctx.Done():
		canceled := false
		if c, ok := a.(Canceler); ok {
			canceled = c.Cancel()
		}
		<-done
		if canceled {
			err = ctx.Err()
		}
	}
	r = a.Resume()
	return
}

// Then
// drives a in continuation style: fn runs on the goroutine that resumes the
// token, or synchronously when a is ready or fails to suspend.
func Then[R any](a Awaiter[R], fn func(r R, err error)) {
	if a.Ready() {
		fn(a.Resume(), nil)
		return
	}
	token := NewToken(func() {
		fn(a.Resume(), nil)
	})
	if err := a.Suspend(token); err != nil {
		var zero R
		fn(zero, err)
	}
}
