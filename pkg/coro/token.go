package coro

import (
	"sync"
	"sync/atomic"

	"github.com/brickingsoft/errors"
)

var (
	ErrEmptyToken   = errors.Define("resumption token is empty")
	ErrTokenResumed = errors.Define("resumption token was already resumed")
)

type continuation struct {
	fn      func()
	resumed atomic.Bool
	noop    bool
}

// Token
// is a handle of one suspended computation. Copies share the same computation,
// and whichever copy is resumed first continues it. A token must be resumed
// exactly once: resuming it again panics with ErrTokenResumed.
type Token struct {
	c *continuation
}

// NewToken
// wraps fn as the continuation of a suspended computation.
func NewToken(fn func()) Token {
	if fn == nil {
		return Token{}
	}
	return Token{c: &continuation{fn: fn}}
}

func (t Token) Valid() bool {
	return t.c != nil
}

func (t Token) Resumed() bool {
	if t.c == nil {
		return false
	}
	return t.c.resumed.Load()
}

// Resume
// continues the suspended computation on the calling goroutine.
func (t Token) Resume() {
	c := t.c
	if c == nil {
		panic(ErrEmptyToken)
	}
	if c.noop {
		return
	}
	if !c.resumed.CompareAndSwap(false, true) {
		panic(ErrTokenResumed)
	}
	c.fn()
}

var (
	noopOnce  sync.Once
	noopToken Token
)

// Noop
// returns the process-wide token whose Resume does nothing, any number of times.
func Noop() Token {
	noopOnce.Do(func() {
		noopToken = Token{c: &continuation{fn: func() {}, noop: true}}
	})
	return noopToken
}
