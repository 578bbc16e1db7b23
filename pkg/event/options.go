package event

import (
	"time"

	"github.com/brickingsoft/rxp"
)

type Options struct {
	// WaitFunc
	// blocking wait handed to the executors when the event is first awaited.
	WaitFunc WaitFunc
	// Executors
	// runs WaitFunc. Defaults to the package executors, see SetExecutors.
	Executors rxp.Executors
	// Timeout
	// bounds WaitFunc. Zero means unbounded.
	Timeout time.Duration
}

type Option func(options *Options)

func WithWaitFunc(fn WaitFunc) Option {
	return func(options *Options) {
		options.WaitFunc = fn
	}
}

func WithExecutors(exec rxp.Executors) Option {
	return func(options *Options) {
		options.Executors = exec
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(options *Options) {
		if timeout > 0 {
			options.Timeout = timeout
		}
	}
}
