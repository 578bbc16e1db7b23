package channel

import "sync"

type Options struct {
	// Locker
	// guards the pending parties. Defaults to a sync.Mutex.
	Locker sync.Locker
	// Exclusive
	// allows at most one pending writer and one pending reader. A second
	// concurrent party on the same side fails with ErrBusy instead of queueing.
	Exclusive bool
}

type Option func(options *Options)

func WithLocker(locker sync.Locker) Option {
	return func(options *Options) {
		if locker != nil {
			options.Locker = locker
		}
	}
}

// NoLock
// drops synchronization, for channels used by coroutines resumed on a single goroutine.
func NoLock() Option {
	return func(options *Options) {
		options.Locker = noLocker{}
	}
}

func Exclusive() Option {
	return func(options *Options) {
		options.Exclusive = true
	}
}

type noLocker struct{}

func (noLocker) Lock() {}

func (noLocker) Unlock() {}
