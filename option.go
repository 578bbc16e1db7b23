package coio

import (
	"time"

	"github.com/brickingsoft/coio/pkg/aio"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"go.uber.org/zap"
)

type Options struct {
	// MaxGoroutines
	// upper bound of executor goroutines.
	MaxGoroutines int
	// CloseTimeout
	// bound of ShutdownGracefully.
	CloseTimeout time.Duration
	// EngineOptions
	// passed to aio.Startup.
	EngineOptions []aio.Option
	// Logger
	// shared by the engine and events.
	Logger *zap.Logger
}

func (options *Options) AsRxpOptions() []rxp.Option {
	opts := make([]rxp.Option, 0, 2)
	if n := options.MaxGoroutines; n > 0 {
		opts = append(opts, rxp.WithMaxGoroutines(n))
	}
	if d := options.CloseTimeout; d > 0 {
		opts = append(opts, rxp.WithCloseTimeout(d))
	}
	return opts
}

type Option func(options *Options) (err error)

// WithMaxGoroutines
// limits the executors. Default is rxp's own limit.
func WithMaxGoroutines(n int) Option {
	return func(options *Options) (err error) {
		if n < 1 {
			err = errors.New("max goroutines must be greater than 0", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
			return
		}
		options.MaxGoroutines = n
		return
	}
}

// WithCloseTimeout
// bounds how long ShutdownGracefully waits for running tasks.
func WithCloseTimeout(d time.Duration) Option {
	return func(options *Options) (err error) {
		if d > 0 {
			options.CloseTimeout = d
		}
		return
	}
}

// WithCylinders
// sets the number of engine goroutines waiting for completions.
// Default is runtime.NumCPU().
func WithCylinders(n int) Option {
	return func(options *Options) (err error) {
		options.EngineOptions = append(options.EngineOptions, aio.WithCylinders(n))
		return
	}
}

func WithLockOSThread() Option {
	return func(options *Options) (err error) {
		options.EngineOptions = append(options.EngineOptions, aio.WithLockOSThread())
		return
	}
}

// WithCPUAffinity
// pins every engine goroutine to its own thread and, on linux, that thread to one CPU.
func WithCPUAffinity() Option {
	return func(options *Options) (err error) {
		options.EngineOptions = append(options.EngineOptions, aio.WithCPUAffinity())
		return
	}
}

// WithWaitTimeout
// bounds a single engine wait, which is how quickly cylinders notice shutdown.
func WithWaitTimeout(d time.Duration) Option {
	return func(options *Options) (err error) {
		options.EngineOptions = append(options.EngineOptions, aio.WithWaitTimeout(d))
		return
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(options *Options) (err error) {
		if logger == nil {
			err = errors.New("logger is nil", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
			return
		}
		options.Logger = logger
		return
	}
}
