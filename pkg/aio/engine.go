package aio

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brickingsoft/coio/pkg/process"
	"github.com/brickingsoft/errors"
	"go.uber.org/zap"
)

type Options struct {
	// Cylinders
	// number of goroutines waiting for completions.
	Cylinders int
	// LockOSThread
	// pins every cylinder to its own system thread.
	LockOSThread bool
	// CPUAffinity
	// binds the thread of cylinder i to cpu i, where supported. Implies LockOSThread.
	CPUAffinity bool
	// WaitTimeout
	// upper bound of one system wait, after which a cylinder checks for shutdown.
	WaitTimeout time.Duration
	// DrainTimeout
	// how long Shutdown waits for cancelled in-flight requests to report back.
	DrainTimeout time.Duration
}

type Option func(options *Options) error

func WithCylinders(n int) Option {
	return func(options *Options) error {
		if n < 1 {
			return errors.New("cylinders must be greater than 0", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
		}
		options.Cylinders = n
		return nil
	}
}

func WithLockOSThread() Option {
	return func(options *Options) error {
		options.LockOSThread = true
		return nil
	}
}

func WithCPUAffinity() Option {
	return func(options *Options) error {
		options.LockOSThread = true
		options.CPUAffinity = true
		return nil
	}
}

func WithWaitTimeout(d time.Duration) Option {
	return func(options *Options) error {
		if d < time.Millisecond {
			return errors.New("wait timeout must be at least 1ms", errors.WithMeta(errMetaPkgKey, errMetaPkgVal))
		}
		options.WaitTimeout = d
		return nil
	}
}

func WithDrainTimeout(d time.Duration) Option {
	return func(options *Options) error {
		options.DrainTimeout = d
		return nil
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(options *Options) error {
		SetLogger(l)
		return nil
	}
}

func defaultOptions() Options {
	return Options{
		Cylinders:    runtime.NumCPU(),
		WaitTimeout:  500 * time.Millisecond,
		DrainTimeout: time.Second,
	}
}

// lockCylinder applies the thread options to the calling cylinder; the returned
// func undoes them.
func (options *Options) lockCylinder(index int) func() {
	if !options.LockOSThread {
		return func() {}
	}
	runtime.LockOSThread()
	if options.CPUAffinity {
		if err := process.SetCPUAffinity(index); err != nil {
			Logger().Warn("aio: cylinder affinity failed", zap.Int("cylinder", index), zap.Error(err))
		}
	}
	return runtime.UnlockOSThread
}

var (
	_engine     atomic.Pointer[Engine]
	_engineLock sync.Mutex
)

// Startup
// starts the process-wide engine. Without Startup, the first request starts one
// with default options.
func Startup(options ...Option) error {
	opts := defaultOptions()
	for _, option := range options {
		if err := option(&opts); err != nil {
			return engineError("startup failed", errMetaOpStartup, err)
		}
	}
	_engineLock.Lock()
	defer _engineLock.Unlock()
	if _engine.Load() != nil {
		return engineError("startup failed", errMetaOpStartup, errors.Define("engine is already running"))
	}
	eng, err := newEngine(opts)
	if err != nil {
		return engineError("startup failed", errMetaOpStartup, err)
	}
	_engine.Store(eng)
	return nil
}

// Shutdown
// stops the process-wide engine. Every request still pending completes with ErrClosed.
//
// On windows a socket belongs to the completion port it was first used with, so
// sockets used before Shutdown cannot carry requests of a later engine: their
// submissions fail. Open new sockets after a restart.
func Shutdown() error {
	_engineLock.Lock()
	eng := _engine.Swap(nil)
	_engineLock.Unlock()
	if eng == nil {
		return nil
	}
	if err := eng.stop(); err != nil {
		return engineError("shutdown failed", errMetaOpShutdown, err)
	}
	return nil
}

// Associate
// prepares sd for requests: windows attaches it to the completion port, other
// platforms switch it to non-blocking mode and register it with the poller.
func Associate(sd Handle) error {
	eng, err := engine()
	if err != nil {
		return engineError("associate failed", errMetaOpAssociate, err)
	}
	if err = eng.associate(sd); err != nil {
		return engineError("associate failed", errMetaOpAssociate, err)
	}
	return nil
}

// Disassociate
// forgets sd. Requests still queued for it complete with ErrClosed. It must be
// called before sd is closed, since the system may reuse the handle value.
func Disassociate(sd Handle) error {
	eng := _engine.Load()
	if eng == nil {
		return nil
	}
	if err := eng.disassociate(sd); err != nil {
		return engineError("disassociate failed", errMetaOpDisassociate, err)
	}
	return nil
}

func engine() (*Engine, error) {
	if eng := _engine.Load(); eng != nil {
		return eng, nil
	}
	_engineLock.Lock()
	defer _engineLock.Unlock()
	if eng := _engine.Load(); eng != nil {
		return eng, nil
	}
	eng, err := newEngine(defaultOptions())
	if err != nil {
		return nil, err
	}
	_engine.Store(eng)
	return eng, nil
}
