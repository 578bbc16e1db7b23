// Package coio wires the process-wide pieces of the coroutine I/O runtime: the
// aio engine that completes socket requests, the executors that run background
// work, and the logger both report to.
//
// The building blocks live in pkg/coro (tokens and the await drivers), pkg/aio
// (descriptors and operation variants), pkg/channel and pkg/event.
package coio

import (
	"github.com/brickingsoft/coio/pkg/aio"
	"github.com/brickingsoft/coio/pkg/event"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"go.uber.org/zap"
)

// Startup
// configures and starts the runtime. It should run once, early; without it every
// piece starts lazily with defaults.
func Startup(options ...Option) (err error) {
	opts := Options{}
	for _, option := range options {
		if err = option(&opts); err != nil {
			return errors.New("startup failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(err))
		}
	}
	if opts.Logger != nil {
		aio.SetLogger(opts.Logger)
		event.SetLogger(opts.Logger)
	}
	exec, err := rxp.New(opts.AsRxpOptions()...)
	if err != nil {
		return errors.New("startup failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(err))
	}
	if err = aio.Startup(opts.EngineOptions...); err != nil {
		_ = exec.Close()
		return errors.New("startup failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(err))
	}
	setExecutors(exec)
	return nil
}

// Shutdown
// stops the engine, completing its pending requests with aio.ErrClosed, and
// closes the executors without waiting for their running tasks.
func Shutdown() error {
	return shutdown(func(exec rxp.Executors) error {
		go func() {
			if err := exec.Close(); err != nil {
				aio.Logger().Warn("coio: executors close failed", zap.Error(err))
			}
		}()
		return nil
	})
}

// ShutdownGracefully
// is Shutdown waiting for running tasks, bounded by WithCloseTimeout.
func ShutdownGracefully() error {
	return shutdown(rxp.Executors.Close)
}

func shutdown(closeExecutors func(rxp.Executors) error) error {
	engineErr := aio.Shutdown()
	var execErr error
	if exec := takeExecutors(); exec != nil {
		execErr = closeExecutors(exec)
	}
	if engineErr != nil {
		return errors.New("shutdown failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(engineErr))
	}
	if execErr != nil {
		return errors.New("shutdown failed", errors.WithMeta(errMetaPkgKey, errMetaPkgVal), errors.WithWrap(execErr))
	}
	return nil
}

const (
	errMetaPkgKey = "pkg"
	errMetaPkgVal = "coio"
)
