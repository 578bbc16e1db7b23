package event

import (
	"context"
	"time"

	"github.com/brickingsoft/errors"
	"github.com/fsnotify/fsnotify"
)

// WaitFunc
// blocks until its source signals (nil) or fails (error). It must return
// promptly once ctx is done.
type WaitFunc func(ctx context.Context) error

// After
// waits for d to elapse.
func After(d time.Duration) WaitFunc {
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// FileWait
// waits for a file-system notification on path matching any of ops.
func FileWait(path string, ops fsnotify.Op) WaitFunc {
	return func(ctx context.Context) error {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return waitError(err)
		}
		defer watcher.Close()
		if err = watcher.Add(path); err != nil {
			return waitError(err)
		}
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ev, ok := <-watcher.Events:
				if !ok {
					return waitError(fsnotify.ErrClosed)
				}
				if ev.Op&ops != 0 {
					return nil
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return waitError(fsnotify.ErrClosed)
				}
				return waitError(werr)
			}
		}
	}
}

func waitError(cause error) error {
	return errors.New(
		"wait failed",
		errors.WithMeta(errMetaPkgKey, errMetaPkgVal),
		errors.WithMeta(errMetaOpKey, errMetaOpWait),
		errors.WithWrap(cause),
	)
}
