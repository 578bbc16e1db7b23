package coio

import (
	"runtime"
	"sync"

	"github.com/brickingsoft/coio/pkg/event"
	"github.com/brickingsoft/rxp"
)

var (
	executors     rxp.Executors
	executorsLock sync.Mutex
)

// Executors
// returns the process-wide executors, creating them with defaults when Startup
// did not. Events without their own executors run their background waits here,
// and coro.Offload can move continuations here.
func Executors() (rxp.Executors, error) {
	executorsLock.Lock()
	defer executorsLock.Unlock()
	if executors == nil {
		exec, err := rxp.New()
		if err != nil {
			return nil, err
		}
		executors = exec
		runtime.SetFinalizer(executors, rxp.Executors.Close)
		event.SetExecutors(executors)
	}
	return executors, nil
}

func setExecutors(exec rxp.Executors) {
	executorsLock.Lock()
	prev := executors
	executors = exec
	executorsLock.Unlock()
	event.SetExecutors(exec)
	if prev != nil {
		runtime.SetFinalizer(prev, nil)
		_ = prev.Close()
	}
}

func takeExecutors() rxp.Executors {
	executorsLock.Lock()
	exec := executors
	executors = nil
	executorsLock.Unlock()
	if exec != nil {
		runtime.SetFinalizer(exec, nil)
		event.SetExecutors(nil)
	}
	return exec
}
