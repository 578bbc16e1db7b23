package coro

import (
	"context"

	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
)

var (
	ErrOffload = errors.Define("offload failed")
)

// TaskFunc
// adapts a plain function to rxp.Task.
type TaskFunc func()

func (fn TaskFunc) Handle(_ context.Context) {
	fn()
}

// Offload
// returns an awaiter that resumes its continuation on a worker of exec.
func Offload(ctx context.Context, exec rxp.Executors) Awaiter[struct{}] {
	if ctx == nil {
		ctx = context.Background()
	}
	return &offload{ctx: ctx, exec: exec}
}

type offload struct {
	ctx  context.Context
	exec rxp.Executors
}

func (o *offload) Ready() bool {
	return false
}

func (o *offload) Suspend(t Token) error {
	if o.exec == nil {
		return errors.From(ErrOffload, errors.WithWrap(errors.Define("executors is nil")))
	}
	if err := o.exec.Execute(o.ctx, TaskFunc(t.Resume)); err != nil {
		return errors.From(ErrOffload, errors.WithWrap(err))
	}
	return nil
}

func (o *offload) Resume() struct{} {
	return struct{}{}
}
