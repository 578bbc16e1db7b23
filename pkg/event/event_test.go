package event_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brickingsoft/coio/pkg/coro"
	"github.com/brickingsoft/coio/pkg/event"
	"github.com/brickingsoft/errors"
	"github.com/brickingsoft/rxp"
	"github.com/fsnotify/fsnotify"
)

func newExecutors(t *testing.T) rxp.Executors {
	t.Helper()
	exec, err := rxp.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		_ = exec.Close()
	})
	return exec
}

// refusing is an executor that never runs a task. before runs first, in place
// of the task.
type refusing struct {
	before func()
}

func (r *refusing) Context() context.Context { return context.Background() }

func (r *refusing) TryExecute(ctx context.Context, task rxp.Task) bool {
	return r.Execute(ctx, task) == nil
}

func (r *refusing) Execute(_ context.Context, _ rxp.Task) error {
	if r.before != nil {
		r.before()
	}
	return errors.From(rxp.ErrClosed)
}

func (r *refusing) Goroutines() int64 { return 0 }

func (r *refusing) Available() bool { return false }

func (r *refusing) Running() bool { return false }

func (r *refusing) Close() error { return nil }

func TestEvent_SetBeforeAwait(t *testing.T) {
	ev := event.New()
	if !ev.Set() {
		t.Fatal("first set must transition")
	}
	if ev.Set() || ev.Cancel(nil) {
		t.Fatal("terminal event must not transition again")
	}
	if err := ev.Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	if ev.State() != event.Set {
		t.Fatal("expected set, got", ev.State())
	}
}

func TestEvent_CancelBeforeAwait(t *testing.T) {
	ev := event.New()
	ev.Cancel(nil)
	w := ev.Wait()
	if !w.Ready() {
		t.Fatal("canceled event must be ready")
	}
	resumed := 0
	coro.Then[error](w, func(outcome error, err error) {
		if err != nil {
			t.Error(err)
		}
		if !event.IsCanceled(outcome) {
			t.Error("expected canceled outcome, got", outcome)
		}
		resumed++
	})
	if resumed != 1 {
		t.Fatal("awaiter must resume without suspension")
	}
}

func TestEvent_SetWhileSuspended(t *testing.T) {
	ev := event.New()
	var outcome error
	resumed := 0
	coro.Then[error](ev.Wait(), func(o error, err error) {
		if err != nil {
			t.Error(err)
		}
		outcome = o
		resumed++
	})
	if resumed != 0 {
		t.Fatal("awaiter must suspend on an unset event")
	}
	ev.Set()
	if resumed != 1 || outcome != nil {
		t.Fatal("awaiter must resume once with nil", resumed, outcome)
	}
}

func TestEvent_CancelCause(t *testing.T) {
	ev := event.New()
	cause := errors.New("boom")
	go func() {
		time.Sleep(10 * time.Millisecond)
		ev.Cancel(cause)
	}()
	err := ev.Await(context.Background())
	if !event.IsCanceled(err) {
		t.Fatal("expected ErrCanceled, got", err)
	}
	if !errors.Is(err, cause) {
		t.Fatal("cancel cause must be wrapped, got", err)
	}
}

func TestEvent_SingleTransition(t *testing.T) {
	for round := 0; round < 100; round++ {
		ev := event.New()
		var wins atomic.Int32
		var resumes atomic.Int32
		coro.Then[error](ev.Wait(), func(error, error) {
			resumes.Add(1)
		})
		wg := sync.WaitGroup{}
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				var won bool
				if i%2 == 0 {
					won = ev.Set()
				} else {
					won = ev.Cancel(nil)
				}
				if won {
					wins.Add(1)
				}
			}(i)
		}
		wg.Wait()
		if wins.Load() != 1 {
			t.Fatal("exactly one transition expected, got", wins.Load())
		}
		if resumes.Load() != 1 {
			t.Fatal("exactly one resumption expected, got", resumes.Load())
		}
	}
}

func TestEvent_AwaitedTwice(t *testing.T) {
	ev := event.New()
	coro.Then[error](ev.Wait(), func(error, error) {})
	var err error
	coro.Then[error](ev.Wait(), func(_ error, e error) {
		err = e
	})
	if !errors.Is(err, event.ErrAwaited) {
		t.Fatal("expected ErrAwaited, got", err)
	}
	ev.Set()
}

func TestEvent_ContextCanceled(t *testing.T) {
	ev := event.New()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ev.Await(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected deadline exceeded, got", err)
	}
	if ev.State() != event.Canceled {
		t.Fatal("abandoned event must be canceled, got", ev.State())
	}
}

func TestEvent_After(t *testing.T) {
	exec := newExecutors(t)

	ev := event.New(event.WithWaitFunc(event.After(20*time.Millisecond)), event.WithExecutors(exec))
	begin := time.Now()
	if err := ev.Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	if time.Since(begin) < 20*time.Millisecond {
		t.Fatal("event set before the wait elapsed")
	}
}

func TestEvent_WaitTimeout(t *testing.T) {
	exec := newExecutors(t)

	ev := event.New(
		event.WithWaitFunc(event.After(time.Hour)),
		event.WithExecutors(exec),
		event.WithTimeout(20*time.Millisecond),
	)
	err := ev.Await(context.Background())
	if !event.IsCanceled(err) {
		t.Fatal("expected canceled, got", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected the wait deadline as cause, got", err)
	}
}

func TestEvent_SetStopsBackgroundWait(t *testing.T) {
	exec := newExecutors(t)

	stopped := make(chan struct{})
	wait := func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return ctx.Err()
	}
	ev := event.New(event.WithWaitFunc(wait), event.WithExecutors(exec))
	go func() {
		time.Sleep(10 * time.Millisecond)
		ev.Set()
	}()
	if err := ev.Await(context.Background()); err != nil {
		t.Fatal(err)
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("background wait was not stopped")
	}
}

func TestEvent_FileWait(t *testing.T) {
	exec := newExecutors(t)

	dir := t.TempDir()
	ev := event.New(event.WithWaitFunc(event.FileWait(dir, fsnotify.Create)), event.WithExecutors(exec))
	go func() {
		time.Sleep(200 * time.Millisecond)
		if err := os.WriteFile(filepath.Join(dir, "ready"), []byte("1"), 0o644); err != nil {
			t.Error(err)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ev.Await(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestEvent_ScheduleRefused(t *testing.T) {
	ev := event.New(event.WithWaitFunc(event.After(time.Hour)), event.WithExecutors(&refusing{}))
	calls := 0
	var failure error
	coro.Then[error](ev.Wait(), func(_ error, err error) {
		calls++
		failure = err
	})
	if calls != 1 {
		t.Fatal("continuation must run exactly once, got", calls)
	}
	if !rxp.IsClosed(failure) {
		t.Fatal("expected the executor refusal, got", failure)
	}
	if ev.State() != event.Unset {
		t.Fatal("refused wait must leave the event unset, got", ev.State())
	}
	// a refused await does not hold the event
	coro.Then[error](ev.Wait(), func(_ error, err error) {
		failure = err
	})
	if errors.Is(failure, event.ErrAwaited) {
		t.Fatal("refused await must release the event")
	}
}

func TestEvent_SetWhileScheduleRefused(t *testing.T) {
	var ev *event.Event
	exec := &refusing{before: func() {
		ev.Set()
	}}
	ev = event.New(event.WithWaitFunc(event.After(time.Hour)), event.WithExecutors(exec))
	calls := 0
	var outcome, failure error
	coro.Then[error](ev.Wait(), func(o error, err error) {
		calls++
		outcome, failure = o, err
	})
	if calls != 1 {
		t.Fatal("continuation must run exactly once, got", calls)
	}
	if failure != nil || outcome != nil {
		t.Fatal("the set outcome must win over the refusal, got", outcome, failure)
	}
	if ev.State() != event.Set {
		t.Fatal("expected set, got", ev.State())
	}
}
