//go:build windows

package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/brickingsoft/coio/pkg/event"
	"golang.org/x/sys/windows"
)

func TestHandleWait(t *testing.T) {
	exec := newExecutors(t)

	h, err := windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer windows.CloseHandle(h)

	ev := event.New(event.WithWaitFunc(event.HandleWait(h)), event.WithExecutors(exec))
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = windows.SetEvent(h)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ev.Await(ctx); err != nil {
		t.Fatal(err)
	}
}
