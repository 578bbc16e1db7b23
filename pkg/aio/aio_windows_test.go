//go:build windows

package aio_test

import (
	"context"
	"testing"
	"time"

	"github.com/brickingsoft/coio/pkg/aio"
	"github.com/brickingsoft/coio/pkg/coro"
	"golang.org/x/sys/windows"
)

const canceledErrno = windows.ERROR_OPERATION_ABORTED

// A socket stays bound to the completion port of the engine it was first used
// with; after a restart only new sockets carry requests.
func TestRestart_SocketOfPreviousEngine(t *testing.T) {
	old, _ := openUDP(t, "udp4", "127.0.0.1:0")
	if err := aio.Associate(old); err != nil {
		t.Fatal(err)
	}
	if err := aio.Shutdown(); err != nil {
		t.Fatal(err)
	}
	if err := aio.Startup(); err != nil {
		t.Fatal(err)
	}

	var d aio.Descriptor
	_, err := coro.Await[aio.Result](context.Background(), aio.NewRecvFrom(old, make([]byte, 8), &d))
	if !aio.IsSubmissionError(err) {
		t.Fatal("expected submission error, got", err)
	}

	fresh, _ := openUDP(t, "udp4", "127.0.0.1:0")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var fd aio.Descriptor
	r, err := coro.Await[aio.Result](ctx, aio.NewRecvFrom(fresh, make([]byte, 8), &fd))
	if err == nil || !aio.IsCompletionError(r.Err) {
		t.Fatal("a fresh socket must carry requests of the new engine, got", err, r.Err)
	}
}
