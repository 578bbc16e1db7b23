package coio_test

import (
	"context"
	"testing"
	"time"

	"github.com/brickingsoft/coio"
	"github.com/brickingsoft/coio/pkg/aio"
	"github.com/brickingsoft/coio/pkg/channel"
	"github.com/brickingsoft/coio/pkg/coro"
	"github.com/brickingsoft/coio/pkg/event"
	"github.com/brickingsoft/coio/pkg/sockets"
	"go.uber.org/zap"
)

func TestStartup(t *testing.T) {
	ctx := context.Background()
	err := coio.Startup(
		coio.WithMaxGoroutines(64),
		coio.WithCloseTimeout(time.Second),
		coio.WithCylinders(2),
		coio.WithCPUAffinity(),
		coio.WithWaitTimeout(50*time.Millisecond),
		coio.WithLogger(zap.NewNop()),
	)
	if err != nil {
		t.Fatal(err)
	}
	exec, err := coio.Executors()
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	err = exec.Execute(ctx, coro.TaskFunc(func() {
		t.Log("do...")
		close(done)
	}))
	if err != nil {
		t.Fatal(err)
	}
	<-done
	err = coio.ShutdownGracefully()
	if err != nil {
		t.Error(err)
	}
}

func TestStartup_InvalidOption(t *testing.T) {
	if err := coio.Startup(coio.WithMaxGoroutines(0)); err == nil {
		t.Fatal("invalid option must fail startup")
	}
	if err := coio.Startup(coio.WithCylinders(0)); err == nil {
		t.Fatal("invalid engine option must fail startup")
	}
	_ = coio.Shutdown()
}

// A datagram is received on an engine cylinder, handed to a consumer through a
// channel, and the consumer signals an event once it saw everything.
func TestPipeline(t *testing.T) {
	if err := coio.Startup(coio.WithCylinders(2)); err != nil {
		t.Fatal(err)
	}
	defer coio.Shutdown()

	rsd, raddr, err := sockets.Open("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer sockets.Close(rsd)
	ssd, _, err := sockets.Open("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer sockets.Close(ssd)

	const n = 8
	ch := channel.New[string]()
	finished := event.New()
	go func() {
		seen := 0
		for seen < n {
			_, ok, rerr := ch.Receive(context.Background())
			if rerr != nil || !ok {
				finished.Cancel(rerr)
				return
			}
			seen++
		}
		finished.Set()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() {
		var rd aio.Descriptor
		buf := make([]byte, 64)
		for i := 0; i < n; i++ {
			r, rerr := coro.Await[aio.Result](ctx, aio.NewRecvFrom(rsd, buf, &rd))
			if rerr != nil || r.Err != nil {
				t.Error(rerr, r.Err)
				return
			}
			if _, werr := ch.Send(ctx, string(buf[:r.N])); werr != nil {
				t.Error(werr)
				return
			}
		}
	}()

	var sd aio.Descriptor
	for i := 0; i < n; i++ {
		r, serr := coro.Await[aio.Result](ctx, aio.NewSendTo(ssd, raddr, []byte("ping"), &sd))
		if serr != nil || r.Err != nil {
			t.Fatal(serr, r.Err)
		}
		time.Sleep(time.Millisecond)
	}
	if err = finished.Await(ctx); err != nil {
		t.Fatal(err)
	}
	ch.Close()
}

func TestOffload(t *testing.T) {
	exec, err := coio.Executors()
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan struct{})
	coro.Then[struct{}](coro.Offload(context.Background(), exec), func(_ struct{}, err error) {
		if err != nil {
			t.Error(err)
		}
		close(done)
	})
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("offloaded continuation never ran")
	}
	_ = coio.ShutdownGracefully()
}
