package channel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brickingsoft/coio/pkg/channel"
	"github.com/brickingsoft/coio/pkg/coro"
	"github.com/brickingsoft/errors"
)

func TestChannel_WriteBeforeRead(t *testing.T) {
	ch := channel.New[int](channel.NoLock())
	list := []int{1, 2, 3}
	written := make([]bool, 0, len(list))
	for _, v := range list {
		coro.Then[bool](ch.Write(v), func(ok bool, err error) {
			if err != nil {
				t.Error(err)
			}
			written = append(written, ok)
		})
		if len(written) != 0 {
			t.Fatal("writer must suspend while no reader is present")
		}
	}
	got := make([]channel.Received[int], 0, len(list))
	for range list {
		coro.Then[channel.Received[int]](ch.Read(), func(r channel.Received[int], err error) {
			if err != nil {
				t.Error(err)
			}
			got = append(got, r)
		})
	}
	for i, v := range list {
		if !got[i].OK || got[i].Value != v {
			t.Fatalf("read %d: expected (%d, true), got (%d, %v)", i, v, got[i].Value, got[i].OK)
		}
		if !written[i] {
			t.Fatalf("write %d must resume with true", i)
		}
	}
}

func TestChannel_ReadBeforeWrite(t *testing.T) {
	ch := channel.New[string]()
	var got channel.Received[string]
	resumed := 0
	coro.Then[channel.Received[string]](ch.Read(), func(r channel.Received[string], err error) {
		got = r
		resumed++
	})
	if resumed != 0 {
		t.Fatal("reader must suspend while no writer is present")
	}
	ok, err := ch.Send(context.Background(), "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("write must succeed")
	}
	if resumed != 1 || !got.OK || got.Value != "hello" {
		t.Fatal("unexpected read outcome", got, resumed)
	}
}

func TestChannel_CloseWhileWriting(t *testing.T) {
	ch := channel.New[int]()
	outcomes := make([]bool, 0, 1)
	coro.Then[bool](ch.Write(7), func(ok bool, err error) {
		outcomes = append(outcomes, ok)
	})
	ch.Close()
	if len(outcomes) != 1 {
		t.Fatal("pending writer must be resumed exactly once, got", len(outcomes))
	}
	if outcomes[0] {
		t.Fatal("pending writer must resume with false")
	}
	ch.Close()
	if len(outcomes) != 1 {
		t.Fatal("second close must not resume again")
	}
}

func TestChannel_CloseWhileReading(t *testing.T) {
	ch := channel.New[int]()
	done := make(chan channel.Received[int], 1)
	go func() {
		v, ok, err := ch.Receive(context.Background())
		if err != nil {
			t.Error(err)
		}
		done <- channel.Received[int]{Value: v, OK: ok}
	}()
	time.Sleep(10 * time.Millisecond)
	ch.Close()
	select {
	case r := <-done:
		if r.OK || r.Value != 0 {
			t.Fatal("pending reader must resume with (0, false), got", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pending reader was never resumed")
	}
}

func TestChannel_AfterClose(t *testing.T) {
	ch := channel.New[int]()
	ch.Close()
	if !ch.Closed() {
		t.Fatal("channel must report closed")
	}
	ok, err := ch.Send(context.Background(), 1)
	if err != nil || ok {
		t.Fatal("write after close must fail without error", ok, err)
	}
	v, ok, err := ch.Receive(context.Background())
	if err != nil || ok || v != 0 {
		t.Fatal("read after close must fail without error", v, ok, err)
	}
}

func TestChannel_Pairing(t *testing.T) {
	const n = 1000
	ch := channel.New[int]()
	ctx := context.Background()
	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			ok, err := ch.Send(ctx, i)
			if err != nil || !ok {
				t.Error("write", i, "failed:", ok, err)
				return
			}
		}
	}()
	for i := 0; i < n; i++ {
		v, ok, err := ch.Receive(ctx)
		if err != nil || !ok {
			t.Fatal("read", i, "failed:", ok, err)
		}
		if v != i {
			t.Fatalf("expected %d, got %d", i, v)
		}
	}
	wg.Wait()
}

func TestChannel_ConcurrentParties(t *testing.T) {
	const n = 64
	ch := channel.New[int]()
	ctx := context.Background()
	sum := make(chan int, n)
	wg := sync.WaitGroup{}
	for i := 1; i <= n; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			if ok, err := ch.Send(ctx, v); err != nil || !ok {
				t.Error("write failed:", ok, err)
			}
		}(i)
		go func() {
			defer wg.Done()
			v, ok, err := ch.Receive(ctx)
			if err != nil || !ok {
				t.Error("read failed:", ok, err)
				return
			}
			sum <- v
		}()
	}
	wg.Wait()
	close(sum)
	total := 0
	for v := range sum {
		total += v
	}
	if total != n*(n+1)/2 {
		t.Fatal("values lost or duplicated, total:", total)
	}
}

func TestChannel_Exclusive(t *testing.T) {
	ch := channel.New[int](channel.Exclusive())
	coro.Then[bool](ch.Write(1), func(ok bool, err error) {
		if err != nil {
			t.Error(err)
		}
	})
	var rejected error
	coro.Then[bool](ch.Write(2), func(ok bool, err error) {
		rejected = err
	})
	if !channel.IsBusy(rejected) {
		t.Fatal("second pending writer must be rejected with ErrBusy, got", rejected)
	}
	v, ok, err := ch.Receive(context.Background())
	if err != nil || !ok || v != 1 {
		t.Fatal("expected (1, true), got", v, ok, err)
	}
	ch.Close()
}

func TestChannel_CancelPendingWrite(t *testing.T) {
	ch := channel.New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	ok, err := ch.Send(ctx, 9)
	if ok {
		t.Fatal("canceled write must not succeed")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("expected deadline exceeded, got", err)
	}
	go func() {
		_, _ = ch.Send(context.Background(), 10)
	}()
	v, ok, err := ch.Receive(context.Background())
	if err != nil || !ok || v != 10 {
		t.Fatal("canceled writer must be skipped, got", v, ok, err)
	}
}

func TestChannel_AwaitTwice(t *testing.T) {
	ch := channel.New[int]()
	w := ch.Write(1)
	coro.Then[bool](w, func(bool, error) {})
	var err error
	coro.Then[bool](w, func(_ bool, e error) {
		err = e
	})
	if !errors.Is(err, channel.ErrReused) {
		t.Fatal("expected ErrReused, got", err)
	}
	ch.Close()
}
