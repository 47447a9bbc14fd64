package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoDone_WaitsForRunToReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var finished atomic.Bool
	done := goDone(ctx, func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})

	select {
	case <-done:
		t.Fatalf("done closed before cancel")
	case <-time.After(10 * time.Millisecond):
	}

	cancel()
	wait, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	if !waitDone(wait, done) {
		t.Fatalf("run did not return after cancel")
	}
	if !finished.Load() {
		t.Fatalf("done closed before run returned")
	}
}

func TestWaitDone_Deadline(t *testing.T) {
	if !waitDone(context.Background(), closedChan()) {
		t.Fatalf("closed channel should not block")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if waitDone(ctx, make(chan struct{})) {
		t.Fatalf("waitDone should give up at the deadline")
	}
}
