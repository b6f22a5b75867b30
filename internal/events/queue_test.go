package events_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sluice/internal/events"
	"sluice/internal/logging"
)

func TestQueueRunsCallbacksInOrderWithoutOverlap(t *testing.T) {
	q := events.NewQueue("test", logging.NewNop(), nil)

	var mu sync.Mutex
	var order []int
	var active atomic.Int32
	var maxActive atomic.Int32

	const n = 20
	done := make(chan struct{})
	for i := 0; i < n; i++ {
		i := i
		q.Enqueue(func(ctx context.Context) error {
			current := active.Add(1)
			if current > maxActive.Load() {
				maxActive.Store(current)
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			active.Add(-1)
			if i == n-1 {
				close(done)
			}
			return nil
		})
	}

	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer q.Close(context.Background())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != n {
		t.Fatalf("expected %d executions, got %d", n, len(order))
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("execution order broken at %d: %v", i, order)
		}
	}
	if maxActive.Load() != 1 {
		t.Fatalf("callbacks overlapped: max concurrency %d", maxActive.Load())
	}
}

func TestFailingCallbackDoesNotStopQueue(t *testing.T) {
	q := events.NewQueue("failing", logging.NewNop(), nil)
	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer q.Close(context.Background())

	ran := make(chan struct{})
	for i := 0; i < 3; i++ {
		q.Enqueue(func(ctx context.Context) error {
			return errors.New("always fails")
		})
	}
	q.Enqueue(func(ctx context.Context) error {
		close(ran)
		return nil
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("queue stopped accepting work after failures")
	}
}

func TestPanickingCallbackDoesNotStopQueue(t *testing.T) {
	q := events.NewQueue("panicking", logging.NewNop(), nil)
	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer q.Close(context.Background())

	ran := make(chan struct{})
	q.Enqueue(func(ctx context.Context) error {
		panic("boom")
	})
	q.Enqueue(func(ctx context.Context) error {
		close(ran)
		return nil
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("queue stopped after panic")
	}
}

func TestCloseDropsBacklogAndIsIdempotent(t *testing.T) {
	q := events.NewQueue("closing", logging.NewNop(), nil)
	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	release := make(chan struct{})
	started := make(chan struct{})
	q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	var ranAfter atomic.Bool
	q.Enqueue(func(ctx context.Context) error {
		ranAfter.Store(true)
		return nil
	})

	<-started
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if ranAfter.Load() {
		t.Fatal("pending callback ran after close")
	}
}

func TestCloseGraceExpiry(t *testing.T) {
	q := events.NewQueue("stuck", logging.NewNop(), nil)
	if err := q.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	release := make(chan struct{})
	started := make(chan struct{})
	q.Enqueue(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	})
	<-started

	graceCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Close(graceCtx); err == nil {
		t.Fatal("expected grace expiry error while callback is stuck")
	}
	close(release)
}
