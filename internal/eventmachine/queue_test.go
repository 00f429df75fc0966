package eventmachine

import (
	"context"
	"testing"
	"time"
)

func TestQueuePushTakeFIFO(t *testing.T) {
	q := newQueue[int]()
	q.push(1)
	q.push(2)

	ctx := context.Background()
	got, err := q.take(ctx, func(int) bool { return true })
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if got != 1 {
		t.Fatalf("got %d, want 1 (FIFO)", got)
	}
}

func TestQueueDropsOldestOverCapacity(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < queueCap+5; i++ {
		q.push(i)
	}
	if n := q.len(); n != queueCap {
		t.Fatalf("len = %d, want %d", n, queueCap)
	}
	ctx := context.Background()
	got, err := q.take(ctx, func(int) bool { return true })
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	if got != 5 {
		t.Fatalf("oldest surviving item = %d, want 5", got)
	}
}

func TestQueueTakeBlocksUntilPush(t *testing.T) {
	q := newQueue[int]()
	result := make(chan int, 1)
	go func() {
		v, err := q.take(context.Background(), func(int) bool { return true })
		if err != nil {
			t.Errorf("take: %v", err)
			return
		}
		result <- v
	}()

	time.Sleep(10 * time.Millisecond)
	q.push(42)

	select {
	case v := <-result:
		if v != 42 {
			t.Fatalf("got %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("take did not unblock after push")
	}
}

func TestQueueStopWakesWaiters(t *testing.T) {
	q := newQueue[int]()
	errCh := make(chan error, 1)
	go func() {
		_, err := q.take(context.Background(), func(int) bool { return false })
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	q.stop()

	select {
	case err := <-errCh:
		if err != ErrStopped {
			t.Fatalf("err = %v, want ErrStopped", err)
		}
	case <-time.After(time.Second):
		t.Fatal("take did not wake up on stop")
	}
}

func TestQueueTakeContextCancellation(t *testing.T) {
	q := newQueue[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := q.take(ctx, func(int) bool { return false })
	if err != context.DeadlineExceeded {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}
