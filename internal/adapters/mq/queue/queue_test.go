package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Task) Task {
	t.Helper()
	select {
	case task, ok := <-ch:
		if !ok {
			t.Fatal("dequeue channel closed unexpectedly")
		}
		return task
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for task")
	}
	return Task{}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, Task{Country: "Turkey", Reason: "startup"}); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	task := receive(t, q.Dequeue(ctx))
	if task.Country != "Turkey" || task.Reason != "startup" {
		t.Errorf("unexpected task %+v", task)
	}
	if task.EnqueuedAt.IsZero() {
		t.Error("expected EnqueuedAt to be stamped")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, c := range []string{"Turkey", "Germany"} {
		if err := q.Enqueue(ctx, Task{Country: c}); err != nil {
			t.Fatalf("expected enqueue of %s to succeed, got %v", c, err)
		}
	}

	if err := q.Enqueue(ctx, Task{Country: "France"}); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}

	// A dropped task is not pending.
	task := receive(t, q.Dequeue(ctx))
	q.Done(task.Country)
	if err := q.Enqueue(ctx, Task{Country: "France"}); err != nil {
		t.Errorf("expected France to be accepted after room was made, got %v", err)
	}
}

func TestInMemoryQueue_Dedupe(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Country: "Turkey"}); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if err := q.Enqueue(ctx, Task{Country: " turkey "}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected queued duplicate to be rejected, got %v", err)
	}

	task := receive(t, q.Dequeue(ctx))

	// Still in flight until Done.
	if err := q.Enqueue(ctx, Task{Country: "Turkey"}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected in-flight duplicate to be rejected, got %v", err)
	}

	q.Done(task.Country)
	if err := q.Enqueue(ctx, Task{Country: "Turkey"}); err != nil {
		t.Errorf("expected enqueue after Done to succeed, got %v", err)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, Task{Country: "Turkey"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := q.Enqueue(context.Background(), Task{Country: "Turkey"}); err != nil {
		t.Errorf("expected a cancelled submission to leave nothing pending, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	const producers, perProducer = 10, 20
	q := NewInMemoryQueue(WithCapacity(producers * perProducer))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				if err := q.Enqueue(ctx, Task{Country: fmt.Sprintf("country-%d-%d", id, j)}); err != nil {
					t.Errorf("unexpected enqueue error: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	ch := q.Dequeue(ctx)
	seen := make(map[string]bool)
	for len(seen) < producers*perProducer {
		task := receive(t, ch)
		if seen[task.Country] {
			t.Fatalf("task %s delivered twice", task.Country)
		}
		seen[task.Country] = true
		q.Done(task.Country)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected final length 0, got %d", l)
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, Task{Country: "Turkey"}); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}
	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}
	if err := q.Enqueue(ctx, Task{Country: "Germany"}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Queued tasks drain before the channel closes.
	ch := q.Dequeue(ctx)
	if task := receive(t, ch); task.Country != "Turkey" {
		t.Errorf("expected Turkey, got %s", task.Country)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected dequeue channel to be closed")
		}
	case <-time.After(time.Second):
		t.Error("expected dequeue channel to be closed within timeout")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
