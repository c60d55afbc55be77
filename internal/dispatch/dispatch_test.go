package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestSubmitRunsInOrder(t *testing.T) {
	d := New("test")
	defer d.Close(context.Background())

	var mu sync.Mutex
	var order []int
	for i := 0; i < 50; i++ {
		i := i
		if err := d.Submit(func(context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 50 {
		t.Fatalf("Expected 50 tasks to run, got %d", len(order))
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("Expected task %d at position %d, got %d", i, i, v)
		}
	}
}

func TestSubmitDoesNotBlockOnSlowTask(t *testing.T) {
	d := New("test")
	release := make(chan struct{})
	defer func() {
		close(release)
		d.Close(context.Background())
	}()

	if err := d.Submit(func(context.Context) { <-release }); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			_ = d.Submit(func(context.Context) {})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked while the worker was busy")
	}

	if d.Pending() < 1000 {
		t.Errorf("Expected at least 1000 pending tasks, got %d", d.Pending())
	}
}

func TestPanickingTaskDoesNotStopWorker(t *testing.T) {
	d := New("test")
	defer d.Close(context.Background())

	ran := false
	_ = d.Submit(func(context.Context) { panic("boom") })
	_ = d.Submit(func(context.Context) { ran = true })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if !ran {
		t.Errorf("Expected task after panic to run")
	}
}

func TestCloseDrainsQueue(t *testing.T) {
	d := New("test")

	count := 0
	for i := 0; i < 10; i++ {
		_ = d.Submit(func(context.Context) {
			time.Sleep(time.Millisecond)
			count++
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if count != 10 {
		t.Errorf("Expected 10 tasks to run before Close returned, got %d", count)
	}

	if err := d.Submit(func(context.Context) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed after Close, got %v", err)
	}
}

func TestCloseHonoursContext(t *testing.T) {
	d := New("test")
	release := make(chan struct{})
	_ = d.Submit(func(context.Context) { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	close(release)
}
