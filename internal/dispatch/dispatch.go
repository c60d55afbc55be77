// Package dispatch runs background work on a single worker goroutine.
//
// A Dispatcher owns an unbounded FIFO queue. Submit appends and returns
// immediately, so the goroutine driving the scan cadence is never blocked.
// Tasks run one at a time in submission order. A task that panics is logged
// and the worker moves on to the next one.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// ErrClosed is returned by Submit after Close
var ErrClosed = errors.New("dispatcher closed")

// Task is one unit of background work. The context is never cancelled
// while the task runs; in-flight work is not interrupted.
type Task func(ctx context.Context)

// Dispatcher is a single-worker FIFO task queue
type Dispatcher struct {
	name string

	mu      sync.Mutex
	pending []Task
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// New starts a dispatcher whose worker is identified by name in logs
func New(name string) *Dispatcher {
	d := &Dispatcher{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// Submit queues task behind everything already submitted
func (d *Dispatcher) Submit(task Task) error {
	if task == nil {
		return fmt.Errorf("nil task")
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.pending = append(d.pending, task)
	d.mu.Unlock()

	d.signal()
	return nil
}

// Pending returns the number of queued tasks that have not started
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush waits until every task submitted before the call has finished
func (d *Dispatcher) Flush(ctx context.Context) error {
	reached := make(chan struct{})
	if err := d.Submit(func(context.Context) { close(reached) }); err != nil {
		return err
	}

	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks and waits for the queue to drain
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
	}
	remaining := len(d.pending)
	d.mu.Unlock()

	d.signal()

	if remaining > 0 {
		slog.Info("Draining background queue", "worker", d.name, "pending", remaining)
	}

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to drain %s queue: %w", d.name, ctx.Err())
	}
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for {
		d.mu.Lock()
		if len(d.pending) == 0 {
			closed := d.closed
			d.mu.Unlock()
			if closed {
				return
			}
			<-d.wake
			continue
		}
		task := d.pending[0]
		d.pending[0] = nil
		d.pending = d.pending[1:]
		d.mu.Unlock()

		d.execute(task)
	}
}

func (d *Dispatcher) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Background task panicked", "worker", d.name, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	task(context.Background())
}
