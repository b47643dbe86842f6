// Package workerpool runs tasks on a fixed number of goroutines fed from a
// bounded queue. A single Pool is created at startup and shared by every
// request of the process.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/angrychow/train-ticket/internal/pkg/metrics"
)

// DefaultSize is the number of workers used when none is configured.
const DefaultSize = 20

// ErrClosed is returned when submitting to a closed pool.
var ErrClosed = errors.New("worker pool closed")

type task struct {
	ctx context.Context
	run func(context.Context)
}

// Pool is a fixed-size worker pool.
type Pool struct {
	tasks chan task
	quit  chan struct{}
	size  int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts size workers reading from a queue holding up to queueSize
// pending tasks.
func New(size, queueSize int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	if queueSize < 0 {
		queueSize = 0
	}
	p := &Pool{
		tasks: make(chan task, queueSize),
		quit:  make(chan struct{}),
		size:  size,
	}
	p.wg.Add(size)
	for i := 0; i < size; i++ {
		go p.worker()
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case t := <-p.tasks:
			metrics.PoolQueueDepth.Set(float64(len(p.tasks)))
			metrics.PoolBusyWorkers.Inc()
			t.run(t.ctx)
			metrics.PoolBusyWorkers.Dec()
		}
	}
}

// Submit queues fn. It blocks while the queue is full and gives up when ctx
// is done or the pool is closed. fn receives ctx and must honour it.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context)) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.tasks <- task{ctx: ctx, run: fn}:
		metrics.PoolQueueDepth.Set(float64(len(p.tasks)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting tasks, waits for the workers to finish their
// current task and runs whatever is still queued with a cancelled context
// so that pending futures resolve.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	close(p.quit)
	p.wg.Wait()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for {
		select {
		case t := <-p.tasks:
			t.run(cancelled)
		default:
			metrics.PoolQueueDepth.Set(0)
			return
		}
	}
}

// Future is the result slot of one submitted task.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go submits fn to the pool and returns its result slot. A task whose
// context is already done when a worker picks it up is not run. A panic
// inside fn is reported as the task's error.
func Go[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	err := p.Submit(ctx, func(ctx context.Context) {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		if err := ctx.Err(); err != nil {
			f.err = err
			return
		}
		f.val, f.err = fn(ctx)
	})
	if err != nil {
		f.err = err
		close(f.done)
	}
	return f
}

// Wait blocks until the task finishes or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
