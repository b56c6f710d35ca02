// Package workerpool runs jobs on a fixed set of goroutines fed by one
// shared FIFO queue.
//
// Interruption is cooperative. Every job receives a context when it is
// dequeued; InterruptCurrentJobs cancels the context handed to every job
// dequeued so far, and jobs are expected to poll it at convenient points.
// Nothing is ever forcibly stopped.
package workerpool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/taigrr/lumen"
)

// ErrPoolClosed is returned by Submit once Shutdown has been called.
var ErrPoolClosed = errors.New("workerpool: pool is shut down")

// Job is a unit of work. ctx is cancelled when the pool interrupts
// running jobs or shuts down.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool.
//
// Thread safety: Pool is safe for concurrent use.
type Pool struct {
	workers int

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []Job
	stopped bool

	// ctx is handed to each job at dequeue time. It is replaced, not
	// reused, after every interrupt.
	ctx    context.Context
	cancel context.CancelFunc

	wg   sync.WaitGroup
	done chan struct{}
}

// DefaultWorkers returns half the available hardware threads, at least 1.
// Tracing is floating-point bound and gains little from SMT siblings.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()/2)
}

// New starts a pool with the given number of workers. If workers is 0 or
// negative, DefaultWorkers is used.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	p := &Pool{
		workers: workers,
		done:    make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.done)
	}()

	lumen.Logger().Debug("worker pool started", "workers", workers)
	return p
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.stopped {
			p.cond.Wait()
		}
		if p.stopped {
			p.mu.Unlock()
			return
		}
		job := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		ctx := p.ctx
		p.mu.Unlock()

		job(ctx)
	}
}

// Submit enqueues a job and wakes one idle worker.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		lumen.Logger().Warn("job rejected by stopped pool")
		return ErrPoolClosed
	}
	p.queue = append(p.queue, job)
	p.cond.Signal()
	return nil
}

// HasWork reports whether jobs are waiting in the queue. A job that has
// been dequeued but is still running does not count, so an empty queue is
// not proof that all work has finished.
func (p *Pool) HasWork() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) > 0
}

// Pending returns the number of queued jobs.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// ClearPendingJobs drops every queued job and returns how many were
// dropped. Running jobs are unaffected.
func (p *Pool) ClearPendingJobs() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.queue)
	clear(p.queue)
	p.queue = p.queue[:0]
	return n
}

// InterruptCurrentJobs cancels the context of every job dequeued so far.
// Jobs dequeued afterwards get a fresh context.
func (p *Pool) InterruptCurrentJobs() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cancel()
	if !p.stopped {
		p.ctx, p.cancel = context.WithCancel(context.Background())
	}
}

// Shutdown stops accepting jobs and discards the queue. Workers exit once
// their current job returns.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	p.stopped = true
	if n := len(p.queue); n > 0 {
		lumen.Logger().Debug("discarding queued jobs", "count", n)
	}
	p.queue = nil
	p.cond.Broadcast()
}

// AwaitTermination blocks until every worker has exited or ctx is done.
func (p *Pool) AwaitTermination(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ShutdownNow shuts down, interrupts running jobs and waits for the workers
// to exit.
func (p *Pool) ShutdownNow() {
	p.Shutdown()
	p.InterruptCurrentJobs()
	_ = p.AwaitTermination(context.Background())
	lumen.Logger().Debug("worker pool stopped")
}
