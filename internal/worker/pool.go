package worker

import (
	"context"
	"errors"
	log "log/slog"
	"sync"

	"golang.org/x/sync/semaphore"
)

var ErrClosed = errors.New("worker pool closed")

const DefaultSize = 4

// Pool runs tasks off the caller's goroutine with at most size of them in
// flight. Submit never blocks. Tasks start in submission order, so a pool of
// one runs them strictly one after another. Tasks are not cancelled.
type Pool struct {
	// workers bounds the number of draining goroutines.
	workers *semaphore.Weighted

	mu     sync.Mutex
	idle   *sync.Cond
	queue  []func(ctx context.Context)
	active int // queued plus running
	closed bool
}

func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{workers: semaphore.NewWeighted(int64(size))}
	p.idle = sync.NewCond(&p.mu)
	return p
}

// Submit queues task. It fails only once Close has been called and the pool
// has drained, so a running task can always queue its follow-up.
func (p *Pool) Submit(task func(ctx context.Context)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed && p.active == 0 {
		return ErrClosed
	}
	p.active++
	p.queue = append(p.queue, task)

	if p.workers.TryAcquire(1) {
		go p.drain()
	}
	return nil
}

// Go submits work whose result is delivered to done. done runs on the worker
// goroutine.
func Go[T any](p *Pool, work func(ctx context.Context) T, done func(T)) error {
	return p.Submit(func(ctx context.Context) {
		done(work(ctx))
	})
}

// Close waits until no task is running or queued.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	for p.active > 0 {
		p.idle.Wait()
	}
}

func (p *Pool) drain() {
	ctx := context.Background()
	for {
		p.mu.Lock()
		if len(p.queue) == 0 {
			// Released under mu so a concurrent Submit either sees the
			// slot free or its task is picked up here.
			p.workers.Release(1)
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		run(ctx, task)
		p.done()
	}
}

func run(ctx context.Context, task func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Task panicked", "panic", r)
		}
	}()
	task(ctx)
}

func (p *Pool) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active--
	if p.active == 0 {
		p.idle.Broadcast()
	}
}
