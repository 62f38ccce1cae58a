// Package taskqueue is the in-process execution context for asynchronous
// imports: a bounded job channel drained by a fixed worker pool, with
// handlers registered per job kind. Persistent task state lives in the
// import task record, never in the queue, so the queue can be swapped for
// an external broker without touching the pipeline.
package taskqueue

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull   = errors.New("task queue is full")
	ErrUnknownKind = errors.New("no handler registered for job kind")
	ErrStopped     = errors.New("task queue is stopped")
)

type Job interface {
	Kind() string
}

type HandlerFunc func(ctx context.Context, job Job) error

type Queue struct {
	log     *logrus.Logger
	jobs    chan Job
	workers int

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	stopped  bool

	quit     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(workers, capacity int, log *logrus.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{
		log:      log,
		jobs:     make(chan Job, capacity),
		workers:  workers,
		handlers: make(map[string]HandlerFunc),
		quit:     make(chan struct{}),
	}
}

func (q *Queue) Register(kind string, handler HandlerFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = handler
}

// Enqueue hands a job to the pool without blocking: the caller-facing
// submit path must return in constant time, so a full buffer is an error,
// not a wait.
func (q *Queue) Enqueue(job Job) error {
	q.mu.RLock()
	_, known := q.handlers[job.Kind()]
	stopped := q.stopped
	q.mu.RUnlock()

	if stopped {
		return ErrStopped
	}
	if !known {
		return errors.Wrapf(ErrUnknownKind, "%s", job.Kind())
	}

	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the worker pool. Workers exit when the context is
// cancelled; jobs already buffered but not picked up are dropped, which is
// acceptable because their task records stay Queued and an external
// supervisor can requeue them.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.run(ctx, i)
	}
}

// Stop prevents further enqueues and waits for in-flight jobs to finish.
// It works on its own; cancelling the Start context is not required.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.stopOnce.Do(func() { close(q.quit) })
	q.wg.Wait()
}

func (q *Queue) run(ctx context.Context, worker int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.quit:
			return
		case job := <-q.jobs:
			q.dispatch(ctx, worker, job)
		}
	}
}

func (q *Queue) dispatch(ctx context.Context, worker int, job Job) {
	q.mu.RLock()
	handler := q.handlers[job.Kind()]
	q.mu.RUnlock()
	if handler == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil && q.log != nil {
			q.log.Errorf("taskqueue: worker %d panicked on %s job: %v", worker, job.Kind(), r)
		}
	}()

	if err := handler(ctx, job); err != nil && q.log != nil {
		q.log.WithError(err).Errorf("taskqueue: worker %d failed %s job", worker, job.Kind())
	}
}
