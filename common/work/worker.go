package work

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrPoolStopped        = errors.New("worker pool has been stopped")
)

// TaskResult represents the settled outcome of one task: either Result is
// valid or Error is set. One failing task never affects its siblings.
type TaskResult[T any] struct {
	TaskID   string
	Result   T
	Error    error
	Duration time.Duration
}

// IsSuccess returns true if the task completed successfully
func (tr *TaskResult[T]) IsSuccess() bool {
	return tr.Error == nil
}

// Executor is the unit of work submitted to a Pool
type Executor[T any] interface {
	ExecutorID() string
	Execute(ctx context.Context) (T, error)
	Timeout() time.Duration // 0 means use the pool default
}

// Pool is a bounded worker pool. The number of workers caps concurrent
// task execution regardless of how many tasks are queued.
type Pool[T any] struct {
	workers     int
	taskTimeout time.Duration

	tasks   chan Executor[T]
	results chan TaskResult[T]
	quit    chan struct{}
	wg      sync.WaitGroup

	mu       sync.RWMutex
	started  bool
	stopped  bool
	stopOnce sync.Once
}

// NewPool creates a pool with the given worker count and queue capacity.
// taskTimeout bounds each task's execution unless the task carries its own.
func NewPool[T any](workers, queueSize int, taskTimeout time.Duration) (*Pool[T], error) {
	if workers <= 0 {
		return nil, ErrInvalidWorkerCount
	}
	if queueSize < 0 {
		queueSize = 0
	}
	if taskTimeout <= 0 {
		taskTimeout = 30 * time.Second
	}

	return &Pool[T]{
		workers:     workers,
		taskTimeout: taskTimeout,
		tasks:       make(chan Executor[T], queueSize),
		results:     make(chan TaskResult[T], queueSize),
		quit:        make(chan struct{}),
	}, nil
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool[T]) Start(ctx context.Context, poolID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, poolID, i)
	}

	log.Debug().Str("poolID", poolID).Int("workers", p.workers).Msg("Worker pool started")
}

// Stop closes the task queue, waits for in-flight tasks and closes the
// results channel. Safe to call more than once.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	p.stopOnce.Do(func() {
		close(p.quit)
		close(p.tasks)
		p.wg.Wait()
		close(p.results)
	})
}

// AddTask queues a task, blocking until there is room or ctx is done.
func (p *Pool[T]) AddTask(ctx context.Context, task Executor[T]) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.quit:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Results returns the channel settled task outcomes are delivered on.
func (p *Pool[T]) Results() <-chan TaskResult[T] {
	return p.results
}

func (p *Pool[T]) runWorker(ctx context.Context, poolID string, workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			p.executeTask(ctx, task, poolID, workerID)
		}
	}
}

func (p *Pool[T]) executeTask(ctx context.Context, task Executor[T], poolID string, workerID int) {
	timeout := p.taskTimeout
	if t := task.Timeout(); t > 0 {
		timeout = t
	}

	taskCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := task.Execute(taskCtx)

	if err != nil {
		log.Warn().
			Str("poolID", poolID).
			Int("workerID", workerID).
			Str("taskID", task.ExecutorID()).
			Err(err).
			Msg("Task failed")
	}

	outcome := TaskResult[T]{
		TaskID:   task.ExecutorID(),
		Result:   result,
		Error:    err,
		Duration: time.Since(start),
	}

	select {
	case p.results <- outcome:
	case <-p.quit:
	}
}
