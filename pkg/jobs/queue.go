package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer has no room. Callers are
	// expected to fall back to doing the work inline.
	ErrQueueFull = errors.New("jobs: queue full")
	// ErrQueueClosed is returned before Start and after Stop.
	ErrQueueClosed = errors.New("jobs: queue not running")
)

// Job is a unit of background work. Jobs sharing a Key are coalesced while
// one of them is still waiting in the buffer.
type Job struct {
	Key      string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool. Zero values pick sane defaults.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

type queueState int

const (
	stateIdle queueState = iota
	stateRunning
	stateStopped
)

// Queue feeds keyed jobs to a fixed pool of goroutines. Enqueue never blocks
// the caller. Failed jobs are retried with linear backoff.
type Queue struct {
	name    string
	handler Handler

	workers    int
	maxRetries int
	retryDelay time.Duration
	logger     *zap.Logger

	jobs   chan Job
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   queueState
	pending map[string]struct{}
}

func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 16
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:       name,
		handler:    handler,
		workers:    cfg.Workers,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     cfg.Logger.With(zap.String("queue", name)),
		jobs:       make(chan Job, cfg.BufferSize),
		pending:    make(map[string]struct{}),
	}
}

// Start launches the workers. Handlers receive a context derived from ctx.
// Only the first call has any effect.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(q.workers)
	for i := 0; i < q.workers; i++ {
		go q.worker()
	}
	q.state = stateRunning
	q.logger.Info("queue started", zap.Int("workers", q.workers))
}

// Stop refuses new jobs and lets the workers drain the buffer. If ctx ends
// first, in-flight handlers are cancelled, the rest of the buffer is dropped
// and ctx.Err() is returned.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return nil
	}
	q.state = stateStopped
	close(q.jobs)
	q.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(drained)
	}()

	var err error
	select {
	case <-drained:
	case <-ctx.Done():
		err = ctx.Err()
		q.cancel()
		<-drained
	}
	q.cancel()
	q.logger.Info("queue stopped", zap.Bool("drained", err == nil))
	return err
}

// Enqueue buffers a job. A job whose key is already buffered is coalesced
// and reported as accepted.
func (q *Queue) Enqueue(job Job) error {
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateRunning {
		return fmt.Errorf("%s: %w", q.name, ErrQueueClosed)
	}
	if job.Key != "" {
		if _, ok := q.pending[job.Key]; ok {
			return nil
		}
	}

	select {
	case q.jobs <- job:
		if job.Key != "" {
			q.pending[job.Key] = struct{}{}
		}
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

func (q *Queue) release(key string) {
	if key == "" {
		return
	}
	q.mu.Lock()
	delete(q.pending, key)
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.release(job.Key)
		if q.ctx.Err() != nil {
			q.logger.Warn("dropping job after cancel", zap.String("key", job.Key))
			continue
		}
		if err := q.run(job); err != nil {
			q.retry(job, err)
		}
	}
}

// run shields the worker from panicking handlers.
func (q *Queue) run(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return q.handler(q.ctx, job)
}

func (q *Queue) retry(job Job, cause error) {
	job.Attempt++
	fields := []zap.Field{zap.String("key", job.Key), zap.Int("attempt", job.Attempt), zap.Error(cause)}
	if job.Attempt > q.maxRetries {
		q.logger.Error("job exceeded retries", fields...)
		return
	}
	q.logger.Warn("job failed, retrying", fields...)

	time.AfterFunc(q.retryDelay*time.Duration(job.Attempt), func() {
		if err := q.Enqueue(job); err != nil {
			q.logger.Error("failed to requeue job", zap.String("key", job.Key), zap.Error(err))
		}
	})
}
