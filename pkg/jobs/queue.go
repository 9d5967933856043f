package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by Enqueue when the buffer has no room.
var ErrQueueFull = errors.New("jobs: queue full")

// Job is one unit of queued work carrying a typed payload.
type Job[T any] struct {
	ID       string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler[T any] func(context.Context, Job[T]) error

// GiveUpFunc is invoked once a job has exhausted its retries or failed
// permanently.
type GiveUpFunc[T any] func(Job[T], error)

// QueueConfig configures worker pool behaviour.
type QueueConfig[T any] struct {
	Workers    int
	BufferSize int
	MaxRetries int
	// RetryDelay is the first backoff; each further attempt doubles it up to
	// MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	DrainTimeout  time.Duration
	Logger        *zap.Logger
	OnGiveUp      GiveUpFunc[T]
}

type permanentError struct{ err error }

func (e permanentError) Error() string { return e.err.Error() }
func (e permanentError) Unwrap() error { return e.err }

// Permanent marks err so the queue gives up without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p permanentError
	return errors.As(err, &p)
}

const (
	stateIdle = iota
	stateRunning
	stateStopped
)

// Queue is an in-memory worker pool. Failed jobs are retried in place by the
// worker that ran them.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     QueueConfig[T]
	logger  *zap.Logger

	jobs   chan Job[T]
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	state  int
}

// NewQueue builds a queue for handler.
func NewQueue[T any](name string, handler Handler[T], cfg QueueConfig[T]) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.MaxRetryDelay < cfg.RetryDelay {
		cfg.MaxRetryDelay = 30 * cfg.RetryDelay
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job[T], cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are ignored.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != stateIdle {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.state = stateRunning
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Enqueue hands job to the pool without blocking.
func (q *Queue[T]) Enqueue(job Job[T]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.state != stateRunning {
		return fmt.Errorf("queue %s not running", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Stop drains the queue within the configured drain timeout.
func (q *Queue[T]) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), q.cfg.DrainTimeout)
	defer cancel()
	if err := q.Shutdown(ctx); err != nil {
		q.logger.Warn("queue drain interrupted", zap.Error(err))
	}
}

// Shutdown refuses new jobs and waits for buffered ones to finish. When ctx
// ends first the workers are cancelled and pending retries are given up.
func (q *Queue[T]) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.state != stateRunning {
		q.mu.Unlock()
		return nil
	}
	q.state = stateStopped
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		err = ctx.Err()
		q.cancel()
		<-done
	}
	q.cancel()
	q.logger.Info("queue stopped")
	return err
}

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue[T]) run(job Job[T]) {
	for {
		err := q.handler(q.ctx, job)
		if err == nil {
			return
		}
		job.Attempt++
		if IsPermanent(err) || job.Attempt > q.cfg.MaxRetries {
			q.giveUp(job, err)
			return
		}
		delay := q.backoff(job.Attempt)
		q.logger.Warn("job failed, retrying",
			zap.String("job_id", job.ID),
			zap.Int("attempt", job.Attempt),
			zap.Duration("delay", delay),
			zap.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-q.ctx.Done():
			timer.Stop()
			q.giveUp(job, err)
			return
		case <-timer.C:
		}
	}
}

func (q *Queue[T]) backoff(attempt int) time.Duration {
	delay := q.cfg.RetryDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= q.cfg.MaxRetryDelay {
			return q.cfg.MaxRetryDelay
		}
	}
	return delay
}

func (q *Queue[T]) giveUp(job Job[T], err error) {
	q.logger.Error("job abandoned", zap.String("job_id", job.ID), zap.Int("attempts", job.Attempt), zap.Error(err))
	if q.cfg.OnGiveUp != nil {
		q.cfg.OnGiveUp(job, err)
	}
}
