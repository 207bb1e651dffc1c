// Package queueworker runs single-item detection jobs off an in-memory
// queue with bounded concurrency, rate limiting, and job-level retries.
// Retries live here, at the job level, not inside the detection logic.
package queueworker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/usecase"
)

// Default pool configuration, matching the production queue settings.
const (
	defaultWorkers        = 5
	defaultRatePerSecond  = 50
	defaultAttempts       = 3
	defaultInitialBackoff = time.Second
)

// Job is a single-item detection request.
type Job struct {
	ContentID   string
	ContentType domain.ContentType
}

// Processor is the orchestrator surface workers invoke.
type Processor interface {
	ProcessItem(ctx context.Context, contentID string, contentType domain.ContentType) (usecase.ItemResult, error)
}

// Queue is a bounded in-memory job queue.
type Queue struct {
	jobs      chan Job
	closeOnce sync.Once
}

// NewQueue creates a queue with the given capacity.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = 256
	}
	return &Queue{jobs: make(chan Job, size)}
}

// Enqueue adds a job, blocking until there is room or ctx is done.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops intake; workers drain the remaining jobs and exit.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.jobs) })
}

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(count int) Option {
	return func(p *Pool) {
		if count > 0 {
			p.workers = count
		}
	}
}

// WithLimiter injects the shared rate limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(p *Pool) {
		if limiter != nil {
			p.limiter = limiter
		}
	}
}

// WithAttempts sets the per-job attempt budget.
func WithAttempts(attempts int) Option {
	return func(p *Pool) {
		if attempts > 0 {
			p.attempts = attempts
		}
	}
}

// WithInitialBackoff sets the first retry delay; it doubles per attempt.
func WithInitialBackoff(backoff time.Duration) Option {
	return func(p *Pool) {
		if backoff > 0 {
			p.initialBackoff = backoff
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

// Pool processes queued jobs with a fixed set of workers.
type Pool struct {
	queue     *Queue
	processor Processor
	limiter   *rate.Limiter

	workers        int
	attempts       int
	initialBackoff time.Duration

	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewPool wires a queue and processor with defaults of 5 workers, 50 jobs
// per second, and 3 attempts starting at a 1s backoff.
func NewPool(queue *Queue, processor Processor, opts ...Option) *Pool {
	p := &Pool{
		queue:          queue,
		processor:      processor,
		limiter:        rate.NewLimiter(rate.Limit(defaultRatePerSecond), defaultRatePerSecond),
		workers:        defaultWorkers,
		attempts:       defaultAttempts,
		initialBackoff: defaultInitialBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the workers. They exit when the queue is closed and
// drained, or when ctx is done.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.runWorker(ctx)
		}()
	}
}

// Wait blocks until all workers have exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queue.jobs:
			if !ok {
				return
			}
			p.process(ctx, job)
		}
	}
}

func (p *Pool) process(ctx context.Context, job Job) {
	if err := p.limiter.Wait(ctx); err != nil {
		return
	}

	backoff := p.initialBackoff
	for attempt := 1; attempt <= p.attempts; attempt++ {
		result, err := p.processor.ProcessItem(ctx, job.ContentID, job.ContentType)
		if err == nil {
			p.debug("job processed",
				"content_id", job.ContentID,
				"content_type", job.ContentType,
				"title_matches", result.TitleMatches,
				"content_matches", result.ContentMatches,
				"attempt", attempt)
			return
		}

		// A missing item will not appear on retry.
		if errors.Is(err, domain.ErrNotFound) {
			p.warn("job dropped, content not found",
				"content_id", job.ContentID, "content_type", job.ContentType)
			return
		}

		if attempt == p.attempts {
			p.warn("job failed, attempts exhausted",
				"content_id", job.ContentID,
				"content_type", job.ContentType,
				"attempts", attempt,
				"error", err)
			return
		}

		p.debug("job attempt failed, retrying",
			"content_id", job.ContentID, "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (p *Pool) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pool) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
