package queueworker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/patrickjmorris/therunclub-sub001/internal/domain"
	"github.com/patrickjmorris/therunclub-sub001/internal/usecase"
)

type countingProcessor struct {
	mu       sync.Mutex
	attempts map[string]int

	// failuresBefore maps content ID to the number of transient failures
	// returned before succeeding.
	failuresBefore map[string]int
	notFound       map[string]bool
}

func newCountingProcessor() *countingProcessor {
	return &countingProcessor{
		attempts:       map[string]int{},
		failuresBefore: map[string]int{},
		notFound:       map[string]bool{},
	}
}

func (c *countingProcessor) ProcessItem(_ context.Context, contentID string, _ domain.ContentType) (usecase.ItemResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempts[contentID]++
	if c.notFound[contentID] {
		return usecase.ItemResult{}, domain.ErrNotFound
	}
	if c.attempts[contentID] <= c.failuresBefore[contentID] {
		return usecase.ItemResult{}, errors.New("store unreachable")
	}
	return usecase.ItemResult{TitleMatches: 1}, nil
}

func (c *countingProcessor) attemptCount(contentID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts[contentID]
}

func runPool(t *testing.T, processor Processor, jobs []Job) {
	t.Helper()

	queue := NewQueue(len(jobs))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, job := range jobs {
		require.NoError(t, queue.Enqueue(ctx, job))
	}
	queue.Close()

	pool := NewPool(queue, processor,
		WithWorkers(2),
		WithInitialBackoff(time.Millisecond),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
	)
	pool.Start(ctx)
	pool.Wait()
}

func TestPoolProcessesJobs(t *testing.T) {
	t.Parallel()

	processor := newCountingProcessor()
	runPool(t, processor, []Job{
		{ContentID: "ep1", ContentType: domain.ContentPodcast},
		{ContentID: "v1", ContentType: domain.ContentVideo},
	})

	assert.Equal(t, 1, processor.attemptCount("ep1"))
	assert.Equal(t, 1, processor.attemptCount("v1"))
}

func TestPoolRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	processor := newCountingProcessor()
	processor.failuresBefore["ep1"] = 2

	runPool(t, processor, []Job{{ContentID: "ep1", ContentType: domain.ContentPodcast}})

	assert.Equal(t, 3, processor.attemptCount("ep1"))
}

func TestPoolStopsAfterAttemptBudget(t *testing.T) {
	t.Parallel()

	processor := newCountingProcessor()
	processor.failuresBefore["ep1"] = 10

	runPool(t, processor, []Job{{ContentID: "ep1", ContentType: domain.ContentPodcast}})

	assert.Equal(t, defaultAttempts, processor.attemptCount("ep1"))
}

func TestPoolDoesNotRetryNotFound(t *testing.T) {
	t.Parallel()

	processor := newCountingProcessor()
	processor.notFound["ghost"] = true

	runPool(t, processor, []Job{{ContentID: "ghost", ContentType: domain.ContentPodcast}})

	assert.Equal(t, 1, processor.attemptCount("ghost"))
}

func TestEnqueueRespectsContext(t *testing.T) {
	t.Parallel()

	queue := NewQueue(1)
	ctx := context.Background()
	require.NoError(t, queue.Enqueue(ctx, Job{ContentID: "ep1"}))

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := queue.Enqueue(cancelled, Job{ContentID: "ep2"})
	assert.ErrorIs(t, err, context.Canceled)
}
