package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	TermID string
}

func TestQueueDeliversPayload(t *testing.T) {
	received := make(chan Job[payload], 1)
	q := NewQueue[payload]("generation", func(ctx context.Context, job Job[payload]) error {
		received <- job
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[payload]{ID: "job-1", Payload: payload{TermID: "term-1"}}))

	select {
	case job := <-received:
		assert.Equal(t, "term-1", job.Payload.TermID)
		assert.Equal(t, 0, job.Attempt)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueRetriesUntilExhausted(t *testing.T) {
	var calls int32
	done := make(chan struct{})
	q := NewQueue[payload]("generation", func(ctx context.Context, job Job[payload]) error {
		if atomic.AddInt32(&calls, 1) == 3 {
			close(done)
		}
		return errors.New("database unavailable")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[payload]{ID: "job-1"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("retries did not happen")
	}
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueAppliesJobTimeoutAndRecoversPanics(t *testing.T) {
	results := make(chan error, 2)
	q := NewQueue[payload]("generation", func(ctx context.Context, job Job[payload]) error {
		if job.ID == "panic" {
			defer func() { results <- errors.New("panicked") }()
			panic("boom")
		}
		<-ctx.Done()
		results <- ctx.Err()
		return ctx.Err()
	}, QueueConfig{JobTimeout: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[payload]{ID: "slow"}))
	select {
	case err := <-results:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("job timeout not applied")
	}

	require.NoError(t, q.Enqueue(Job[payload]{ID: "panic"}))
	select {
	case <-results:
	case <-time.After(2 * time.Second):
		t.Fatal("panicking job was not run")
	}
}

func TestEnqueueBeforeStart(t *testing.T) {
	q := NewQueue[payload]("generation", func(context.Context, Job[payload]) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job[payload]{ID: "job-1"}))
}
