package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobs(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 2)
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b"} {
		queued, err := q.Enqueue(Job{ID: id, Type: "invalidate"})
		require.NoError(t, err)
		assert.True(t, queued)
	}
	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	mu.Lock()
	assert.ElementsMatch(t, []string{"a", "b"}, seen)
	mu.Unlock()
}

func TestQueueCoalescesPendingKeys(t *testing.T) {
	release := make(chan struct{})
	var runs int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if job.ID == "blocker" {
			<-release
		}
		atomic.AddInt32(&runs, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{ID: "blocker"})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return q.Pending() == 0 }, time.Second, 5*time.Millisecond)

	first, err := q.Enqueue(Job{ID: "1", Key: "hierarchy:*"})
	require.NoError(t, err)
	second, err := q.Enqueue(Job{ID: "2", Key: "hierarchy:*"})
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)

	close(release)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, time.Second, 5*time.Millisecond)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var attempts int32
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&attempts, 1) < 3 {
			return errors.New("redis unavailable")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	_, err := q.Enqueue(Job{ID: "retry", Key: "k"})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) == 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("test", func(context.Context, Job) error { return nil }, QueueConfig{})
	queued, err := q.Enqueue(Job{ID: "x", Key: "k"})
	assert.Error(t, err)
	assert.False(t, queued)
}
