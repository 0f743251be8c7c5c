package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/pkg/jobs"
)

type invalidationQueueStub struct {
	jobs   []jobs.Job
	queued bool
	err    error
}

func (q *invalidationQueueStub) Enqueue(job jobs.Job) (bool, error) {
	if q.err != nil {
		return false, q.err
	}
	q.jobs = append(q.jobs, job)
	return q.queued, nil
}

func TestInvalidationServiceEnqueues(t *testing.T) {
	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	queue := &invalidationQueueStub{queued: true}
	svc := NewInvalidationService(cache, queue, nil, zap.NewNop())

	svc.Invalidate(context.Background(), "topic updated")

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, HierarchyCachePattern, queue.jobs[0].Key)
	assert.Equal(t, "topic updated", queue.jobs[0].Payload)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Handle(context.Background(), queue.jobs[0]))
	assert.Equal(t, []string{"hierarchy:*"}, repo.deleted)
}

func TestInvalidationServiceFallsBackToSyncDelete(t *testing.T) {
	repo := &stubCacheRepo{store: map[string][]byte{"hierarchy:tree:1": []byte(`[]`), "other": []byte(`1`)}}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	metrics := NewMetricsService()
	svc := NewInvalidationService(cache, &invalidationQueueStub{err: assert.AnError}, metrics, zap.NewNop())

	svc.Invalidate(context.Background(), "collection updated")

	assert.Equal(t, []string{"hierarchy:*"}, repo.deleted)
	assert.NotContains(t, repo.store, "hierarchy:tree:1")
	assert.Contains(t, repo.store, "other")
	assert.Equal(t, uint64(1), metrics.Snapshot().Invalidations)
	assert.Equal(t, uint64(1), cache.Generation())
}

func TestInvalidationServiceSkipsWhenCacheDisabled(t *testing.T) {
	repo := &stubCacheRepo{}
	queue := &invalidationQueueStub{queued: true}
	svc := NewInvalidationService(NewCacheService(repo, nil, 0, zap.NewNop(), false), queue, nil, zap.NewNop())

	svc.Invalidate(context.Background(), "topic created")
	assert.Empty(t, queue.jobs)
	assert.Empty(t, repo.deleted)
}

func TestInvalidationServiceWithRealQueue(t *testing.T) {
	repo := &stubCacheRepo{}
	cache := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
	svc := NewInvalidationService(cache, nil, nil, zap.NewNop())
	queue := jobs.NewQueue("hierarchy-invalidation", svc.Handle, jobs.QueueConfig{Workers: 1})
	svc.AttachQueue(queue)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()

	svc.Invalidate(ctx, "rule deleted")
	require.Eventually(t, func() bool { return queue.Pending() == 0 }, time.Second, 10*time.Millisecond)
}
