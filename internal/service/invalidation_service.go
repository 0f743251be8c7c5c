package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-content-api/pkg/jobs"
)

// HierarchyCachePattern matches every cached tree and subject index.
const HierarchyCachePattern = hierarchyCachePrefix + ":*"

const invalidationJobType = "hierarchy_cache_invalidate"

type invalidationQueue interface {
	Enqueue(job jobs.Job) (bool, error)
}

// InvalidationService drops cached hierarchies after writes. When a queue is
// attached the work runs in the background and bursts of writes collapse
// into one pending job.
type InvalidationService struct {
	cache   *CacheService
	queue   invalidationQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewInvalidationService constructs the service. queue may be nil.
func NewInvalidationService(cache *CacheService, queue invalidationQueue, metrics *MetricsService, logger *zap.Logger) *InvalidationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvalidationService{cache: cache, queue: queue, metrics: metrics, logger: logger}
}

// AttachQueue wires the background queue once it has been built around Handle.
func (s *InvalidationService) AttachQueue(queue invalidationQueue) {
	s.queue = queue
}

// Invalidate schedules removal of cached hierarchy payloads. It falls back
// to a synchronous delete when the queue is missing or refuses the job.
func (s *InvalidationService) Invalidate(ctx context.Context, reason string) {
	if s == nil || !s.cache.Enabled() {
		return
	}
	s.cache.BumpGeneration()
	if s.queue != nil {
		queued, err := s.queue.Enqueue(jobs.Job{
			ID:      uuid.NewString(),
			Type:    invalidationJobType,
			Key:     HierarchyCachePattern,
			Payload: reason,
		})
		if err == nil {
			if !queued {
				s.logger.Debug("hierarchy invalidation coalesced", zap.String("reason", reason))
			}
			return
		}
		s.logger.Warn("enqueue hierarchy invalidation", zap.String("reason", reason), zap.Error(err))
	}
	if err := s.run(ctx); err != nil {
		s.logger.Warn("hierarchy invalidation failed", zap.String("reason", reason), zap.Error(err))
	}
}

// Handle is the queue handler.
func (s *InvalidationService) Handle(ctx context.Context, job jobs.Job) error {
	start := time.Now()
	err := s.run(ctx)
	s.logger.Debug("hierarchy cache invalidated",
		zap.String("job_id", job.ID),
		zap.Any("reason", job.Payload),
		zap.Int("attempt", job.Attempt),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return err
}

func (s *InvalidationService) run(ctx context.Context) error {
	err := s.cache.Invalidate(ctx, HierarchyCachePattern)
	s.metrics.RecordInvalidation(err)
	return err
}
