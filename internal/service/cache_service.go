package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-content-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheService fronts the resolved-tree cache. A nil or disabled service
// behaves as a permanent miss so callers never branch on configuration.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	namespace  string
	generation atomic.Uint64
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// WithNamespace prefixes every key and invalidation pattern, letting several
// deployments share one Redis database.
func (s *CacheService) WithNamespace(prefix string) *CacheService {
	if s != nil {
		s.namespace = prefix
	}
	return s
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

func (s *CacheService) key(k string) string {
	return s.namespace + k
}

// Generation is the current cache generation. It changes on every
// BumpGeneration call.
func (s *CacheService) Generation() uint64 {
	if s == nil {
		return 0
	}
	return s.generation.Load()
}

// BumpGeneration retires every key built from an earlier Generation.
func (s *CacheService) BumpGeneration() {
	if s != nil {
		s.generation.Add(1)
	}
}

// Get loads key into dest and reports whether it was a hit. A miss is not an
// error; a backend failure is returned after being counted as a miss.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, s.key(key), dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	default:
		s.logger.Warn("tree cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
}

// Set stores value under key. A non-positive ttl uses the configured default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, s.key(key), value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("tree cache write failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate drops every entry matching pattern inside the namespace.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, s.key(pattern)); err != nil {
		s.logger.Warn("tree cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}
