package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/institute-api/pkg/errors"
)

const (
	defaultCacheTTL = 5 * time.Minute
	cacheOpTimeout  = 500 * time.Millisecond
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// CacheOptions tunes a CacheService. Zero values pick defaults.
type CacheOptions struct {
	TTL     time.Duration
	Metrics *MetricsService
	Logger  *zap.Logger
}

// CacheService is a best-effort read-through cache. Every backend failure is logged and
// treated as a miss, so a slow or absent Redis never fails a request. A nil repository
// disables caching entirely.
type CacheService struct {
	repo    CacheRepository
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger
}

func NewCacheService(repo CacheRepository, opts CacheOptions) *CacheService {
	if opts.TTL <= 0 {
		opts.TTL = defaultCacheTTL
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &CacheService{repo: repo, ttl: opts.TTL, metrics: opts.Metrics, logger: opts.Logger.Named("cache")}
}

func (s *CacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Get loads key into dest and reports a hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	if !s.Enabled() {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return true
	case !errors.Is(err, appErrors.ErrCacheMiss):
		s.logger.Warn("read failed", zap.String("key", key), zap.Error(err))
	}
	return false
}

// Set stores value under key. ttl <= 0 uses the configured TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.Enabled() {
		return
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate drops every key matching a glob pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
