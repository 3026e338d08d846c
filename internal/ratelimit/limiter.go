package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/spk/internal/config"
	"go.uber.org/zap"
)

const keyDocumentClient = "spk:ratelimit:document:%s"

// DocumentLimiter throttles document retrievals per client, since a cache
// miss costs a full render.
type DocumentLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

// NewDocumentLimiter returns nil when limiting is disabled. A nil limiter
// allows everything.
func NewDocumentLimiter(cfg config.Config, client redis.UniversalClient, log *zap.Logger) (*DocumentLimiter, error) {
	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil, nil
	}
	if client == nil {
		return nil, errors.New("rate limit requires redis")
	}
	if rl.DocumentRate <= 0 || rl.DocumentBurst <= 0 {
		return nil, errors.New("document rate limit must be positive")
	}
	return &DocumentLimiter{
		bucket: NewTokenBucket(client),
		rate:   rl.DocumentRate,
		burst:  rl.DocumentBurst,
		log:    log.Named("ratelimit.document"),
	}, nil
}

func (l *DocumentLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow fails open: a Redis error is logged and the request goes through.
func (l *DocumentLimiter) Allow(ctx context.Context, client string) *RateLimitResult {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}
	}
	client = strings.TrimSpace(client)
	if client == "" {
		client = "anonymous"
	}
	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyDocumentClient, client), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed", zap.String("client", client), zap.Error(err))
		return &RateLimitResult{Allowed: true, Limit: l.burst}
	}
	return res
}
