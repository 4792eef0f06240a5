package ratelimit

import (
	"context"

	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/config"
	"github.com/coderjoher/Project-Managment-Tool-sub000/internal/observability/metrics"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPrefix = "ratelimit:"

type Params struct {
	fx.In

	Cfg     config.Config
	Log     *zap.Logger
	Client  *redis.Client    `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// Limiter throttles public endpoints per scope and client key. It uses the
// shared redis bucket when redis is configured and a local bucket otherwise.
type Limiter struct {
	log     *zap.Logger
	bucket  *TokenBucket
	local   *LocalLimiter
	rate    float64
	burst   int
	metrics *metrics.Metrics
}

func NewLimiter(p Params) *Limiter {
	return &Limiter{
		log:     p.Log.Named("ratelimit"),
		bucket:  NewTokenBucket(p.Client),
		local:   NewLocalLimiter(),
		rate:    p.Cfg.RateLimit.Rate,
		burst:   p.Cfg.RateLimit.Burst,
		metrics: p.Metrics,
	}
}

// Allow consumes one token for key within scope. Redis failures fail open.
func (l *Limiter) Allow(ctx context.Context, scope, key string) Result {
	if l == nil || l.rate <= 0 || l.burst <= 0 {
		return Result{Allowed: true}
	}

	bucketKey := keyPrefix + scope + ":" + key
	var result Result
	if l.bucket != nil {
		var err error
		result, err = l.bucket.Allow(ctx, bucketKey, l.rate, l.burst)
		if err != nil {
			l.log.Warn("rate limit check failed, allowing request",
				zap.String("scope", scope),
				zap.Error(err),
			)
			return Result{Allowed: true}
		}
	} else {
		result = l.local.Allow(bucketKey, l.rate, l.burst)
	}

	if !result.Allowed {
		l.metrics.RecordRateLimitDenied(ctx, scope)
	}
	return result
}
