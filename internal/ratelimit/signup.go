package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/bookmehq/bookme/internal/config"
)

const keySignup = "signup:client:%s"

// SignupLimiter bounds tenant registrations per client address. It is
// disabled when no redis address is configured, and fails open on redis
// errors: a broken limiter must not take down signups.
type SignupLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
	log     *zap.Logger
}

func NewSignupLimiter(cfg config.Config, log *zap.Logger) *SignupLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &SignupLimiter{log: log.Named("ratelimit.signup")}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &SignupLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    float64(cfg.SignupRatePerMin) / float64(time.Minute/time.Second),
		burst:   cfg.SignupBurst,
		log:     log.Named("ratelimit.signup"),
	}
}

func (l *SignupLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *SignupLimiter) Allow(ctx context.Context, clientKey string) bool {
	if !l.Enabled() {
		return true
	}

	allowed, err := l.bucket.Allow(ctx, fmt.Sprintf(keySignup, strings.TrimSpace(clientKey)), l.rate, l.burst)
	if err != nil {
		l.log.Warn("signup rate limiter unavailable, allowing request", zap.Error(err))
		return true
	}
	return allowed
}
