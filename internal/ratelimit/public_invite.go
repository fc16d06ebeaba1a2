package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/Vaibhavsahu2810/hcw-home-sub001/internal/config"
)

const keyPublicInvite = "invite:public:%s"

// PublicInviteLimiter throttles the unauthenticated invitation endpoints
// per client address. A nil limiter allows everything.
type PublicInviteLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewPublicInviteLimiter(cfg config.Config) (*PublicInviteLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.PublicInviteRate <= 0 || limitCfg.PublicInviteBurst <= 0 {
		return nil, errors.New("public invite rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &PublicInviteLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.PublicInviteRate,
		burst:  limitCfg.PublicInviteBurst,
	}, nil
}

// Allow fails open: a redis error admits the request rather than
// blocking patients out of their consultation.
func (l *PublicInviteLimiter) Allow(ctx context.Context, clientIP string) (*Result, error) {
	if l == nil || l.bucket == nil {
		return &Result{Allowed: true}, nil
	}
	clientIP = strings.TrimSpace(clientIP)
	if clientIP == "" {
		return &Result{Allowed: true}, nil
	}

	res, err := l.bucket.Allow(ctx, fmt.Sprintf(keyPublicInvite, clientIP), l.rate, l.burst)
	if err != nil {
		return &Result{Allowed: true, RetryAfter: time.Duration(0)}, err
	}
	return res, nil
}
