package ratelimit

import (
	"context"
	"time"
)

// Limiter 以 key 區分 bucket, 例如 user id 或 ip
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type LimiterConfig struct {
	Capacity   int
	RatePS     int           // tokens/秒
	RefillRate time.Duration // 補充時間間隔
	// IdleTTL bucket 閒置超過此時間就回收
	IdleTTL time.Duration
}

func GetDefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Capacity:   100,
		RatePS:     1,
		RefillRate: time.Second,
		IdleTTL:    time.Minute,
	}
}

func (c LimiterConfig) withDefaults() LimiterConfig {
	def := GetDefaultLimiterConfig()
	if c.Capacity <= 0 {
		c.Capacity = def.Capacity
	}
	if c.RatePS <= 0 {
		c.RatePS = def.RatePS
	}
	if c.RefillRate <= 0 {
		c.RefillRate = def.RefillRate
	}
	if c.IdleTTL <= 0 {
		c.IdleTTL = def.IdleTTL
	}
	return c
}
