package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const tokenBucketScript = `
	local key = KEYS[1]
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	-- 取得或初始化 bucket 狀態
	local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
	local currentTokens = tonumber(bucket[1])
	local lastRefill = tonumber(bucket[2])

	if currentTokens == nil then
		currentTokens = capacity
		lastRefill = now
	end

	-- 計算需要補充的 tokens
	local elapsedSeconds = (now - lastRefill) / 1000
	currentTokens = math.min(capacity, currentTokens + elapsedSeconds * rate)

	local allowed = 0
	if currentTokens >= 1 then
		currentTokens = currentTokens - 1
		allowed = 1
	end

	redis.call('HMSET', key, 'tokens', currentTokens, 'last_refill', now)
	redis.call('EXPIRE', key, ttl)

	return allowed
`

var tokenBucket = redis.NewScript(tokenBucketScript)

// RsTokenBucket 多個 instance 共用的 token bucket, 狀態存在 redis
type RsTokenBucket struct {
	LimiterConfig
	client redis.Scripter
	prefix string
	logger *zerolog.Logger
}

func NewRsTokenBucket(client redis.Scripter, prefix string, config *LimiterConfig, logger *zerolog.Logger) *RsTokenBucket {
	rb := &RsTokenBucket{
		client: client,
		prefix: prefix,
		logger: logger,
	}
	if config != nil {
		rb.LimiterConfig = config.withDefaults()
	} else {
		rb.LimiterConfig = GetDefaultLimiterConfig()
	}
	if rb.logger == nil {
		nop := zerolog.Nop()
		rb.logger = &nop
	}
	return rb
}

// Allow redis 無法使用時放行, 不因限流元件故障擋掉請求
func (r *RsTokenBucket) Allow(ctx context.Context, key string) bool {
	ttl := int64(r.IdleTTL / time.Second)
	if ttl < 1 {
		ttl = 1
	}

	result, err := tokenBucket.Run(
		ctx,
		r.client,
		[]string{r.prefix + ":" + key},
		r.Capacity,
		r.RatePS,
		time.Now().UnixMilli(),
		ttl,
	).Int64()
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("redis rate limiter unavailable")
		return true
	}

	return result == 1
}

var _ Limiter = (*RsTokenBucket)(nil)
