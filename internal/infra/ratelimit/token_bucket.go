package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type bucket struct {
	current      atomic.Int64
	lastRefilled atomic.Int64
	lastSeen     atomic.Int64
}

func (b *bucket) take() bool {
	for {
		current := b.current.Load()
		if current <= 0 {
			return false
		}
		if b.current.CompareAndSwap(current, current-1) {
			return true
		}
	}
}

/*
每個 key 一個 bucket, 由同一個背景 goroutine 補充 token
請使用 defer 呼叫 Stop()
*/
type TokenBucket struct {
	LimiterConfig
	buckets sync.Map // key -> *bucket
	cancel  chan struct{}
	once    sync.Once // for close background
}

func NewTokenBucket(config *LimiterConfig) *TokenBucket {
	t := &TokenBucket{
		cancel: make(chan struct{}),
	}
	if config != nil {
		t.LimiterConfig = config.withDefaults()
	} else {
		t.LimiterConfig = GetDefaultLimiterConfig()
	}

	go t.background()
	return t
}

func (t *TokenBucket) getBucket(key string, now int64) *bucket {
	if b, ok := t.buckets.Load(key); ok {
		return b.(*bucket)
	}
	nb := &bucket{}
	nb.current.Store(int64(t.Capacity))
	nb.lastRefilled.Store(now)
	b, _ := t.buckets.LoadOrStore(key, nb)
	return b.(*bucket)
}

func (t *TokenBucket) Allow(ctx context.Context, key string) bool {
	now := time.Now().UnixNano()
	b := t.getBucket(key, now)
	b.lastSeen.Store(now)
	return b.take()
}

func (t *TokenBucket) countNewTokens(b *bucket, current int64, now int64) int64 {
	elapsed := time.Duration(now - b.lastRefilled.Load())
	tokenToAdd := int64(elapsed.Seconds() * float64(t.RatePS))
	newTokens := current + tokenToAdd
	if newTokens > int64(t.Capacity) {
		newTokens = int64(t.Capacity)
	}
	return newTokens
}

func (t *TokenBucket) refill(now int64) {
	idleBefore := now - int64(t.IdleTTL)
	t.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		for {
			current := b.current.Load()
			newTokens := t.countNewTokens(b, current, now)
			if newTokens == current {
				break
			}
			if b.current.CompareAndSwap(current, newTokens) {
				b.lastRefilled.Store(now)
				break
			}
		}
		// 閒置且已補滿的 bucket 回收, 下次存取時重新建立也是滿的
		if b.lastSeen.Load() < idleBefore && b.current.Load() >= int64(t.Capacity) {
			t.buckets.Delete(key)
		}
		return true
	})
}

func (t *TokenBucket) background() {
	ticker := time.NewTicker(t.RefillRate)
	defer ticker.Stop()

	for {
		select {
		case <-t.cancel:
			return
		case <-ticker.C:
			t.refill(time.Now().UnixNano())
		}
	}
}

func (t *TokenBucket) Stop() {
	t.once.Do(func() {
		close(t.cancel)
	})
}

var _ Limiter = (*TokenBucket)(nil)
