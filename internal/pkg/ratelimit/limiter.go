package ratelimit

import (
	"AgentVendor/internal/pkg/consts"
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Result 一次限流判定的结果，字段用于填充 X-RateLimit-* 响应头
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   int64 // epoch 毫秒
}

// Limiter 按客户端 Key 做滑动窗口限流
type Limiter interface {
	Limit(ctx context.Context, clientKey string) (*Result, error)
}

type slidingWindowLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewSlidingWindowLimiter(rdb *redis.Client, limit int, window time.Duration) Limiter {
	return &slidingWindowLimiter{rdb: rdb, limit: limit, window: window}
}

// Limit 基于 Redis ZSet 的滑动窗口：清理过期成员后统计窗口内请求数
func (s *slidingWindowLimiter) Limit(ctx context.Context, clientKey string) (*Result, error) {
	key := consts.ChatRateLimitKey + clientKey
	now := time.Now()
	windowStart := now.Add(-s.window)

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixMilli(), 10))
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	count := int(countCmd.Val())
	var oldest int64
	if members := oldestCmd.Val(); len(members) > 0 {
		oldest = int64(members[0].Score)
	}

	res := verdict(count, s.limit, oldest, now, s.window)
	if !res.Allowed {
		return res, nil
	}

	// 占用一个窗口名额
	pipe = s.rdb.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return res, nil
}

// verdict 纯函数：根据窗口内已有请求数计算判定结果
// count 不含本次请求；oldest 为窗口内最老成员的毫秒时间戳，0 表示窗口为空
func verdict(count, limit int, oldest int64, now time.Time, window time.Duration) *Result {
	resetAt := now.Add(window).UnixMilli()
	if oldest > 0 {
		resetAt = oldest + window.Milliseconds()
	}

	if count >= limit {
		return &Result{
			Allowed:   false,
			Limit:     limit,
			Remaining: 0,
			ResetAt:   resetAt,
		}
	}

	return &Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
		ResetAt:   resetAt,
	}
}
