package middleware

import (
	"AgentVendor/internal/pkg/ratelimit"
	log "log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 聊天入口限流。
// 判定结果无论放行与否都会写入 X-RateLimit-* 响应头；
// 超限时直接返回 429，不进入后续鉴权与业务逻辑。
func RateLimitMiddleware(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Limit(c.Request.Context(), clientKey(c))
		if err != nil {
			// 限流器故障时放行，不把 Redis 异常放大成全站不可用
			log.ErrorContext(c.Request.Context(), "限流判定失败", "err", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt, 10))

		if !res.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":     "请求过于频繁，请稍后再试",
				"limit":     res.Limit,
				"remaining": res.Remaining,
				"reset":     res.ResetAt,
			})
			return
		}

		c.Next()
	}
}

// clientKey 限流跑在鉴权之前，按来源 IP 维度计数
func clientKey(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		return "ip:" + strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	return "ip:" + c.ClientIP()
}
