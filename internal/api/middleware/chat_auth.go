package middleware

import (
	"AgentVendor/internal/pkg/consts"
	"AgentVendor/internal/pkg/redis"
	"AgentVendor/internal/pkg/security"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ChatAuthMiddleware 聊天链路专用鉴权。
// 与 AuthMiddleware 的区别在于失败时返回真实的 HTTP 401，
// 流式端点的客户端按状态码而不是业务码分支。
func ChatAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Token 缺失或格式错误")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		signature, err := security.ExtractSignature(tokenString)
		if err != nil {
			abortUnauthorized(c, "Token 缺失或格式错误")
			return
		}

		value, err := redis.GetValue(c.Request.Context(), consts.TokenBlacklistKey+signature)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "未知错误"})
			return
		}
		if value != "" {
			abortUnauthorized(c, "Token 无效或已过期")
			return
		}

		claims, err := security.ValidateToken(tokenString)
		if err != nil {
			abortUnauthorized(c, "Token 无效或已过期")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("roles", claims.Roles)

		newCtx := context.WithValue(c.Request.Context(), "user_id", claims.UserID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
