package ratelimit

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinMiddleware 创建 Gin 限流中间件
//
// keyFunc 为 nil 时按客户端 IP 限流；onReject 为 nil 时返回 429。
// 限流器出错或规则无效时放行。
func GinMiddleware(
	limiter Limiter,
	keyFunc func(*gin.Context) string,
	limitFunc func(*gin.Context) Limit,
	onReject gin.HandlerFunc,
) gin.HandlerFunc {
	if keyFunc == nil {
		keyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	if onReject == nil {
		onReject = func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
		}
	}

	return func(c *gin.Context) {
		key := keyFunc(c)
		limit := limitFunc(c)
		if key == "" || !limit.valid() {
			c.Next()
			return
		}

		allowed, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil || allowed {
			c.Next()
			return
		}
		onReject(c)
		c.Abort()
	}
}
