package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
)

// GinHTTPMiddleware 记录 HTTP RED 指标，路由标签取 c.FullPath()（如 /idGen/getIdByAppKey/:appKey）
func GinHTTPMiddleware(httpMetrics *HTTPServerMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if httpMetrics == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		// 未命中路由时收敛为 unknown，避免原始路径造成高基数
		route := c.FullPath()
		if route == "" {
			route = UnknownRoute
		}
		httpMetrics.Observe(c.Request.Context(), c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
