package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/leaseflake/clog"
)

// recoverEnvelope 处理函数 panic 时记录日志并返回统一的错误响应
func recoverEnvelope(logger clog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(c.Request.Context(), "request panicked",
					clog.String("path", c.Request.URL.Path),
					clog.Any("panic", r))
				res := fault()
				c.Set(resultKey, res)
				c.AbortWithStatusJSON(http.StatusOK, res)
			}
		}()
		c.Next()
	}
}

// methodLogger 记录路由、参数、响应与耗时 (微秒)
func methodLogger(logger clog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []clog.Field{
			clog.String("route", c.FullPath()),
			clog.Int("http_status", c.Writer.Status()),
			clog.Int64("elapsed_us", time.Since(start).Microseconds()),
		}
		for _, p := range c.Params {
			fields = append(fields, clog.String("param."+p.Key, p.Value))
		}
		if v, ok := c.Get(resultKey); ok {
			fields = append(fields, clog.Any("result", v))
		}
		logger.InfoContext(c.Request.Context(), "request handled", fields...)
	}
}

// rejectEnvelope 限流拒绝
func rejectEnvelope(c *gin.Context) {
	res := Result{ID: -1, Status: statusLimited, Msg: msgLimited}
	c.Set(resultKey, res)
	c.AbortWithStatusJSON(http.StatusTooManyRequests, res)
}
