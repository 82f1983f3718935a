package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ceyewan/leaseflake/clog"
	"github.com/ceyewan/leaseflake/idgen"
)

const (
	statusSuccess = 0
	statusFault   = 500
	statusLimited = 429

	msgSuccess = "success"
	msgFault   = "system error!"
	msgLimited = "too many requests"

	// resultKey methodLogger 从 gin.Context 中读取响应
	resultKey = "leaseflake.result"
)

// Result 取号接口的响应体
type Result struct {
	ID     int64  `json:"id"`
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

func success(id int64) Result {
	return Result{ID: id, Status: statusSuccess, Msg: msgSuccess}
}

func fault() Result {
	return Result{ID: -1, Status: statusFault, Msg: msgFault}
}

// reply 异常也返回 HTTP 200，由 status 字段区分
func reply(c *gin.Context, res Result) {
	c.Set(resultKey, res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) getID(c *gin.Context) {
	reply(c, success(s.ids.GetIDForContext(c.Request.Context(), idgen.DefaultNamespace)))
}

func (s *Server) getIDByAppKey(c *gin.Context) {
	// 未注册的 appKey 由默认命名空间取号，命名空间只能通过配置注册
	reply(c, success(s.ids.GetIDForContext(c.Request.Context(), c.Param("appKey"))))
}

func (s *Server) workers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"workers": s.ids.Workers()})
}

func (s *Server) healthz(c *gin.Context) {
	if s.opts.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.opts.health.HealthCheck(ctx); err != nil {
		s.logger.WarnContext(ctx, "health check failed", clog.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
