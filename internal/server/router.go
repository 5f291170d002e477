package server

import (
	"arb-client/internal/handler"
	"arb-client/internal/handler/response"
	"arb-client/pkg/monitor"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPRouter 初始化并返回一个 Gin Engine
func NewHTTPRouter(q *handler.QueryHandler) *gin.Engine {
	// 0. 初始化监控指标
	monitor.Init()

	// 1. 创建 Engine (使用默认中间件: Logger, Recovery)
	r := gin.Default()

	// 2. 注册通用中间件
	r.Use(monitor.PrometheusMiddleware())

	// 3. 注册基础路由
	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 4. 注册 API 路由组 (只读查询)
	api := r.Group("/api/v1")
	{
		api.GET("/ping", func(c *gin.Context) {
			response.Success(c, gin.H{"pong": true})
		})
		api.GET("/balance/:address", q.Balance)
		api.GET("/fee", q.Fee)
		api.GET("/block", q.Block)
		api.GET("/token", q.Token)
		api.GET("/token/:address", q.Token)
	}

	return r
}
