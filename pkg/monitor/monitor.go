package monitor

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrnoKey 是 gin.Context 中保存业务错误码的键, 由 response.Error 写入
const ErrnoKey = "monitor.errno"

// unmatchedRoute 汇总所有未匹配的路径, 避免按原始 URL 打标签导致基数爆炸
const unmatchedRoute = "unmatched"

// GatewayMetrics 查询网关的 HTTP 指标, 按路由模板和 errno 码统计
type GatewayMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// Gateway 是 arb-server 使用的全局实例
var Gateway = NewGatewayMetrics()

func NewGatewayMetrics() *GatewayMetrics {
	return &GatewayMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arb_gateway_requests_total",
			Help: "Gateway requests by route, HTTP status and errno code",
		}, []string{"method", "route", "status", "code"}),
		// 查询都要等节点返回, 桶的上限按 rpc.step_timeout 的量级设置
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arb_gateway_request_duration_seconds",
			Help:    "Gateway latency including the upstream JSON-RPC round trip",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method", "route"}),
	}
}

func (m *GatewayMetrics) register(r prometheus.Registerer) {
	r.MustRegister(m.Requests, m.Duration)
}

// Middleware 记录每个请求; 处理函数通过 ErrnoKey 报告的错误码进入 code 标签
func (m *GatewayMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		code := strconv.Itoa(c.GetInt(ErrnoKey))
		status := strconv.Itoa(c.Writer.Status())

		m.Requests.WithLabelValues(c.Request.Method, route, status, code).Inc()
		m.Duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

var registerOnce sync.Once

// Init 把网关指标和业务指标注册到默认 Registry, 重复调用是安全的
func Init() {
	registerOnce.Do(func() {
		Gateway.register(prometheus.DefaultRegisterer)
		Business.register(prometheus.DefaultRegisterer)
	})
}

// PrometheusMiddleware returns the gin middleware backed by Gateway.
func PrometheusMiddleware() gin.HandlerFunc {
	return Gateway.Middleware()
}
