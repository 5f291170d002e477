package monitor

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BusinessMetrics 定义业务监控指标
// 指标在创建时即可使用, 只有调用 Init 后才会被 /metrics 暴露
type BusinessMetrics struct {
	TransferTotal     *prometheus.CounterVec
	RPCDuration       *prometheus.HistogramVec
	GasPriceWei       prometheus.Gauge
	ContractCallTotal *prometheus.CounterVec
}

// Global Metrics Instance
var Business = NewBusinessMetrics()

// NewBusinessMetrics 创建一组未注册的业务指标
func NewBusinessMetrics() *BusinessMetrics {
	return &BusinessMetrics{
		TransferTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arb_transfer_total",
			Help: "Transfer attempts by terminal outcome",
		}, []string{"outcome"}),
		RPCDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "arb_rpc_duration_seconds",
			Help:    "Latency of JSON-RPC calls to the node",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "result"}),
		GasPriceWei: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "arb_gas_price_wei",
			Help: "Last gas price read from the node, in wei",
		}),
		ContractCallTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arb_contract_call_total",
			Help: "Read-only contract calls by method and result",
		}, []string{"method", "result"}),
	}
}

func (m *BusinessMetrics) register(r prometheus.Registerer) {
	r.MustRegister(m.TransferTotal, m.RPCDuration, m.GasPriceWei, m.ContractCallTotal)
}

// ObserveRPC 记录一次 RPC 调用的耗时
func (m *BusinessMetrics) ObserveRPC(method string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.RPCDuration.WithLabelValues(method, result).Observe(time.Since(start).Seconds())
}
