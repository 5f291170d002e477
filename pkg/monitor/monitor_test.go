package monitor

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGatewayMiddlewareLabels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewGatewayMetrics()
	reg := prometheus.NewRegistry()
	m.register(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/v1/balance/:address", func(c *gin.Context) {
		if c.Param("address") == "bad" {
			c.Set(ErrnoKey, 30002)
			c.JSON(http.StatusBadRequest, gin.H{})
			return
		}
		c.JSON(http.StatusOK, gin.H{})
	})

	for _, path := range []string{"/api/v1/balance/0xabc", "/api/v1/balance/0xdef", "/api/v1/balance/bad", "/nope", "/nope/again"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/v1/balance/:address", "200", "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/v1/balance/:address", "400", "30002")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "unmatched", "404", "0")))

	count, err := testutil.GatherAndCount(reg, "arb_gateway_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
