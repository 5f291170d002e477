package server

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arb-client/internal/chain"
	"arb-client/internal/handler"
	"arb-client/internal/transfer"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChain only answers BlockNumber.
type stubChain struct{ chain.Client }

func (stubChain) BlockNumber(context.Context) (uint64, error) { return 77, nil }
func (stubChain) GasPrice(context.Context) (*uint256.Int, error) {
	return uint256.NewInt(1), nil
}
func (stubChain) ChainID(context.Context) (*big.Int, error) { return big.NewInt(1), nil }
func (stubChain) Receipt(context.Context, common.Hash) (*chain.Receipt, error) {
	return nil, nil
}
func (stubChain) SendTransaction(context.Context, *ethtypes.Transaction) error { return nil }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	q := handler.NewQueryHandler(stubChain{}, transfer.DefaultGasPolicy(), "", time.Second)
	return NewHTTPRouter(q)
}

func TestRouterRoutes(t *testing.T) {
	r := newRouter()

	for _, path := range []string{"/health", "/api/v1/ping", "/api/v1/block", "/api/v1/fee", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/block", nil))
	assert.JSONEq(t, `{"code":0,"msg":"Success","data":{"block_number":77}}`, w.Body.String())
}

func TestRouterExposesMetrics(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/block", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/api/v1/block",status="200"}`)
}

func TestAppShutsDownOnCancel(t *testing.T) {
	app := New(Config{HttpPort: "0", ShutdownTimeout: time.Second}, newRouter())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
