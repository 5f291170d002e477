package handler

import (
	"context"
	"strconv"
	"time"

	"arb-client/internal/chain"
	"arb-client/internal/contract"
	"arb-client/internal/handler/request"
	"arb-client/internal/handler/response"
	"arb-client/internal/transfer"
	"arb-client/pkg/address"
	"arb-client/pkg/units"
	"arb-client/pkg/validator"

	"github.com/gin-gonic/gin"
)

// QueryHandler serves the read-only chain queries. There is no transfer
// endpoint; the signing key never sits behind HTTP.
type QueryHandler struct {
	client       chain.Client
	fees         *transfer.FeeEstimator
	policy       transfer.GasPolicy
	querier      *contract.Querier
	defaultToken string
	timeout      time.Duration
}

func NewQueryHandler(client chain.Client, policy transfer.GasPolicy, defaultToken string, timeout time.Duration) *QueryHandler {
	validator.Init()
	return &QueryHandler{
		client:       client,
		fees:         transfer.NewFeeEstimator(client),
		policy:       policy,
		querier:      contract.NewQuerier(client),
		defaultToken: defaultToken,
		timeout:      timeout,
	}
}

func (h *QueryHandler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(c.Request.Context(), h.timeout)
	}
	return context.WithCancel(c.Request.Context())
}

// Balance GET /api/v1/balance/:address
func (h *QueryHandler) Balance(c *gin.Context) {
	var uri request.AddressURI
	if err := c.ShouldBindUri(&uri); err != nil {
		response.Error(c, validator.ToErrno(err))
		return
	}
	addr, err := address.Parse(uri.Address)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	balance, err := h.client.Balance(ctx, addr)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"address":     addr.Hex(),
		"balance_wei": balance.Dec(),
		"balance_eth": units.FormatEther(balance),
	})
}

// Fee GET /api/v1/fee?class=transfer&gas_limit=
func (h *QueryHandler) Fee(c *gin.Context) {
	var q request.FeeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, validator.ToErrno(err))
		return
	}

	limit := q.GasLimit
	if limit == 0 {
		var err error
		if limit, err = h.policy.Limit(transfer.Class(q.Class)); err != nil {
			response.Error(c, err)
			return
		}
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	est, err := h.fees.Estimate(ctx, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{
		"gas_price_wei":  est.GasPrice.Dec(),
		"gas_price_gwei": units.FormatGwei(est.GasPrice),
		"gas_limit":      strconv.FormatUint(est.GasLimit, 10),
		"fee_wei":        est.Fee.Dec(),
		"fee_eth":        units.FormatEther(est.Fee),
	})
}

// Block GET /api/v1/block
func (h *QueryHandler) Block(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()
	n, err := h.client.BlockNumber(ctx)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"block_number": n})
}

// Token GET /api/v1/token and /api/v1/token/:address
func (h *QueryHandler) Token(c *gin.Context) {
	token := c.Param("address")
	if token == "" {
		token = h.defaultToken
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	info, err := h.querier.TokenInfo(ctx, token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, info)
}
