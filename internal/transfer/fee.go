package transfer

import (
	"context"

	"arb-client/pkg/config"
	"arb-client/pkg/errno"

	"github.com/holiman/uint256"
)

// Class selects the gas limit policy for an operation.
type Class string

const (
	ClassTransfer Class = "transfer"
	ClassContract Class = "contract"
)

// Gas limits for the two operation classes. These are policy, not estimates.
const (
	DefaultTransferGasLimit uint64 = 21000
	DefaultContractGasLimit uint64 = 300000
)

type GasPolicy struct {
	TransferLimit uint64
	ContractLimit uint64
}

func DefaultGasPolicy() GasPolicy {
	return GasPolicy{
		TransferLimit: DefaultTransferGasLimit,
		ContractLimit: DefaultContractGasLimit,
	}
}

// GasPolicyFromConfig falls back to the defaults for unset limits.
func GasPolicyFromConfig(cfg config.GasConfig) GasPolicy {
	p := DefaultGasPolicy()
	if cfg.TransferLimit > 0 {
		p.TransferLimit = cfg.TransferLimit
	}
	if cfg.ContractLimit > 0 {
		p.ContractLimit = cfg.ContractLimit
	}
	return p
}

// Limit returns the gas limit for class. An empty class means ClassTransfer.
func (p GasPolicy) Limit(class Class) (uint64, error) {
	switch class {
	case ClassTransfer, "":
		return p.TransferLimit, nil
	case ClassContract:
		return p.ContractLimit, nil
	default:
		return 0, errno.New(errno.ErrConfiguration, "unknown operation class %q", string(class))
	}
}

// FeeEstimate is GasPrice x GasLimit together with its inputs.
type FeeEstimate struct {
	GasPrice *uint256.Int
	GasLimit uint64
	Fee      *uint256.Int
}

// GasPricer is the part of chain.Client the estimator needs.
type GasPricer interface {
	GasPrice(ctx context.Context) (*uint256.Int, error)
}

type FeeEstimator struct {
	client GasPricer
}

func NewFeeEstimator(client GasPricer) *FeeEstimator {
	return &FeeEstimator{client: client}
}

// Estimate reads the current gas price and prices gasLimit with it.
// Fetch errors are returned unchanged, there is no retry.
func (e *FeeEstimator) Estimate(ctx context.Context, gasLimit uint64) (*FeeEstimate, error) {
	price, err := e.client.GasPrice(ctx)
	if err != nil {
		return nil, err
	}
	fee, err := FeeFor(price, gasLimit)
	if err != nil {
		return nil, err
	}
	return &FeeEstimate{GasPrice: price, GasLimit: gasLimit, Fee: fee}, nil
}

// FeeFor multiplies price by limit, failing instead of wrapping on overflow.
func FeeFor(price *uint256.Int, limit uint64) (*uint256.Int, error) {
	if price == nil {
		return nil, errno.New(errno.ErrInvalidAmount, "gas price is missing")
	}
	fee, overflow := new(uint256.Int).MulOverflow(price, uint256.NewInt(limit))
	if overflow {
		return nil, errno.New(errno.ErrInvalidAmount, "fee %s x %d exceeds 256 bits", price.Dec(), limit)
	}
	return fee, nil
}

// WithBuffer returns fee increased by percent, rounded down.
func WithBuffer(fee *uint256.Int, percent uint64) (*uint256.Int, error) {
	if percent == 0 {
		return fee.Clone(), nil
	}
	extra, overflow := new(uint256.Int).MulOverflow(fee, uint256.NewInt(percent))
	if overflow {
		return nil, errno.New(errno.ErrInvalidAmount, "fee buffer of %d%% exceeds 256 bits", percent)
	}
	extra.Div(extra, uint256.NewInt(100))
	total, overflow := new(uint256.Int).AddOverflow(fee, extra)
	if overflow {
		return nil, errno.New(errno.ErrInvalidAmount, "fee buffer of %d%% exceeds 256 bits", percent)
	}
	return total, nil
}
