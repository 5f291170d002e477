// Package contract runs read-only (eth_call) queries against deployed contracts.
package contract

import (
	"context"
	"fmt"
	"strings"

	"arb-client/pkg/address"
	"arb-client/pkg/errno"
	"arb-client/pkg/monitor"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller is the part of chain.Client a query needs.
type Caller interface {
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

type Querier struct {
	client  Caller
	metrics *monitor.BusinessMetrics
}

func NewQuerier(client Caller) *Querier {
	return &Querier{client: client, metrics: monitor.Business}
}

// Contract binds an address to the ABI fragment of the methods it is called with.
type Contract struct {
	Address common.Address
	ABI     abi.ABI
	q       *Querier
}

// Load parses the address and a JSON ABI fragment.
func (q *Querier) Load(addr, abiJSON string) (*Contract, error) {
	to, err := address.Parse(addr)
	if err != nil {
		return nil, err
	}
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidABI, err, "parse abi")
	}
	return &Contract{Address: to, ABI: parsed, q: q}, nil
}

// Call packs method and args, runs eth_call and unpacks every output value.
func (c *Contract) Call(ctx context.Context, method string, args ...interface{}) (out []interface{}, err error) {
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		c.q.metrics.ContractCallTotal.WithLabelValues(method, result).Inc()
	}()

	if _, ok := c.ABI.Methods[method]; !ok {
		return nil, errno.New(errno.ErrInvalidABI, "method %q not in abi", method)
	}
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, errno.Wrap(errno.ErrInvalidABI, err, "pack %s", method)
	}

	raw, err := c.q.client.Call(ctx, c.Address, data)
	if err != nil {
		return nil, err
	}

	out, err = c.ABI.Unpack(method, raw)
	if err != nil {
		return nil, errno.Wrap(errno.ErrDecoding, err, "%s returned %d bytes", method, len(raw))
	}
	return out, nil
}

// CallView calls a method with exactly one output and returns it as T.
func CallView[T any](ctx context.Context, c *Contract, method string, args ...interface{}) (T, error) {
	var zero T
	out, err := c.Call(ctx, method, args...)
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, errno.New(errno.ErrDecoding, "%s returned %d values, want 1", method, len(out))
	}
	v, ok := out[0].(T)
	if !ok {
		return zero, errno.New(errno.ErrDecoding, "%s returned %T, want %s", method, out[0], typeName[T]())
	}
	return v, nil
}

func typeName[T any]() string {
	var zero T
	return fmt.Sprintf("%T", zero)
}
