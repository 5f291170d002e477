package contract

import (
	"context"
)

// ERC20MetadataABI covers the optional ERC-20 metadata getters.
const ERC20MetadataABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// TokenInfo reads name, symbol and decimals of an ERC-20 token.
func (q *Querier) TokenInfo(ctx context.Context, token string) (*TokenInfo, error) {
	c, err := q.Load(token, ERC20MetadataABI)
	if err != nil {
		return nil, err
	}

	name, err := CallView[string](ctx, c, "name")
	if err != nil {
		return nil, err
	}
	symbol, err := CallView[string](ctx, c, "symbol")
	if err != nil {
		return nil, err
	}
	decimals, err := CallView[uint8](ctx, c, "decimals")
	if err != nil {
		return nil, err
	}

	return &TokenInfo{
		Address:  c.Address.Hex(),
		Name:     name,
		Symbol:   symbol,
		Decimals: decimals,
	}, nil
}
