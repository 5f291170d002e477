package transfer

import (
	"math/big"

	"arb-client/pkg/address"
	"arb-client/pkg/errno"
	"arb-client/pkg/wallet/types"

	"github.com/holiman/uint256"
)

// Build validates the recipient and assembles an unsigned legacy transfer.
// Same inputs always give the same record.
func Build(recipient string, value *uint256.Int, gasLimit uint64, gasPrice *uint256.Int, chainID *big.Int, nonce uint64) (*types.UnsignedTransaction, error) {
	to, err := address.Parse(recipient)
	if err != nil {
		return nil, err
	}
	switch {
	case value == nil:
		return nil, errno.New(errno.ErrInvalidAmount, "value is missing")
	case gasPrice == nil:
		return nil, errno.New(errno.ErrInvalidAmount, "gas price is missing")
	case gasLimit == 0:
		return nil, errno.New(errno.ErrInvalidAmount, "gas limit must be positive")
	case chainID == nil || chainID.Sign() <= 0:
		return nil, errno.New(errno.ErrConfiguration, "chain id must be positive")
	}
	return types.NewUnsignedTransaction(to, value, gasLimit, gasPrice, chainID, nonce), nil
}
