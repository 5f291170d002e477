package transfer

import (
	"fmt"

	"arb-client/pkg/errno"
	"arb-client/pkg/wallet/types"

	"github.com/holiman/uint256"
)

// InsufficientFundsError reports exactly how far the balance falls short.
// With Overflow set, amount + fee does not fit 256 bits and Required and
// Shortfall are nil.
type InsufficientFundsError struct {
	Required  *uint256.Int
	Amount    *uint256.Int
	Fee       *uint256.Int
	Balance   *uint256.Int
	Shortfall *uint256.Int
	Overflow  bool
}

func (e *InsufficientFundsError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("insufficient funds: amount %s wei + fee %s wei exceeds 256 bits, balance %s wei",
			e.Amount.Dec(), e.Fee.Dec(), e.Balance.Dec())
	}
	return fmt.Sprintf("insufficient funds: need %s wei (amount %s + fee %s), have %s, short by %s",
		e.Required.Dec(), e.Amount.Dec(), e.Fee.Dec(), e.Balance.Dec(), e.Shortfall.Dec())
}

func (e *InsufficientFundsError) Unwrap() error {
	return errno.ErrInsufficientFunds
}

// ValidateSufficient succeeds iff balance >= amount + fee. It does no I/O.
func ValidateSufficient(balance, amount, fee *uint256.Int) error {
	if balance == nil || amount == nil || fee == nil {
		return errno.New(errno.ErrInvalidAmount, "balance, amount and fee are required")
	}

	required, overflow := new(uint256.Int).AddOverflow(amount, fee)
	if overflow {
		return &InsufficientFundsError{
			Amount:   amount.Clone(),
			Fee:      fee.Clone(),
			Balance:  balance.Clone(),
			Overflow: true,
		}
	}
	if balance.Lt(required) {
		return &InsufficientFundsError{
			Required:  required,
			Amount:    amount.Clone(),
			Fee:       fee.Clone(),
			Balance:   balance.Clone(),
			Shortfall: new(uint256.Int).Sub(required, balance),
		}
	}
	return nil
}

// ValidateTransaction re-checks a built transaction against the balance:
// value + gasLimit * gasPrice must not exceed it.
func ValidateTransaction(balance *uint256.Int, tx *types.UnsignedTransaction) error {
	if balance == nil || tx == nil {
		return errno.New(errno.ErrInvalidAmount, "balance and transaction are required")
	}
	fee, feeOverflow := new(uint256.Int).MulOverflow(tx.GasPrice(), uint256.NewInt(tx.GasLimit()))
	cost, overflow := tx.MaxCost()
	if feeOverflow || overflow {
		return &InsufficientFundsError{
			Amount:   tx.Value(),
			Fee:      fee,
			Balance:  balance.Clone(),
			Overflow: true,
		}
	}
	if balance.Lt(cost) {
		return &InsufficientFundsError{
			Required:  cost,
			Amount:    tx.Value(),
			Fee:       fee,
			Balance:   balance.Clone(),
			Shortfall: new(uint256.Int).Sub(cost, balance),
		}
	}
	return nil
}
