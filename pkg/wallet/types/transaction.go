package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types" // Alias to avoid conflict
	"github.com/holiman/uint256"
)

// UnsignedTransaction represents a native transfer waiting to be signed.
// Fields are fixed at construction; accessors hand out copies so the record
// stays immutable until it is consumed by signing.
type UnsignedTransaction struct {
	to       common.Address
	value    uint256.Int
	gasLimit uint64
	gasPrice uint256.Int
	chainID  big.Int
	nonce    uint64
}

// NewUnsignedTransaction copies every argument into a new record.
func NewUnsignedTransaction(to common.Address, value *uint256.Int, gasLimit uint64, gasPrice *uint256.Int, chainID *big.Int, nonce uint64) *UnsignedTransaction {
	tx := &UnsignedTransaction{
		to:       to,
		gasLimit: gasLimit,
		nonce:    nonce,
	}
	tx.value.Set(value)
	tx.gasPrice.Set(gasPrice)
	tx.chainID.Set(chainID)
	return tx
}

func (tx *UnsignedTransaction) To() common.Address { return tx.to }

func (tx *UnsignedTransaction) Value() *uint256.Int { return tx.value.Clone() }

func (tx *UnsignedTransaction) GasLimit() uint64 { return tx.gasLimit }

func (tx *UnsignedTransaction) GasPrice() *uint256.Int { return tx.gasPrice.Clone() }

func (tx *UnsignedTransaction) ChainID() *big.Int { return new(big.Int).Set(&tx.chainID) }

func (tx *UnsignedTransaction) Nonce() uint64 { return tx.nonce }

// MaxCost is value + gasLimit * gasPrice, the most the sender can be charged.
// The second result reports a 256-bit overflow.
func (tx *UnsignedTransaction) MaxCost() (*uint256.Int, bool) {
	fee, overflow := new(uint256.Int).MulOverflow(&tx.gasPrice, uint256.NewInt(tx.gasLimit))
	if overflow {
		return nil, true
	}
	return new(uint256.Int).AddOverflow(fee, &tx.value)
}

// ToLegacyTx 转换为 go-ethereum 的 legacy (EIP-155) 交易, 用于签名
func (tx *UnsignedTransaction) ToLegacyTx() *ethtypes.Transaction {
	to := tx.to
	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    tx.nonce,
		GasPrice: tx.gasPrice.ToBig(),
		Gas:      tx.gasLimit,
		To:       &to,
		Value:    tx.value.ToBig(),
	})
}

// SignedTransaction represents the result of the signing process.
type SignedTransaction struct {
	TxHash string `json:"tx_hash"` // Transaction Hash
	RawTx  string `json:"raw_tx"`  // RLP Encoded Hex String (ready to broadcast)
}

// NewSignedTransaction 序列化已签名交易 (RLP)
func NewSignedTransaction(tx *ethtypes.Transaction) (*SignedTransaction, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		TxHash: tx.Hash().Hex(),
		RawTx:  hexutil.Encode(raw),
	}, nil
}
