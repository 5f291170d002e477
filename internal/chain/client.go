package chain

import (
	"context"
	"errors"
	"math/big"
	"time"

	"arb-client/pkg/errno"
	"arb-client/pkg/monitor"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
)

// Client is the JSON-RPC boundary. Every failure is tagged with an errno kind:
// deadline overruns become ErrTimeout, other transport errors ErrNetwork.
type Client interface {
	Balance(ctx context.Context, addr common.Address) (*uint256.Int, error)
	GasPrice(ctx context.Context) (*uint256.Int, error)
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	// Receipt returns (nil, nil) while the transaction is not mined yet.
	Receipt(ctx context.Context, hash common.Hash) (*Receipt, error)
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
	BlockNumber(ctx context.Context) (uint64, error)
	Close()
}

// Receipt is the part of a transaction receipt the client reports.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
	GasUsed     uint64
	Status      uint64
}

// Succeeded reports whether the transaction executed without reverting.
func (r *Receipt) Succeeded() bool {
	return r.Status == ethtypes.ReceiptStatusSuccessful
}

// EthClient adapts go-ethereum's ethclient to Client.
type EthClient struct {
	rpc     *ethclient.Client
	metrics *monitor.BusinessMetrics
}

// Dial connects to an HTTP(S) or WS endpoint.
func Dial(ctx context.Context, rpcURL string) (*EthClient, error) {
	c, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errno.FromContext(err, "dial "+rpcURL)
	}
	return NewEthClient(c), nil
}

func NewEthClient(c *ethclient.Client) *EthClient {
	return &EthClient{rpc: c, metrics: monitor.Business}
}

func (c *EthClient) Balance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	start := time.Now()
	v, err := c.rpc.BalanceAt(ctx, addr, nil)
	c.metrics.ObserveRPC("eth_getBalance", start, err)
	if err != nil {
		return nil, errno.FromContext(err, "eth_getBalance")
	}
	return toUint256(v, "eth_getBalance")
}

func (c *EthClient) GasPrice(ctx context.Context) (*uint256.Int, error) {
	start := time.Now()
	v, err := c.rpc.SuggestGasPrice(ctx)
	c.metrics.ObserveRPC("eth_gasPrice", start, err)
	if err != nil {
		return nil, errno.FromContext(err, "eth_gasPrice")
	}
	price, err := toUint256(v, "eth_gasPrice")
	if err != nil {
		return nil, err
	}
	c.metrics.GasPriceWei.Set(price.Float64())
	return price, nil
}

func (c *EthClient) ChainID(ctx context.Context) (*big.Int, error) {
	start := time.Now()
	id, err := c.rpc.ChainID(ctx)
	c.metrics.ObserveRPC("eth_chainId", start, err)
	if err != nil {
		return nil, errno.FromContext(err, "eth_chainId")
	}
	return id, nil
}

func (c *EthClient) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	start := time.Now()
	n, err := c.rpc.PendingNonceAt(ctx, addr)
	c.metrics.ObserveRPC("eth_getTransactionCount", start, err)
	if err != nil {
		return 0, errno.FromContext(err, "eth_getTransactionCount")
	}
	return n, nil
}

func (c *EthClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	start := time.Now()
	err := c.rpc.SendTransaction(ctx, tx)
	c.metrics.ObserveRPC("eth_sendRawTransaction", start, err)
	return errno.FromContext(err, "eth_sendRawTransaction")
}

func (c *EthClient) Receipt(ctx context.Context, hash common.Hash) (*Receipt, error) {
	start := time.Now()
	r, err := c.rpc.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		c.metrics.ObserveRPC("eth_getTransactionReceipt", start, nil)
		return nil, nil
	}
	c.metrics.ObserveRPC("eth_getTransactionReceipt", start, err)
	if err != nil {
		return nil, errno.FromContext(err, "eth_getTransactionReceipt")
	}

	receipt := &Receipt{
		TxHash:  r.TxHash,
		GasUsed: r.GasUsed,
		Status:  r.Status,
	}
	if r.BlockNumber != nil {
		receipt.BlockNumber = r.BlockNumber.Uint64()
	}
	return receipt, nil
}

func (c *EthClient) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	start := time.Now()
	out, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	c.metrics.ObserveRPC("eth_call", start, err)
	if err != nil {
		return nil, errno.FromContext(err, "eth_call")
	}
	return out, nil
}

func (c *EthClient) BlockNumber(ctx context.Context) (uint64, error) {
	start := time.Now()
	n, err := c.rpc.BlockNumber(ctx)
	c.metrics.ObserveRPC("eth_blockNumber", start, err)
	if err != nil {
		return 0, errno.FromContext(err, "eth_blockNumber")
	}
	return n, nil
}

func (c *EthClient) Close() {
	c.rpc.Close()
}

// toUint256 rejects node answers that do not fit an Amount.
func toUint256(v *big.Int, op string) (*uint256.Int, error) {
	if v == nil {
		return nil, errno.New(errno.ErrDecoding, "%s: empty result", op)
	}
	if v.Sign() < 0 {
		return nil, errno.New(errno.ErrDecoding, "%s: negative value %s", op, v)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errno.New(errno.ErrDecoding, "%s: value %s exceeds 256 bits", op, v)
	}
	return out, nil
}
