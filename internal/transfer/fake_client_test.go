package transfer

import (
	"context"
	"math/big"
	"sync"

	"arb-client/internal/chain"
	"arb-client/internal/credential"
	"arb-client/pkg/errno"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// fakeClient is an in-memory chain.Client that records every call.
type fakeClient struct {
	mu sync.Mutex

	balance  *uint256.Int
	gasPrice *uint256.Int
	chainID  *big.Int

	// receiptAfter is the number of empty lookups before the receipt appears.
	// Negative means never.
	receiptAfter int
	receiptErr   error
	sendErr      error
	// blockGasPrice makes GasPrice wait for ctx to end.
	blockGasPrice bool

	calls    map[string]int
	sent     []*ethtypes.Transaction
	lookups  int
	receipts map[common.Hash]*chain.Receipt
}

func newFakeClient(balance, gasPrice uint64) *fakeClient {
	return &fakeClient{
		balance:  uint256.NewInt(balance),
		gasPrice: uint256.NewInt(gasPrice),
		chainID:  big.NewInt(421614),
		calls:    make(map[string]int),
		receipts: make(map[common.Hash]*chain.Receipt),
	}
}

func (f *fakeClient) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
}

func (f *fakeClient) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeClient) Balance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	f.record("Balance")
	return f.balance.Clone(), nil
}

func (f *fakeClient) GasPrice(ctx context.Context) (*uint256.Int, error) {
	f.record("GasPrice")
	if f.blockGasPrice {
		<-ctx.Done()
		return nil, errno.FromContext(ctx.Err(), "eth_gasPrice")
	}
	return f.gasPrice.Clone(), nil
}

func (f *fakeClient) ChainID(ctx context.Context) (*big.Int, error) {
	f.record("ChainID")
	return new(big.Int).Set(f.chainID), nil
}

// PendingNonce counts transactions already accepted, like a node's pending pool.
func (f *fakeClient) PendingNonce(ctx context.Context, addr common.Address) (uint64, error) {
	f.record("PendingNonce")
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.sent)), nil
}

func (f *fakeClient) SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error {
	f.record("SendTransaction")
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	f.receipts[tx.Hash()] = &chain.Receipt{
		TxHash:      tx.Hash(),
		BlockNumber: 1000 + uint64(len(f.sent)),
		GasUsed:     tx.Gas(),
		Status:      ethtypes.ReceiptStatusSuccessful,
	}
	return nil
}

func (f *fakeClient) Receipt(ctx context.Context, hash common.Hash) (*chain.Receipt, error) {
	f.record("Receipt")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	if f.receiptAfter < 0 || f.lookups <= f.receiptAfter {
		return nil, nil
	}
	return f.receipts[hash], nil
}

func (f *fakeClient) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	f.record("Call")
	return nil, nil
}

func (f *fakeClient) BlockNumber(ctx context.Context) (uint64, error) {
	f.record("BlockNumber")
	return 1000, nil
}

func (f *fakeClient) Close() {}

// countingSigner wraps a real key and counts signatures.
type countingSigner struct {
	*credential.KeySigner
	mu    sync.Mutex
	signs int
}

func (s *countingSigner) SignTx(tx *ethtypes.Transaction, chainID *big.Int) (*ethtypes.Transaction, error) {
	s.mu.Lock()
	s.signs++
	s.mu.Unlock()
	return s.KeySigner.SignTx(tx, chainID)
}

func (s *countingSigner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signs
}

const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func newSigner() *countingSigner {
	k, err := credential.FromHex(testKey)
	if err != nil {
		panic(err)
	}
	return &countingSigner{KeySigner: k}
}
