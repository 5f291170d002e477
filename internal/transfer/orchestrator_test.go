package transfer

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"arb-client/pkg/errno"
	"arb-client/pkg/monitor"
	"arb-client/pkg/units"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recipient = "0x741CD80d41eDE318feD4010E296704a061f4115a"

// eventLog collects events for assertions.
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnEvent(_ context.Context, ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) states() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]State, 0, len(l.events))
	for _, ev := range l.events {
		out = append(out, ev.State)
	}
	return out
}

func (l *eventLog) find(state State) *Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.events {
		if l.events[i].State == state {
			return &l.events[i]
		}
	}
	return nil
}

// failingSigner returns err from every SignTx call.
type failingSigner struct {
	*countingSigner
	err error
}

func (s *failingSigner) SignTx(*ethtypes.Transaction, *big.Int) (*ethtypes.Transaction, error) {
	return nil, s.err
}

func fastConfirm() Option {
	return WithConfirmation(50*time.Millisecond, time.Millisecond)
}

func TestTransferInsufficientFundsNeverSigns(t *testing.T) {
	client := newFakeClient(10, 1)
	signer := newSigner()
	events := &eventLog{}
	o := NewOrchestrator(client, WithObserver(events), fastConfirm())

	res, err := o.Transfer(context.Background(), signer, Request{
		To:     recipient,
		Amount: "5",
		Unit:   units.Wei,
		Class:  ClassContract,
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrInsufficientFunds)

	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, uint64(300000), insufficient.Fee.Uint64())
	assert.Equal(t, uint64(300005), insufficient.Required.Uint64())
	assert.Equal(t, uint64(10), insufficient.Balance.Uint64())
	assert.Equal(t, uint64(299995), insufficient.Shortfall.Uint64())

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, StateFeeComputed, res.FailedAt)
	assert.False(t, res.Broadcasted())

	assert.Equal(t, 0, signer.count(), "nothing may be signed")
	assert.Equal(t, 0, client.count("SendTransaction"), "nothing may be broadcast")
	assert.Equal(t, 0, client.count("ChainID"))
	assert.Equal(t, 0, client.count("PendingNonce"))
	assert.Equal(t, StateFailed, events.states()[len(events.states())-1])
}

func TestTransferConfirmed(t *testing.T) {
	client := newFakeClient(1_000_000, 1)
	client.receiptAfter = 2
	signer := newSigner()
	events := &eventLog{}
	metrics := monitor.NewBusinessMetrics()
	o := NewOrchestrator(client, WithObserver(events), fastConfirm(), withMetrics(metrics))

	res, err := o.Transfer(context.Background(), signer, Request{
		To:     recipient,
		Amount: "100",
		Unit:   units.Wei,
	})
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, StateConfirmed, res.State)
	assert.Equal(t, signer.Address(), res.From)
	assert.Equal(t, common.HexToAddress(recipient), res.To)
	assert.Equal(t, uint64(100), res.Amount.Uint64())
	assert.Equal(t, uint64(21000), res.Fee.Uint64())
	assert.Equal(t, uint64(21000), res.GasLimit)
	assert.Equal(t, uint64(421614), res.ChainID)
	assert.Equal(t, uint64(0), res.Nonce)

	require.Len(t, client.sent, 1)
	sent := client.sent[0]
	assert.Equal(t, sent.Hash(), res.TxHash)
	require.NotNil(t, res.Receipt)
	assert.Equal(t, client.receipts[sent.Hash()], res.Receipt)
	assert.True(t, res.Receipt.Succeeded())
	assert.Equal(t, 3, client.count("Receipt"))

	assert.Equal(t, 1, signer.count())
	assert.Equal(t, 1, client.count("SendTransaction"))
	assert.Equal(t, uint64(100), sent.Value().Uint64())
	assert.Equal(t, uint64(21000), sent.Gas())
	assert.Equal(t, 0, sent.ChainId().Cmp(client.chainID))

	// 已签名交易的原始编码与广播的交易一致
	raw, err := sent.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(raw), res.RawTx)
	signedEv := events.find(StateSigned)
	require.NotNil(t, signedEv)
	assert.Equal(t, res.RawTx, signedEv.Fields[FieldRawTx])
	assert.Equal(t, sent.Hash().Hex(), signedEv.Fields[FieldTxHash])

	assert.Equal(t, []State{
		StateStart,
		StateCredentialLoaded,
		StateRecipientValidated,
		StateBalanceFetched,
		StateAmountParsed,
		StateGasPriceFetched,
		StateFeeComputed,
		StateFundsValidated,
		StateChainIDFetched,
		StateNonceFetched,
		StateTransactionBuilt,
		StateSigned,
		StateBroadcast,
		StateAwaitingReceipt,
		StateConfirmed,
	}, events.states())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TransferTotal.WithLabelValues("confirmed")))

	// 同一次尝试的事件共享 attempt id, 凭证加载后带上发送方
	attempt := events.events[0].Attempt
	assert.Len(t, attempt, 16)
	assert.Empty(t, events.events[0].From)
	for _, ev := range events.events[1:] {
		assert.Equal(t, attempt, ev.Attempt, ev.Name)
		assert.Equal(t, signer.Address().Hex(), ev.From, ev.Name)
	}
}

func TestTransferAttemptsGetDistinctIDs(t *testing.T) {
	events := &eventLog{}
	o := NewOrchestrator(newFakeClient(1_000_000, 1), WithObserver(events), fastConfirm())

	for i := 0; i < 2; i++ {
		_, err := o.Transfer(context.Background(), newSigner(), Request{To: recipient, Amount: "1", Unit: units.Wei})
		require.NoError(t, err)
	}

	starts := map[string]bool{}
	for _, ev := range events.events {
		if ev.State == StateStart {
			starts[ev.Attempt] = true
		}
	}
	assert.Len(t, starts, 2)
}

func TestTransferUnconfirmedIsNotFailure(t *testing.T) {
	client := newFakeClient(1_000_000, 1)
	client.receiptAfter = -1
	o := NewOrchestrator(client, WithConfirmation(30*time.Millisecond, 5*time.Millisecond))

	res, err := o.Transfer(context.Background(), newSigner(), Request{To: recipient, Amount: "100", Unit: units.Wei})
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnconfirmed, res.Outcome)
	assert.Equal(t, StateUnconfirmed, res.State)
	assert.True(t, res.Broadcasted(), "tx hash must survive a missing receipt")
	assert.Nil(t, res.Receipt)
	assert.ErrorIs(t, res.PollErr, errno.ErrTimeout)
	assert.GreaterOrEqual(t, client.count("Receipt"), 2)
}

func TestTransferUnconfirmedKeepsLookupError(t *testing.T) {
	client := newFakeClient(1_000_000, 1)
	client.receiptErr = errno.Wrap(errno.ErrNetwork, errors.New("connection refused"), "eth_getTransactionReceipt")
	o := NewOrchestrator(client, WithConfirmation(20*time.Millisecond, 5*time.Millisecond))

	res, err := o.Transfer(context.Background(), newSigner(), Request{To: recipient, Amount: "100", Unit: units.Wei})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnconfirmed, res.Outcome)
	assert.ErrorIs(t, res.PollErr, errno.ErrNetwork)
}

func TestTransferTimeoutBeforeBroadcastFails(t *testing.T) {
	client := newFakeClient(1_000_000, 1)
	client.blockGasPrice = true
	signer := newSigner()
	o := NewOrchestrator(client, WithStepTimeout(10*time.Millisecond))

	res, err := o.Transfer(context.Background(), signer, Request{To: recipient, Amount: "100", Unit: units.Wei})
	require.Error(t, err)
	assert.ErrorIs(t, err, errno.ErrTimeout)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, StateAmountParsed, res.FailedAt)
	assert.Equal(t, 0, signer.count())
	assert.Equal(t, 0, client.count("SendTransaction"))
}

func TestTransferInvalidInputsFailFast(t *testing.T) {
	tests := []struct {
		name     string
		req      Request
		kind     errno.Errno
		failedAt State
		balance  int
	}{
		{"short recipient", Request{To: "0x741CD80d41eDE318feD4010E296704a061f4115", Amount: "1"}, errno.ErrInvalidAddress, StateCredentialLoaded, 0},
		{"negative amount", Request{To: recipient, Amount: "-1"}, errno.ErrInvalidAmount, StateBalanceFetched, 1},
		{"garbage amount", Request{To: recipient, Amount: "one"}, errno.ErrInvalidAmount, StateBalanceFetched, 1},
		{"unknown class", Request{To: recipient, Amount: "0", Class: "swap"}, errno.ErrConfiguration, StateAmountParsed, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient(1_000_000, 1)
			signer := newSigner()
			res, err := NewOrchestrator(client).Transfer(context.Background(), signer, tt.req)

			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, OutcomeFailed, res.Outcome)
			assert.Equal(t, tt.failedAt, res.FailedAt)
			assert.Equal(t, tt.balance, client.count("Balance"))
			assert.Equal(t, 0, signer.count())
			assert.Equal(t, 0, client.count("SendTransaction"))
		})
	}
}

func TestTransferWithoutSigner(t *testing.T) {
	client := newFakeClient(1_000_000, 1)
	res, err := NewOrchestrator(client).Transfer(context.Background(), nil, Request{To: recipient, Amount: "1"})
	assert.ErrorIs(t, err, errno.ErrConfiguration)
	assert.Equal(t, StateStart, res.FailedAt)
	assert.Equal(t, 0, client.count("Balance"))
}

func TestTransferSigningFailure(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "already tagged",
			err:     errno.Wrap(errno.ErrSigning, errors.New("hsm offline"), "sign transaction"),
			wantMsg: "signing error: sign transaction: hsm offline",
		},
		{
			name:    "plain error",
			err:     errors.New("hsm offline"),
			wantMsg: "signing error: sign: hsm offline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient(1_000_000, 1)
			signer := &failingSigner{countingSigner: newSigner(), err: tt.err}

			res, err := NewOrchestrator(client).Transfer(context.Background(), signer, Request{To: recipient, Amount: "100", Unit: units.Wei})
			require.Error(t, err)
			assert.ErrorIs(t, err, errno.ErrSigning)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, StateTransactionBuilt, res.FailedAt)
			assert.Empty(t, res.RawTx)
			assert.Equal(t, 0, client.count("SendTransaction"))
		})
	}
}

func TestTransferBroadcastRejected(t *testing.T) {
	client := newFakeClient(1_000_000, 1)
	client.sendErr = errno.Wrap(errno.ErrNetwork, errors.New("nonce too low"), "eth_sendRawTransaction")
	o := NewOrchestrator(client, fastConfirm())

	res, err := o.Transfer(context.Background(), newSigner(), Request{To: recipient, Amount: "100", Unit: units.Wei})
	assert.ErrorIs(t, err, errno.ErrNetwork)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, StateSigned, res.FailedAt)
	assert.False(t, res.Broadcasted())
	assert.Equal(t, 0, client.count("Receipt"))

	// 锁已释放, 下一次尝试不会卡在 nonce 上
	client.sendErr = nil
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err = o.Transfer(ctx, newSigner(), Request{To: recipient, Amount: "100", Unit: units.Wei})
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
}

func TestTransferFeeBuffer(t *testing.T) {
	// balance 恰好等于 amount + fee
	client := newFakeClient(21100, 1)
	_, err := NewOrchestrator(client, fastConfirm()).Transfer(context.Background(), newSigner(),
		Request{To: recipient, Amount: "100", Unit: units.Wei})
	require.NoError(t, err)

	client = newFakeClient(21100, 1)
	res, err := NewOrchestrator(client, WithFeeBuffer(10)).Transfer(context.Background(), newSigner(),
		Request{To: recipient, Amount: "100", Unit: units.Wei})
	assert.ErrorIs(t, err, errno.ErrInsufficientFunds)
	assert.Equal(t, uint64(21000), res.Fee.Uint64(), "reported fee stays unbuffered")
	assert.Equal(t, 0, client.count("SendTransaction"))
}

func TestTransferGasLimitOverride(t *testing.T) {
	client := newFakeClient(1_000_000, 2)
	res, err := NewOrchestrator(client, fastConfirm(), WithGasPolicy(GasPolicy{TransferLimit: 30000, ContractLimit: 1})).
		Transfer(context.Background(), newSigner(), Request{To: recipient, Amount: "0", GasLimit: 25000})
	require.NoError(t, err)
	assert.Equal(t, uint64(25000), res.GasLimit)
	assert.Equal(t, uint64(50000), res.Fee.Uint64())
	assert.Equal(t, uint64(25000), client.sent[0].Gas())
}

func TestConcurrentTransfersGetDistinctNonces(t *testing.T) {
	client := newFakeClient(1_000_000_000, 1)
	o := NewOrchestrator(client, fastConfirm())

	const n = 5
	var wg sync.WaitGroup
	results := make([]*Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			res, err := o.Transfer(ctx, newSigner(), Request{To: recipient, Amount: "1", Unit: units.Wei})
			if err != nil {
				t.Error(err)
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool)
	for _, res := range results {
		require.NotNil(t, res)
		assert.False(t, seen[res.Nonce], "nonce %d reused", res.Nonce)
		seen[res.Nonce] = true
	}
	assert.Len(t, client.sent, n)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "start", StateStart.String())
	assert.Equal(t, "nonce_fetched", StateNonceFetched.String())
	assert.Equal(t, "failed", StateFailed.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.True(t, StateUnconfirmed.Terminal())
	assert.False(t, StateBroadcast.Terminal())
}
