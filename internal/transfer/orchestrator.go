package transfer

import (
	"context"
	"errors"
	"strconv"
	"time"

	"arb-client/internal/chain"
	"arb-client/internal/credential"
	"arb-client/pkg/address"
	"arb-client/pkg/errno"
	"arb-client/pkg/monitor"
	"arb-client/pkg/safe_random"
	"arb-client/pkg/units"
	"arb-client/pkg/wallet/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

type Outcome string

const (
	OutcomeConfirmed   Outcome = "confirmed"
	OutcomeUnconfirmed Outcome = "unconfirmed"
	OutcomeFailed      Outcome = "failed"
)

// Request describes one native transfer.
type Request struct {
	To     string
	Amount string
	Unit   units.Unit // empty means ether
	Class  Class      // empty means ClassTransfer
	// GasLimit overrides the class limit when non-zero.
	GasLimit uint64
}

// Result is returned for every attempt, including failed ones.
// After a successful broadcast TxHash is always set.
type Result struct {
	Outcome  Outcome
	State    State
	FailedAt State
	From     common.Address
	To       common.Address
	Amount   *uint256.Int
	Balance  *uint256.Int
	GasPrice *uint256.Int
	GasLimit uint64
	Fee      *uint256.Int
	ChainID  uint64
	Nonce    uint64
	TxHash   common.Hash
	RawTx    string // 0x 开头的已签名 RLP 编码, 签名后即设置
	Receipt  *chain.Receipt
	// PollErr explains an Unconfirmed outcome: the last receipt lookup error,
	// or a timeout error when the node simply never returned a receipt.
	PollErr error
}

// Broadcasted reports whether the transaction reached the node.
func (r *Result) Broadcasted() bool {
	return r.TxHash != (common.Hash{})
}

type Option func(*Orchestrator)

func WithGasPolicy(p GasPolicy) Option {
	return func(o *Orchestrator) { o.policy = p }
}

// WithFeeBuffer adds percent to the estimated fee for the balance check only.
func WithFeeBuffer(percent uint64) Option {
	return func(o *Orchestrator) { o.feeBuffer = percent }
}

// WithConfirmation sets how long and how often to poll for the receipt.
func WithConfirmation(timeout, interval time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.confirmTimeout = timeout
		}
		if interval > 0 {
			o.pollInterval = interval
		}
	}
}

// WithStepTimeout bounds every single RPC call. Zero leaves only the caller's ctx.
func WithStepTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stepTimeout = d }
}

func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

func WithNonceManager(m *NonceManager) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.nonces = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func withMetrics(m *monitor.BusinessMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// Orchestrator runs the transfer workflow: price the fee, check the balance,
// build, sign, broadcast and wait for the receipt.
type Orchestrator struct {
	client         chain.Client
	fees           *FeeEstimator
	policy         GasPolicy
	feeBuffer      uint64
	confirmTimeout time.Duration
	pollInterval   time.Duration
	stepTimeout    time.Duration
	observer       Observer
	nonces         *NonceManager
	log            *zap.Logger
	metrics        *monitor.BusinessMetrics
	now            func() time.Time
}

const (
	DefaultConfirmTimeout = 2 * time.Minute
	DefaultPollInterval   = 2 * time.Second
)

func NewOrchestrator(client chain.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:         client,
		fees:           NewFeeEstimator(client),
		policy:         DefaultGasPolicy(),
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
		observer:       nopObserver{},
		log:            zap.NewNop(),
		metrics:        monitor.Business,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.nonces == nil {
		o.nonces = NewNonceManager(nil, 0)
	}
	return o
}

// attempt carries the mutable bookkeeping of one Transfer call.
type attempt struct {
	o     *Orchestrator
	ctx   context.Context
	id    string
	res   *Result
	state State
}

func (a *attempt) emit(state State, fields map[string]string) {
	a.state = state
	a.res.State = state
	var from string
	if a.res.From != (common.Address{}) {
		from = a.res.From.Hex()
	}
	a.o.observer.OnEvent(a.ctx, Event{
		State:   state,
		Name:    state.String(),
		Attempt: a.id,
		From:    from,
		Time:    a.o.now(),
		Fields:  fields,
	})
}

func (a *attempt) fail(err error) (*Result, error) {
	a.res.Outcome = OutcomeFailed
	a.res.FailedAt = a.state
	code, _ := errno.Decode(err)
	a.emit(StateFailed, map[string]string{
		FieldFailedAt:  a.res.FailedAt.String(),
		FieldError:     err.Error(),
		FieldErrorCode: strconv.Itoa(code),
	})
	a.o.log.Warn("transfer failed",
		zap.String("failed_at", a.res.FailedAt.String()),
		zap.String("from", a.res.From.Hex()),
		zap.Error(err))
	a.o.metrics.TransferTotal.WithLabelValues(string(OutcomeFailed)).Inc()
	return a.res, err
}

// step bounds one RPC call by the step timeout.
func (o *Orchestrator) step(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.stepTimeout > 0 {
		return context.WithTimeout(ctx, o.stepTimeout)
	}
	return context.WithCancel(ctx)
}

// Transfer runs one attempt. It returns a non-nil error iff the outcome is
// OutcomeFailed. The signer is used exactly once and never logged.
func (o *Orchestrator) Transfer(ctx context.Context, signer credential.Signer, req Request) (*Result, error) {
	a := &attempt{o: o, ctx: ctx, id: safe_random.ID(), res: &Result{}}
	a.emit(StateStart, nil)

	if signer == nil {
		return a.fail(errno.New(errno.ErrConfiguration, "no signing credential"))
	}
	from := signer.Address()
	a.res.From = from
	a.emit(StateCredentialLoaded, map[string]string{FieldFrom: from.Hex()})

	to, err := address.Parse(req.To)
	if err != nil {
		return a.fail(err)
	}
	a.res.To = to
	a.emit(StateRecipientValidated, map[string]string{FieldTo: to.Hex()})

	sctx, cancel := o.step(ctx)
	balance, err := o.client.Balance(sctx, from)
	cancel()
	if err != nil {
		return a.fail(err)
	}
	a.res.Balance = balance
	a.emit(StateBalanceFetched, map[string]string{FieldFrom: from.Hex(), FieldBalance: balance.Dec()})

	amount, err := units.Parse(req.Amount, req.Unit)
	if err != nil {
		return a.fail(err)
	}
	a.res.Amount = amount
	a.emit(StateAmountParsed, map[string]string{FieldAmount: amount.Dec()})

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		if gasLimit, err = o.policy.Limit(req.Class); err != nil {
			return a.fail(err)
		}
	}

	sctx, cancel = o.step(ctx)
	estimate, err := o.fees.Estimate(sctx, gasLimit)
	cancel()
	if err != nil {
		return a.fail(err)
	}
	a.res.GasPrice = estimate.GasPrice
	a.emit(StateGasPriceFetched, map[string]string{FieldGasPrice: estimate.GasPrice.Dec()})
	a.res.GasLimit = estimate.GasLimit
	a.res.Fee = estimate.Fee
	a.emit(StateFeeComputed, map[string]string{
		FieldGasPrice: estimate.GasPrice.Dec(),
		FieldGasLimit: strconv.FormatUint(estimate.GasLimit, 10),
		FieldFee:      estimate.Fee.Dec(),
	})

	checkedFee, err := WithBuffer(estimate.Fee, o.feeBuffer)
	if err != nil {
		return a.fail(err)
	}
	if err := ValidateSufficient(balance, amount, checkedFee); err != nil {
		return a.fail(err)
	}
	required := new(uint256.Int).Add(amount, checkedFee)
	a.emit(StateFundsValidated, map[string]string{
		FieldBalance:  balance.Dec(),
		FieldRequired: required.Dec(),
	})

	sctx, cancel = o.step(ctx)
	chainID, err := o.client.ChainID(sctx)
	cancel()
	if err != nil {
		return a.fail(err)
	}
	if !chainID.IsUint64() {
		return a.fail(errno.New(errno.ErrDecoding, "chain id %s out of range", chainID))
	}
	a.res.ChainID = chainID.Uint64()
	a.emit(StateChainIDFetched, map[string]string{FieldChainID: chainID.String()})

	sctx, cancel = o.step(ctx)
	nonce, release, err := o.nonces.Reserve(sctx, o.client, from)
	cancel()
	if err != nil {
		return a.fail(err)
	}
	// 广播返回 (成功或失败) 之前一直持有发送方的 nonce 锁
	released := false
	unlock := func() {
		if !released {
			released = true
			release()
		}
	}
	defer unlock()
	a.res.Nonce = nonce
	a.emit(StateNonceFetched, map[string]string{FieldNonce: strconv.FormatUint(nonce, 10)})

	utx, err := Build(to.Hex(), amount, estimate.GasLimit, estimate.GasPrice, chainID, nonce)
	if err != nil {
		return a.fail(err)
	}
	// 用最终交易的 value + gas 再校验一次余额
	if err := ValidateTransaction(balance, utx); err != nil {
		return a.fail(err)
	}
	a.emit(StateTransactionBuilt, map[string]string{
		FieldTo:       utx.To().Hex(),
		FieldAmount:   utx.Value().Dec(),
		FieldGasLimit: strconv.FormatUint(utx.GasLimit(), 10),
		FieldGasPrice: utx.GasPrice().Dec(),
		FieldChainID:  utx.ChainID().String(),
		FieldNonce:    strconv.FormatUint(utx.Nonce(), 10),
	})

	signed, err := signer.SignTx(utx.ToLegacyTx(), utx.ChainID())
	if err != nil {
		if errno.KindOf(err).Code != errno.ErrSigning.Code {
			err = errno.Wrap(errno.ErrSigning, err, "sign")
		}
		return a.fail(err)
	}
	dto, err := types.NewSignedTransaction(signed)
	if err != nil {
		return a.fail(errno.Wrap(errno.ErrSigning, err, "encode signed transaction"))
	}
	a.res.RawTx = dto.RawTx
	a.emit(StateSigned, map[string]string{FieldTxHash: dto.TxHash, FieldRawTx: dto.RawTx})

	sctx, cancel = o.step(ctx)
	err = o.client.SendTransaction(sctx, signed)
	cancel()
	unlock()
	if err != nil {
		return a.fail(err)
	}
	a.res.TxHash = signed.Hash()
	a.emit(StateBroadcast, map[string]string{FieldTxHash: a.res.TxHash.Hex()})
	o.log.Info("transaction broadcast",
		zap.String("tx_hash", a.res.TxHash.Hex()),
		zap.String("from", from.Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("nonce", nonce))

	return o.await(a)
}

// await polls for the receipt. Nothing here can turn the attempt into a failure:
// the transaction has already left.
func (o *Orchestrator) await(a *attempt) (*Result, error) {
	a.emit(StateAwaitingReceipt, map[string]string{FieldTxHash: a.res.TxHash.Hex()})

	pctx, cancel := context.WithTimeout(a.ctx, o.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		sctx, scancel := o.step(pctx)
		receipt, err := o.client.Receipt(sctx, a.res.TxHash)
		scancel()

		switch {
		case err != nil:
			lastErr = err
			o.log.Debug("receipt lookup failed", zap.String("tx_hash", a.res.TxHash.Hex()), zap.Error(err))
		case receipt != nil:
			a.res.Receipt = receipt
			a.res.Outcome = OutcomeConfirmed
			a.emit(StateConfirmed, map[string]string{
				FieldTxHash:      a.res.TxHash.Hex(),
				FieldBlockNumber: strconv.FormatUint(receipt.BlockNumber, 10),
				FieldGasUsed:     strconv.FormatUint(receipt.GasUsed, 10),
				FieldStatus:      strconv.FormatUint(receipt.Status, 10),
			})
			o.log.Info("transaction confirmed",
				zap.String("tx_hash", a.res.TxHash.Hex()),
				zap.Uint64("block", receipt.BlockNumber),
				zap.Uint64("status", receipt.Status))
			o.metrics.TransferTotal.WithLabelValues(string(OutcomeConfirmed)).Inc()
			return a.res, nil
		}

		select {
		case <-pctx.Done():
			return o.unconfirmed(a, pctx.Err(), lastErr)
		case <-ticker.C:
		}
	}
}

func (o *Orchestrator) unconfirmed(a *attempt, ctxErr, lastErr error) (*Result, error) {
	pollErr := lastErr
	if pollErr == nil || errors.Is(lastErr, errno.ErrTimeout) {
		pollErr = errno.Wrap(errno.ErrTimeout, ctxErr, "no receipt for %s within %s", a.res.TxHash.Hex(), o.confirmTimeout)
	}
	a.res.PollErr = pollErr
	a.res.Outcome = OutcomeUnconfirmed
	a.emit(StateUnconfirmed, map[string]string{
		FieldTxHash: a.res.TxHash.Hex(),
		FieldError:  pollErr.Error(),
	})
	o.log.Warn("transaction unconfirmed",
		zap.String("tx_hash", a.res.TxHash.Hex()),
		zap.Error(pollErr))
	o.metrics.TransferTotal.WithLabelValues(string(OutcomeUnconfirmed)).Inc()
	return a.res, nil
}
