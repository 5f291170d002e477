package transfer

import (
	"context"
	"time"
)

// State is a step of a transfer attempt. States only move forward.
type State int

const (
	StateStart State = iota
	StateCredentialLoaded
	StateRecipientValidated
	StateBalanceFetched
	StateAmountParsed
	StateGasPriceFetched
	StateFeeComputed
	StateFundsValidated
	StateChainIDFetched
	StateNonceFetched
	StateTransactionBuilt
	StateSigned
	StateBroadcast
	StateAwaitingReceipt
	StateConfirmed
	StateUnconfirmed
	StateFailed
)

var stateNames = [...]string{
	StateStart:              "start",
	StateCredentialLoaded:   "credential_loaded",
	StateRecipientValidated: "recipient_validated",
	StateBalanceFetched:     "balance_fetched",
	StateAmountParsed:       "amount_parsed",
	StateGasPriceFetched:    "gas_price_fetched",
	StateFeeComputed:        "fee_computed",
	StateFundsValidated:     "funds_validated",
	StateChainIDFetched:     "chain_id_fetched",
	StateNonceFetched:       "nonce_fetched",
	StateTransactionBuilt:   "transaction_built",
	StateSigned:             "signed",
	StateBroadcast:          "broadcast",
	StateAwaitingReceipt:    "awaiting_receipt",
	StateConfirmed:          "confirmed",
	StateUnconfirmed:        "unconfirmed",
	StateFailed:             "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateUnconfirmed || s == StateFailed
}

// Event field keys. Values are plain strings so events serialize as-is.
const (
	FieldFrom        = "from"
	FieldTo          = "to"
	FieldBalance     = "balance_wei"
	FieldAmount      = "amount_wei"
	FieldGasPrice    = "gas_price_wei"
	FieldGasLimit    = "gas_limit"
	FieldFee         = "fee_wei"
	FieldRequired    = "required_wei"
	FieldChainID     = "chain_id"
	FieldNonce       = "nonce"
	FieldTxHash      = "tx_hash"
	FieldRawTx       = "raw_tx"
	FieldBlockNumber = "block_number"
	FieldGasUsed     = "gas_used"
	FieldStatus      = "status"
	FieldFailedAt    = "failed_at"
	FieldError       = "error"
	FieldErrorCode   = "error_code"
)

// Event is emitted on every state transition. It never carries key material.
// Attempt is the same for every event of one Transfer call; From is set once
// the credential is loaded.
type Event struct {
	State   State             `json:"-"`
	Name    string            `json:"state"`
	Attempt string            `json:"attempt_id"`
	From    string            `json:"from,omitempty"`
	Time    time.Time         `json:"time"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Observer receives transfer events in order. It must not block for long:
// the orchestrator calls it inline.
type Observer interface {
	OnEvent(ctx context.Context, ev Event)
}

type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) OnEvent(ctx context.Context, ev Event) { f(ctx, ev) }

// Observers fans an event out to each observer in turn.
type Observers []Observer

func (os Observers) OnEvent(ctx context.Context, ev Event) {
	for _, o := range os {
		if o != nil {
			o.OnEvent(ctx, ev)
		}
	}
}

type nopObserver struct{}

func (nopObserver) OnEvent(context.Context, Event) {}
