package event

import (
	"time"

	"arb-client/internal/transfer"
)

// TransferEvent is the wire form of a transfer state transition.
// Topic: arb_transfer_events (events.topic)
type TransferEvent struct {
	AttemptID string            `json:"attempt_id"`
	State     string            `json:"state"`
	Time      time.Time         `json:"time"`
	From      string            `json:"from,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

func fromTransfer(ev transfer.Event) TransferEvent {
	return TransferEvent{
		AttemptID: ev.Attempt,
		State:     ev.Name,
		Time:      ev.Time.UTC(),
		From:      ev.From,
		Fields:    ev.Fields,
	}
}
