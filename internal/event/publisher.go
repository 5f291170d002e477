package event

import (
	"context"
	"encoding/json"
	"time"

	"arb-client/internal/service/mq"
	"arb-client/internal/transfer"

	"go.uber.org/zap"
)

// Publisher forwards transfer events to a message queue. Publishing is best
// effort: a broker outage is logged and never fails the transfer. It holds no
// per-attempt state, so concurrent transfers may share one Publisher.
type Publisher struct {
	producer mq.Producer
	topic    string
	timeout  time.Duration
	log      *zap.Logger
}

func NewPublisher(producer mq.Producer, topic string, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		timeout:  3 * time.Second,
		log:      log,
	}
}

func (p *Publisher) OnEvent(ctx context.Context, ev transfer.Event) {
	msg := fromTransfer(ev)

	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Warn("encode transfer event", zap.Error(err))
		return
	}

	// 广播后 ctx 可能很快结束, 发布用独立超时
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.producer.Publish(pctx, p.topic, msg.From, payload); err != nil {
		p.log.Warn("publish transfer event",
			zap.String("state", msg.State),
			zap.String("attempt_id", msg.AttemptID),
			zap.Error(err))
	}
}

// LogObserver writes every transition to a zap logger.
type LogObserver struct {
	log *zap.Logger
}

func NewLogObserver(log *zap.Logger) *LogObserver {
	return &LogObserver{log: log}
}

func (o *LogObserver) OnEvent(_ context.Context, ev transfer.Event) {
	fields := make([]zap.Field, 0, len(ev.Fields)+2)
	fields = append(fields, zap.String("state", ev.Name), zap.String("attempt_id", ev.Attempt))
	for k, v := range ev.Fields {
		fields = append(fields, zap.String(k, v))
	}
	if ev.State == transfer.StateFailed {
		o.log.Warn("transfer state", fields...)
		return
	}
	o.log.Debug("transfer state", fields...)
}
