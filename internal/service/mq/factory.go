package mq

import (
	"context"
	"strings"

	"arb-client/pkg/config"
	"arb-client/pkg/database"
	"arb-client/pkg/errno"
)

const (
	SinkNone  = "none"
	SinkKafka = "kafka"
	SinkRedis = "redis"
)

// streamMaxLen 限制 Redis Stream 的长度, 事件只用于观察, 不做持久历史
const streamMaxLen = 10000

// NewProducer builds the producer selected by events.sink. The none sink
// returns a nil Producer and no error.
func NewProducer(ctx context.Context, cfg *config.Config) (Producer, error) {
	switch strings.ToLower(cfg.Events.Sink) {
	case "", SinkNone:
		return nil, nil
	case SinkKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, errno.New(errno.ErrConfiguration, "events.sink=kafka needs kafka.brokers")
		}
		return NewKafkaProducer(cfg.Kafka.Brokers, cfg.Events.Topic), nil
	case SinkRedis:
		rdb, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisProducer(rdb, streamMaxLen), nil
	default:
		return nil, errno.New(errno.ErrConfiguration, "unknown events.sink %q", cfg.Events.Sink)
	}
}

// NewConsumer builds the consumer matching events.sink.
func NewConsumer(ctx context.Context, cfg *config.Config, group, name string) (Consumer, error) {
	switch strings.ToLower(cfg.Events.Sink) {
	case SinkKafka:
		if len(cfg.Kafka.Brokers) == 0 {
			return nil, errno.New(errno.ErrConfiguration, "events.sink=kafka needs kafka.brokers")
		}
		return NewKafkaConsumer(cfg.Kafka.Brokers, group), nil
	case SinkRedis:
		rdb, err := database.ConnectRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisConsumer(rdb, group, name), nil
	default:
		return nil, errno.New(errno.ErrConfiguration, "events.sink %q has nothing to consume", cfg.Events.Sink)
	}
}
