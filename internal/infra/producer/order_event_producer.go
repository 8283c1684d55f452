package producer

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/domain/model"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

//go:generate mockgen -destination=mock/mock_writer.go -package=mock_producer github.com/RoyceAzure/lab/marketplace/internal/infra/producer Writer

var ErrProducerClosed = errors.New("producer is closed")

const eventTypeHeader = "event_type"

// Writer kafka.Writer 的最小介面, 測試時以 mock 取代
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// 以 user id 當 key, 同一個 user 的事件落在同一個 partition, 保持順序
// topic: 由 writer 創建時設置
type OrderEventProducer struct {
	writer Writer
	closed atomic.Bool
}

type Config struct {
	Brokers       []string
	Topic         string
	BatchTimeout  time.Duration
	RetryAttempts int
}

func NewKafkaWriter(cfg Config, logger *zerolog.Logger) *kafka.Writer {
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		MaxAttempts:            cfg.RetryAttempts,
		Transport: &kafka.Transport{
			Dial: func(ctx context.Context, network string, address string) (net.Conn, error) {
				dialer := &kafka.Dialer{
					Timeout:   10 * time.Second,
					DualStack: true,
					KeepAlive: 30 * time.Second,
				}
				return dialer.DialContext(ctx, network, address)
			},
		},
	}
	if logger != nil {
		writer.ErrorLogger = kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf("kafka producer error: "+msg, args...)
		})
	}
	return writer
}

func NewOrderEventProducer(writer Writer) *OrderEventProducer {
	if writer == nil {
		panic("NewOrderEventProducer: writer cannot be nil")
	}
	return &OrderEventProducer{writer: writer}
}

// PublishOrderEvent 同步發送, block 到 broker ack
func (p *OrderEventProducer) PublishOrderEvent(ctx context.Context, event model.OrderEvent) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	msg, err := convertToMessage(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func convertToMessage(event model.OrderEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(event.UserID.String()),
		Value: value,
		Headers: []kafka.Header{
			{
				Key:   eventTypeHeader,
				Value: []byte(event.EventType),
			},
		},
		Time: event.OccurredAt,
	}, nil
}

func (p *OrderEventProducer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	return p.writer.Close()
}

// NoopOrderEventPublisher 未設定 KAFKA_BROKERS 時使用
type NoopOrderEventPublisher struct{}

func (NoopOrderEventPublisher) PublishOrderEvent(ctx context.Context, event model.OrderEvent) error {
	return nil
}

func (NoopOrderEventPublisher) Close() error {
	return nil
}
