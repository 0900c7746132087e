package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ProducerAPI is what the lifecycle publisher needs from Kafka.
type ProducerAPI interface {
	PublishStatusChanged(ctx context.Context, evt models.OrderStatusChangedEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: 10 * time.Second,
	}
	logger.Info("Kafka producer initialized", zap.String("topic", topic), zap.Strings("brokers", brokers))
	return &Producer{writer: w, topic: topic, logger: logger}
}

// PublishStatusChanged keys messages by order id so one order's events stay on
// one partition, in order.
func (p *Producer) PublishStatusChanged(ctx context.Context, evt models.OrderStatusChangedEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(evt.OrderID.String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(evt.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Kafka publish failed",
			zap.String("topic", p.topic),
			zap.String("order_id", evt.OrderID.String()),
			zap.Error(err))
		return err
	}
	p.logger.Debug("Kafka event published",
		zap.String("topic", p.topic),
		zap.String("order_id", evt.OrderID.String()),
		zap.String("status", evt.Status.String()))
	return nil
}

func (p *Producer) Close() error {
	p.logger.Info("Closing Kafka writer", zap.String("topic", p.topic))
	return p.writer.Close()
}
