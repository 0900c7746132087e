package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arturocano02/FarmDirect-sub000/kafka"
	"github.com/arturocano02/FarmDirect-sub000/models"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"go.uber.org/zap"
)

// Lifecycle event types published to subscribers.
const (
	EventTypeOrderCreated  = "order.created"
	EventTypeStatusChanged = "order.status_changed"
	EventTypeNoteAdded     = "order.note_added"
)

type EventPublisher interface {
	Publish(ctx context.Context, evt models.OrderStatusChangedEvent) error
}

// LifecyclePublisher fans lifecycle events out to SNS and Kafka. Either sink
// may be absent.
type LifecyclePublisher struct {
	sns      awspkg.SNSPublisher
	topicArn string
	producer kafka.ProducerAPI
	logger   *zap.Logger
}

func NewLifecyclePublisher(sns awspkg.SNSPublisher, topicArn string, producer kafka.ProducerAPI, logger *zap.Logger) *LifecyclePublisher {
	return &LifecyclePublisher{sns: sns, topicArn: topicArn, producer: producer, logger: logger}
}

func (p *LifecyclePublisher) Publish(ctx context.Context, evt models.OrderStatusChangedEvent) error {
	var errs []error

	if p.sns != nil && p.topicArn != "" {
		body, err := json.Marshal(evt)
		if err != nil {
			return err
		}
		if err := p.sns.Publish(ctx, p.topicArn, evt.EventType, body); err != nil {
			errs = append(errs, fmt.Errorf("sns: %w", err))
		}
	}
	if p.producer != nil {
		if err := p.producer.PublishStatusChanged(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		p.logger.Warn("Lifecycle event publish failed",
			zap.String("order_id", evt.OrderID.String()),
			zap.String("event_type", evt.EventType),
			zap.Error(err))
		return err
	}
	return nil
}

func lifecycleEvent(eventType string, order *models.Order, previous *models.OrderStatus, actor Actor, note string) models.OrderStatusChangedEvent {
	return models.OrderStatusChangedEvent{
		EventType:      eventType,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		FarmID:         order.FarmID,
		CustomerID:     order.CustomerID,
		PreviousStatus: previous,
		Status:         order.Status,
		ActorRole:      actor.Role,
		ActorUserID:    actor.UserIDPtr(),
		Note:           note,
		Timestamp:      order.UpdatedAt,
	}
}
