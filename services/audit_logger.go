package services

import (
	"context"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEntry is one attributed status change or annotation.
type AuditEntry struct {
	OrderID     uuid.UUID
	From        *models.OrderStatus
	To          models.OrderStatus
	ActorUserID *uuid.UUID
	ActorRole   models.Role
	Note        string
}

// DefaultNote is used when the actor supplied none.
func DefaultNote(to models.OrderStatus) string {
	return "Status changed to " + to.Label()
}

type AuditLogger struct {
	events repository.EventRepository
	logger *zap.Logger
}

func NewAuditLogger(events repository.EventRepository, logger *zap.Logger) *AuditLogger {
	return &AuditLogger{events: events, logger: logger}
}

// Append writes the entry and returns the new event id. Callers treat failure
// as non-fatal once the status write has committed.
func (a *AuditLogger) Append(ctx context.Context, entry AuditEntry) (uuid.UUID, error) {
	eventType := models.EventStatusChanged
	if entry.From != nil && *entry.From == entry.To {
		eventType = models.EventNoteAdded
	}
	note := entry.Note
	if note == "" {
		note = DefaultNote(entry.To)
	}

	event := &models.OrderEvent{
		OrderID:     entry.OrderID,
		EventType:   eventType,
		StatusFrom:  entry.From,
		StatusTo:    entry.To,
		ActorUserID: entry.ActorUserID,
		ActorRole:   entry.ActorRole,
		Note:        note,
	}
	if err := a.events.Append(ctx, event); err != nil {
		a.logger.Error("Failed to append order event",
			zap.String("order_id", entry.OrderID.String()),
			zap.String("status_to", entry.To.String()),
			zap.String("actor_role", entry.ActorRole.String()),
			zap.Error(err))
		return uuid.Nil, err
	}
	return event.ID, nil
}
