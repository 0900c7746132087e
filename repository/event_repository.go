package repository

import (
	"context"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventRepository is append-only: no update or delete methods exist.
type EventRepository interface {
	Append(ctx context.Context, event *models.OrderEvent) error
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error)
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) Append(ctx context.Context, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListByOrderID returns the audit trail oldest first.
func (r *GormEventRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]models.OrderEvent, error) {
	var events []models.OrderEvent
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
