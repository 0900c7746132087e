package repository

import (
	"context"
	"time"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error)
	CreateWithEvent(ctx context.Context, order *models.Order, event *models.OrderEvent) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads the order with its item snapshots.
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindAll retrieves orders with pagination, newest first.
func (r *GormOrderRepository) FindAll(ctx context.Context, filter models.OrderFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.FarmID != nil {
		query = query.Where("farm_id = ?", *filter.FarmID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Offset(offset).
		Limit(filter.Limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// CreateWithEvent persists the order, its items and the creation event atomically.
func (r *GormOrderRepository) CreateWithEvent(ctx context.Context, order *models.Order, event *models.OrderEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		event.OrderID = order.ID
		return tx.Create(event).Error
	})
}

// UpdateStatus writes the status column only. There is no version check: the
// last writer wins when two actors race on the same order.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error {
	fields := map[string]interface{}{"status": status}
	now := time.Now()
	switch status {
	case models.StatusDelivered:
		fields["delivered_at"] = now
	case models.StatusCancelled:
		fields["cancelled_at"] = now
	}

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
