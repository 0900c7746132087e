package repository

import (
	"context"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Create(ctx context.Context, entry *models.NotificationOutbox) error
	Update(ctx context.Context, entry *models.NotificationOutbox) error
	FindPending(ctx context.Context, channels []string, limit int) ([]models.NotificationOutbox, error)
	List(ctx context.Context, filter models.OutboxFilter) ([]models.NotificationOutbox, int64, error)
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Create(ctx context.Context, entry *models.NotificationOutbox) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *outboxRepository) Update(ctx context.Context, entry *models.NotificationOutbox) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

// FindPending returns the oldest pending entries on the given channels first.
func (r *outboxRepository) FindPending(ctx context.Context, channels []string, limit int) ([]models.NotificationOutbox, error) {
	var entries []models.NotificationOutbox
	if len(channels) == 0 {
		return entries, nil
	}
	err := r.db.WithContext(ctx).
		Where("status = ? AND channel IN ?", models.OutboxPending, channels).
		Order("created_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *outboxRepository) List(ctx context.Context, filter models.OutboxFilter) ([]models.NotificationOutbox, int64, error) {
	var entries []models.NotificationOutbox
	var total int64

	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	query := r.db.WithContext(ctx).Model(&models.NotificationOutbox{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Order("created_at DESC").
		Limit(filter.PageSize).
		Offset(offset).
		Find(&entries).Error

	return entries, total, err
}
