package repository

import (
	"context"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FarmRepository resolves farms for ownership checks and notification recipients.
type FarmRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Farm, error)
	FindByOwnerUserID(ctx context.Context, userID uuid.UUID) (*models.Farm, error)
}

type GormFarmRepository struct {
	db *gorm.DB
}

func NewGormFarmRepository(db *gorm.DB) FarmRepository {
	return &GormFarmRepository{db: db}
}

func (r *GormFarmRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Farm, error) {
	var farm models.Farm
	if err := r.db.WithContext(ctx).First(&farm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &farm, nil
}

func (r *GormFarmRepository) FindByOwnerUserID(ctx context.Context, userID uuid.UUID) (*models.Farm, error) {
	var farm models.Farm
	if err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", userID).
		First(&farm).Error; err != nil {
		return nil, err
	}
	return &farm, nil
}

// ProfileRepository reads profiles and persists role upgrades.
type ProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateRole(ctx context.Context, userID uuid.UUID, role models.Role) error
}

type GormProfileRepository struct {
	db *gorm.DB
}

func NewGormProfileRepository(db *gorm.DB) ProfileRepository {
	return &GormProfileRepository{db: db}
}

func (r *GormProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *GormProfileRepository) UpdateRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("user_id = ?", userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
