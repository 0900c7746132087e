package services

import (
	"context"
	"errors"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is an authenticated identity with its resolved role. UserID is nil for
// the system actor.
type Actor struct {
	UserID uuid.UUID
	Email  string
	Role   models.Role
}

// SystemActor attributes transitions driven by automated jobs.
var SystemActor = Actor{Role: models.RoleSystem}

// UserIDPtr returns nil for actors without a user, for nullable columns.
func (a Actor) UserIDPtr() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

type DenyReason string

const (
	DenyNotFound  DenyReason = "NOT_FOUND"
	DenyForbidden DenyReason = "FORBIDDEN"
)

type Permission struct {
	Permitted bool
	Reason    DenyReason
}

// ErrNoOwnedFarm is returned by OwnedFarm for farm users without a farm.
var ErrNoOwnedFarm = errors.New("actor does not own a farm")

type AuthorizationGate struct {
	farms repository.FarmRepository
}

func NewAuthorizationGate(farms repository.FarmRepository) *AuthorizationGate {
	return &AuthorizationGate{farms: farms}
}

// Authorize decides whether actor may act on order. A farm actor looking at
// another farm's order gets NOT_FOUND so the order's existence is not
// confirmed. The error return is reserved for store failures.
func (g *AuthorizationGate) Authorize(ctx context.Context, actor Actor, order *models.Order) (Permission, error) {
	switch actor.Role {
	case models.RoleAdmin, models.RoleSystem:
		return Permission{Permitted: true}, nil
	case models.RoleFarm:
		farm, err := g.OwnedFarm(ctx, actor)
		if errors.Is(err, ErrNoOwnedFarm) {
			return Permission{Reason: DenyForbidden}, nil
		}
		if err != nil {
			return Permission{}, err
		}
		if farm.ID != order.FarmID {
			return Permission{Reason: DenyNotFound}, nil
		}
		return Permission{Permitted: true}, nil
	default:
		return Permission{Reason: DenyForbidden}, nil
	}
}

// OwnedFarm resolves the farm whose owner is actor.
func (g *AuthorizationGate) OwnedFarm(ctx context.Context, actor Actor) (*models.Farm, error) {
	if actor.UserID == uuid.Nil {
		return nil, ErrNoOwnedFarm
	}
	farm, err := g.farms.FindByOwnerUserID(ctx, actor.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoOwnedFarm
	}
	if err != nil {
		return nil, err
	}
	return farm, nil
}

// permissionError maps a denial onto the response the caller should see.
func permissionError(p Permission) *ServiceError {
	if p.Reason == DenyNotFound {
		return notFound("Order not found")
	}
	return forbidden("You do not have access to this order")
}
