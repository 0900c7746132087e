package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arturocano02/FarmDirect-sub000/models"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UpdateStatusCommand struct {
	Actor   Actor
	OrderID uuid.UUID
	Status  string
	Note    string
}

// SecondaryStage names a best-effort step that runs after the status write.
type SecondaryStage string

const (
	StageAudit        SecondaryStage = "audit"
	StageNotification SecondaryStage = "notification"
	StagePublish      SecondaryStage = "publish"
)

type SecondaryFailure struct {
	Stage SecondaryStage
	Err   error
}

// TransitionResult is returned whenever the primary write succeeded, even if
// secondary steps failed.
type TransitionResult struct {
	Order             *models.Order
	PreviousStatus    models.OrderStatus
	StatusChanged     bool
	EventID           uuid.UUID
	SecondaryFailures []SecondaryFailure
}

func (r *TransitionResult) addFailure(stage SecondaryStage, err error) {
	r.SecondaryFailures = append(r.SecondaryFailures, SecondaryFailure{Stage: stage, Err: err})
}

type OrderStatusService struct {
	orders        repository.OrderRepository
	gate          *AuthorizationGate
	audit         *AuditLogger
	notifier      Notifier
	publisher     EventPublisher
	metrics       *awspkg.MetricsClient
	notifyTimeout time.Duration
	logger        *zap.Logger
}

func NewOrderStatusService(
	orders repository.OrderRepository,
	gate *AuthorizationGate,
	audit *AuditLogger,
	notifier Notifier,
	publisher EventPublisher,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) *OrderStatusService {
	return &OrderStatusService{
		orders:        orders,
		gate:          gate,
		audit:         audit,
		notifier:      notifier,
		publisher:     publisher,
		metrics:       metrics,
		notifyTimeout: 20 * time.Second,
		logger:        logger,
	}
}

// loadAuthorized fetches the order and runs the authorization gate.
func (s *OrderStatusService) loadAuthorized(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		s.logger.Error("Failed to load order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internal("Failed to load order", err)
	}

	perm, err := s.gate.Authorize(ctx, actor, order)
	if err != nil {
		s.logger.Error("Authorization lookup failed", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internal("Failed to authorize request", err)
	}
	if !perm.Permitted {
		return nil, permissionError(perm)
	}
	return order, nil
}

// UpdateStatus validates and applies a transition. Once the status write
// succeeds the call reports success; audit, publish and notification problems
// are returned as SecondaryFailures.
func (s *OrderStatusService) UpdateStatus(ctx context.Context, cmd UpdateStatusCommand) (*TransitionResult, *ServiceError) {
	requested, ok := models.ParseOrderStatus(cmd.Status)
	if !ok {
		return nil, badRequest(CodeInvalidStatus, "Invalid status: "+strings.TrimSpace(cmd.Status))
	}
	note := strings.TrimSpace(cmd.Note)

	order, serr := s.loadAuthorized(ctx, cmd.Actor, cmd.OrderID)
	if serr != nil {
		return nil, serr
	}
	previous := order.Status

	decision := ValidateTransition(previous, requested, cmd.Actor.Role)
	if !decision.Allowed {
		if decision.Reason == ReasonRoleNotPermitted {
			return nil, forbidden("Your role cannot change order status")
		}
		return nil, &ServiceError{
			StatusCode: http.StatusBadRequest,
			Code:       CodeInvalidTransition,
			Message:    "Cannot change status from " + previous.Label() + " to " + requested.Label(),
		}
	}
	if decision.NoOp && note == "" {
		return nil, badRequest(CodeNoChange, "Order is already "+previous.Label())
	}

	result := &TransitionResult{Order: order, PreviousStatus: previous}

	if !decision.NoOp {
		if err := s.orders.UpdateStatus(ctx, order.ID, requested); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFound("Order not found")
			}
			s.logger.Error("Failed to update order status",
				zap.String("order_id", order.ID.String()),
				zap.String("status_from", previous.String()),
				zap.String("status_to", requested.String()),
				zap.Error(err))
			return nil, internal("Failed to update order status", err)
		}
		now := time.Now()
		order.Status = requested
		order.UpdatedAt = now
		switch requested {
		case models.StatusDelivered:
			order.DeliveredAt = &now
		case models.StatusCancelled:
			order.CancelledAt = &now
		}
		result.StatusChanged = true
	}

	eventID, err := s.audit.Append(ctx, AuditEntry{
		OrderID:     order.ID,
		From:        &previous,
		To:          requested,
		ActorUserID: cmd.Actor.UserIDPtr(),
		ActorRole:   cmd.Actor.Role,
		Note:        note,
	})
	if err != nil {
		result.addFailure(StageAudit, err)
	} else {
		result.EventID = eventID
	}

	// Secondary work outlives the request context, bounded by notifyTimeout.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
	defer cancel()

	eventType := EventTypeStatusChanged
	if !result.StatusChanged {
		eventType = EventTypeNoteAdded
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(bg, lifecycleEvent(eventType, order, &previous, cmd.Actor, note)); err != nil {
			result.addFailure(StagePublish, err)
		}
	}

	if result.StatusChanged {
		if s.notifier != nil {
			if err := s.notifier.Notify(bg, order, &previous, requested, note); err != nil {
				result.addFailure(StageNotification, err)
			}
		}
		s.recordTransitionMetrics(bg, requested, cmd.Actor.Role)
	}

	if n := len(result.SecondaryFailures); n > 0 {
		_ = s.metrics.RecordCount(bg, awspkg.MetricSecondaryWriteFailures, nil)
		s.logger.Warn("Order status updated with secondary failures",
			zap.String("order_id", order.ID.String()),
			zap.String("status_from", previous.String()),
			zap.String("status_to", requested.String()),
			zap.Int("failures", n))
	} else {
		s.logger.Info("Order status updated",
			zap.String("order_id", order.ID.String()),
			zap.String("status_from", previous.String()),
			zap.String("status_to", requested.String()),
			zap.String("actor_role", cmd.Actor.Role.String()))
	}
	return result, nil
}

func (s *OrderStatusService) recordTransitionMetrics(ctx context.Context, to models.OrderStatus, role models.Role) {
	_ = s.metrics.RecordCount(ctx, awspkg.MetricStatusTransitions, map[string]string{
		"Status":    to.String(),
		"ActorRole": role.String(),
	})
	switch to {
	case models.StatusDelivered:
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersDelivered, nil)
	case models.StatusCancelled:
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersCancelled, nil)
	}
}

// AllowedTransitions lists where actor may move the order next.
func (s *OrderStatusService) AllowedTransitions(ctx context.Context, actor Actor, orderID uuid.UUID) (models.OrderStatus, []models.OrderStatus, *ServiceError) {
	order, serr := s.loadAuthorized(ctx, actor, orderID)
	if serr != nil {
		return "", nil, serr
	}
	return order.Status, AllowedTransitions(order.Status, actor.Role), nil
}
