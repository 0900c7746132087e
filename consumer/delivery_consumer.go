package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arturocano02/FarmDirect-sub000/models"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, cmd services.UpdateStatusCommand) (*services.TransitionResult, *services.ServiceError)
}

// NewDeliveryHandler applies delivery-tracking updates as the system actor.
// Rejected transitions are dropped: redelivering them would fail the same way.
func NewDeliveryHandler(updater StatusUpdater, logger *zap.Logger) awspkg.MessageHandler {
	return func(ctx context.Context, body []byte) error {
		var update models.DeliveryUpdate
		if err := json.Unmarshal(body, &update); err != nil {
			logger.Error("Failed to unmarshal delivery update", zap.Error(err))
			return fmt.Errorf("%w: %v", awspkg.ErrPoisonMessage, err)
		}
		orderID, err := uuid.Parse(update.OrderID)
		if err != nil {
			return fmt.Errorf("%w: invalid order id %q", awspkg.ErrPoisonMessage, update.OrderID)
		}

		res, serr := updater.UpdateStatus(ctx, services.UpdateStatusCommand{
			Actor:   services.SystemActor,
			OrderID: orderID,
			Status:  update.Status,
			Note:    update.Note,
		})
		if serr != nil {
			if serr.StatusCode < http.StatusInternalServerError {
				logger.Warn("Delivery update rejected",
					zap.String("order_id", update.OrderID),
					zap.String("status", update.Status),
					zap.String("code", serr.Code),
					zap.String("reason", serr.Message))
				return fmt.Errorf("%w: %s", awspkg.ErrPoisonMessage, serr.Message)
			}
			return serr
		}

		for _, f := range res.SecondaryFailures {
			logger.Warn("Delivery update secondary failure",
				zap.String("order_id", update.OrderID),
				zap.String("stage", string(f.Stage)),
				zap.Error(f.Err))
		}
		return nil
	}
}
