package consumer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arturocano02/FarmDirect-sub000/models"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"go.uber.org/zap"
)

const checkoutCompleted = "checkout.completed"

// OrderCreator is the slice of OrderService the checkout consumer needs.
type OrderCreator interface {
	CreateOrder(ctx context.Context, evt models.CheckoutEvent) (*models.Order, *services.ServiceError)
}

// CheckoutGuard claims a checkout once across redeliveries.
type CheckoutGuard interface {
	Claim(ctx context.Context, checkoutKey string) (bool, error)
	Release(ctx context.Context, checkoutKey string) error
}

// checkoutKey prefers the storefront checkout id and falls back to a digest
// of the message body.
func checkoutKey(evt models.CheckoutEvent, body []byte) string {
	if evt.CheckoutID != "" {
		return evt.CheckoutID
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// NewCheckoutHandler turns checkout events into orders. Malformed or invalid
// events are poison; store failures are left on the queue for redelivery.
// guard may be nil, in which case redelivered checkouts are not deduplicated.
func NewCheckoutHandler(orders OrderCreator, guard CheckoutGuard, logger *zap.Logger) awspkg.MessageHandler {
	return func(ctx context.Context, body []byte) error {
		var evt models.CheckoutEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			logger.Error("Failed to unmarshal checkout event", zap.Error(err))
			return fmt.Errorf("%w: %v", awspkg.ErrPoisonMessage, err)
		}
		if evt.Event != "" && evt.Event != checkoutCompleted {
			logger.Debug("Ignoring non-checkout event", zap.String("event", evt.Event))
			return nil
		}

		key := checkoutKey(evt, body)
		claimed := false
		if guard != nil {
			ok, err := guard.Claim(ctx, key)
			switch {
			case err != nil:
				logger.Warn("Checkout guard unavailable; processing without dedupe",
					zap.String("checkout_key", key),
					zap.Error(err))
			case !ok:
				logger.Info("Duplicate checkout ignored", zap.String("checkout_key", key))
				return nil
			default:
				claimed = true
			}
		}

		order, serr := orders.CreateOrder(ctx, evt)
		if serr != nil {
			if serr.StatusCode < http.StatusInternalServerError {
				logger.Error("Rejected checkout event",
					zap.String("customer_id", evt.CustomerID),
					zap.String("farm_id", evt.FarmID),
					zap.String("reason", serr.Message))
				return fmt.Errorf("%w: %s", awspkg.ErrPoisonMessage, serr.Message)
			}
			if claimed {
				if err := guard.Release(ctx, key); err != nil {
					logger.Warn("Failed to release checkout claim",
						zap.String("checkout_key", key),
						zap.Error(err))
				}
			}
			return serr
		}

		logger.Info("Order created from checkout",
			zap.String("order_id", order.ID.String()),
			zap.String("order_number", order.OrderNumber))
		return nil
	}
}
