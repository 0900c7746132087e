package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arturocano02/FarmDirect-sub000/models"
	awspkg "github.com/arturocano02/FarmDirect-sub000/pkg/aws"
	"github.com/arturocano02/FarmDirect-sub000/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const orderNumberPrefix = "FD-"

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

type OrderService struct {
	orders    repository.OrderRepository
	events    repository.EventRepository
	farms     repository.FarmRepository
	gate      *AuthorizationGate
	notifier  Notifier
	publisher EventPublisher
	metrics   *awspkg.MetricsClient
	logger    *zap.Logger
}

func NewOrderService(
	orders repository.OrderRepository,
	events repository.EventRepository,
	farms repository.FarmRepository,
	gate *AuthorizationGate,
	notifier Notifier,
	publisher EventPublisher,
	metrics *awspkg.MetricsClient,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:    orders,
		events:    events,
		farms:     farms,
		gate:      gate,
		notifier:  notifier,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// NewOrderNumber returns a time-sortable human-facing order reference.
func NewOrderNumber() string {
	return orderNumberPrefix + ulid.Make().String()
}

var checkoutValidator = validator.New()

// validateCheckout reports the first failing field of a checkout payload.
func validateCheckout(evt models.CheckoutEvent) *ServiceError {
	err := checkoutValidator.Struct(evt)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return badRequest(CodeInvalidRequest, "Invalid checkout payload")
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "uuid":
		return badRequest(CodeInvalidRequest, fmt.Sprintf("Invalid %s format", fe.Field()))
	case "required", "min":
		return badRequest(CodeInvalidRequest, fmt.Sprintf("%s is required", fe.Field()))
	default:
		return badRequest(CodeInvalidRequest, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
	}
}

func buildOrder(evt models.CheckoutEvent) (*models.Order, *ServiceError) {
	if serr := validateCheckout(evt); serr != nil {
		return nil, serr
	}
	customerID := uuid.MustParse(evt.CustomerID)
	farmID := uuid.MustParse(evt.FarmID)

	order := &models.Order{
		OrderNumber:           NewOrderNumber(),
		FarmID:                farmID,
		CustomerID:            customerID,
		Status:                models.StatusProcessing,
		DeliveryFee:           evt.DeliveryFee,
		DeliveryAddress:       evt.DeliveryAddress,
		DeliveryNotes:         strings.TrimSpace(evt.DeliveryNotes),
		RequestedDeliveryDate: evt.RequestedDeliveryDate,
	}

	for _, item := range evt.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, badRequest(CodeInvalidRequest, "ProductName is required")
		}
		line := models.OrderItem{
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Unit:        item.Unit,
			WeightGrams: item.WeightGrams,
			Quantity:    item.Quantity,
			LineTotal:   item.UnitPrice * int64(item.Quantity),
		}
		if item.ProductID != "" {
			pid := uuid.MustParse(item.ProductID)
			line.ProductID = &pid
		}
		order.Subtotal += line.LineTotal
		order.Items = append(order.Items, line)
	}
	order.Total = order.Subtotal + order.DeliveryFee
	return order, nil
}

// CreateOrder persists a checked-out order with its items and creation event
// in one transaction, then publishes and notifies on a best-effort basis.
func (s *OrderService) CreateOrder(ctx context.Context, evt models.CheckoutEvent) (*models.Order, *ServiceError) {
	order, serr := buildOrder(evt)
	if serr != nil {
		return nil, serr
	}

	if _, err := s.farms.FindByID(ctx, order.FarmID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, badRequest(CodeInvalidRequest, "Unknown farm")
		}
		return nil, internal("Failed to load farm", err)
	}

	customer := Actor{UserID: order.CustomerID, Role: models.RoleCustomer}
	event := &models.OrderEvent{
		EventType:   models.EventOrderCreated,
		StatusTo:    models.StatusProcessing,
		ActorUserID: customer.UserIDPtr(),
		ActorRole:   customer.Role,
		Note:        "Order placed",
	}
	if err := s.orders.CreateWithEvent(ctx, order, event); err != nil {
		s.logger.Error("Failed to create order",
			zap.String("farm_id", order.FarmID.String()),
			zap.String("customer_id", order.CustomerID.String()),
			zap.Error(err))
		return nil, internal("Failed to create order", err)
	}
	order.Events = []models.OrderEvent{*event}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total", order.Total))

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 20*time.Second)
	defer cancel()

	if s.publisher != nil {
		_ = s.publisher.Publish(bg, lifecycleEvent(EventTypeOrderCreated, order, nil, customer, event.Note))
	}
	if s.notifier != nil {
		if err := s.notifier.Notify(bg, order, nil, models.StatusProcessing, ""); err != nil {
			s.logger.Error("Order creation notifications incomplete",
				zap.String("order_id", order.ID.String()),
				zap.Error(err))
		}
	}
	_ = s.metrics.RecordCount(bg, awspkg.MetricOrdersCreated, nil)

	return order, nil
}

// GetOrder returns the order with items and its ordered event history.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Order not found")
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internal("Failed to fetch order", err)
	}

	perm, err := s.gate.Authorize(ctx, actor, order)
	if err != nil {
		return nil, internal("Failed to authorize request", err)
	}
	if !perm.Permitted {
		return nil, permissionError(perm)
	}

	events, err := s.events.ListByOrderID(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to fetch order events", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, internal("Failed to fetch order events", err)
	}
	order.Events = events
	return order, nil
}

// ListOrders lists orders visible to actor: a farm sees its own, admins see all.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor, status string, page, limit int) (*OrderResponse, *ServiceError) {
	filter := models.OrderFilter{Page: page, Limit: limit}

	if status != "" {
		parsed, ok := models.ParseOrderStatus(status)
		if !ok {
			return nil, badRequest(CodeInvalidStatus, "Invalid status: "+status)
		}
		filter.Status = parsed
	}

	switch actor.Role {
	case models.RoleAdmin, models.RoleSystem:
	case models.RoleFarm:
		farm, err := s.gate.OwnedFarm(ctx, actor)
		if errors.Is(err, ErrNoOwnedFarm) {
			return nil, forbidden("No farm is linked to this account")
		}
		if err != nil {
			return nil, internal("Failed to load farm", err)
		}
		filter.FarmID = &farm.ID
	default:
		return nil, forbidden("You do not have access to orders")
	}

	orders, total, err := s.orders.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.Error(err))
		return nil, internal("Failed to fetch orders", err)
	}

	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
