package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/arturocano02/FarmDirect-sub000/middleware"
	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type StatusService interface {
	UpdateStatus(ctx context.Context, cmd services.UpdateStatusCommand) (*services.TransitionResult, *services.ServiceError)
	AllowedTransitions(ctx context.Context, actor services.Actor, orderID uuid.UUID) (models.OrderStatus, []models.OrderStatus, *services.ServiceError)
}

type OrderReader interface {
	GetOrder(ctx context.Context, actor services.Actor, orderID uuid.UUID) (*models.Order, *services.ServiceError)
	ListOrders(ctx context.Context, actor services.Actor, status string, page, limit int) (*services.OrderResponse, *services.ServiceError)
}

// OrderController serves both the farm and admin scopes; the authorization
// gate behind the services decides what each actor may see and do.
type OrderController struct {
	statusService StatusService
	orderService  OrderReader
	logger        *zap.Logger
}

func NewOrderController(statusService StatusService, orderService OrderReader, logger *zap.Logger) *OrderController {
	return &OrderController{
		statusService: statusService,
		orderService:  orderService,
		logger:        logger,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

type orderStatusView struct {
	ID             uuid.UUID          `json:"id"`
	OrderNumber    string             `json:"order_number"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status"`
}

func respondError(ctx *gin.Context, err *services.ServiceError) {
	ctx.JSON(err.StatusCode, gin.H{"error": err.Message, "code": err.Code})
}

func actorOrAbort(ctx *gin.Context) (services.Actor, bool) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "code": services.CodeUnauthenticated})
		return services.Actor{}, false
	}
	return actor, true
}

func orderIDOrAbort(ctx *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		// Malformed ids read as not found.
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Order not found", "code": services.CodeNotFound})
		return uuid.Nil, false
	}
	return id, true
}

// UpdateStatus handles POST /{scope}/orders/:id/status
func (oc *OrderController) UpdateStatus(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	orderID, ok := orderIDOrAbort(ctx)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: status is required", "code": services.CodeInvalidStatus})
		return
	}

	result, serr := oc.statusService.UpdateStatus(ctx.Request.Context(), services.UpdateStatusCommand{
		Actor:   actor,
		OrderID: orderID,
		Status:  req.Status,
		Note:    req.Note,
	})
	if serr != nil {
		if serr.StatusCode >= http.StatusInternalServerError {
			oc.logger.Error("Status update failed", zap.String("order_id", orderID.String()), zap.Error(serr))
		}
		respondError(ctx, serr)
		return
	}

	body := gin.H{
		"success": true,
		"order": orderStatusView{
			ID:             result.Order.ID,
			OrderNumber:    result.Order.OrderNumber,
			Status:         result.Order.Status,
			PreviousStatus: result.PreviousStatus,
		},
	}
	if result.EventID != uuid.Nil {
		body["event_id"] = result.EventID
	}
	if len(result.SecondaryFailures) > 0 {
		warnings := make([]string, 0, len(result.SecondaryFailures))
		for _, f := range result.SecondaryFailures {
			warnings = append(warnings, string(f.Stage))
		}
		body["warnings"] = warnings
	}
	ctx.JSON(http.StatusOK, body)
}

// AllowedTransitions handles GET /{scope}/orders/:id/transitions
func (oc *OrderController) AllowedTransitions(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	orderID, ok := orderIDOrAbort(ctx)
	if !ok {
		return
	}

	current, next, serr := oc.statusService.AllowedTransitions(ctx.Request.Context(), actor, orderID)
	if serr != nil {
		respondError(ctx, serr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": current, "allowed": next})
}

// GetOrder handles GET /{scope}/orders/:id
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	orderID, ok := orderIDOrAbort(ctx)
	if !ok {
		return
	}

	order, serr := oc.orderService.GetOrder(ctx.Request.Context(), actor, orderID)
	if serr != nil {
		respondError(ctx, serr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders handles GET /{scope}/orders
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	page, limit := parsePaginationParams(ctx)

	result, serr := oc.orderService.ListOrders(ctx.Request.Context(), actor, ctx.Query("status"), page, limit)
	if serr != nil {
		respondError(ctx, serr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// parsePaginationParams extracts and validates pagination parameters
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(ctx.DefaultQuery("page", "1")); err == nil && p > 0 {
		pageInt = p
	}
	if l, err := strconv.Atoi(ctx.DefaultQuery("limit", "10")); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}
	return pageInt, limitInt
}
