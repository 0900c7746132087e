package controllers

import (
	"context"
	"net/http"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OutboxLister interface {
	List(ctx context.Context, filter models.OutboxFilter) (*services.OutboxResponse, *services.ServiceError)
}

type OutboxController struct {
	outbox OutboxLister
}

func NewOutboxController(outbox OutboxLister) *OutboxController {
	return &OutboxController{outbox: outbox}
}

// List handles GET /admin/notifications/outbox?status=&order_id=
func (oc *OutboxController) List(ctx *gin.Context) {
	page, limit := parsePaginationParams(ctx)
	filter := models.OutboxFilter{
		Status:   models.OutboxStatus(ctx.Query("status")),
		Page:     page,
		PageSize: limit,
	}
	if raw := ctx.Query("order_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID format", "code": services.CodeInvalidRequest})
			return
		}
		filter.OrderID = &id
	}

	result, serr := oc.outbox.List(ctx.Request.Context(), filter)
	if serr != nil {
		respondError(ctx, serr)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
