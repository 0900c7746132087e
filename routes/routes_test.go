package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arturocano02/FarmDirect-sub000/controllers"
	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fixedRole models.Role

func (f fixedRole) Resolve(ctx context.Context, user services.User) models.Role {
	return models.Role(f)
}

type noopStatus struct{}

func (noopStatus) UpdateStatus(ctx context.Context, cmd services.UpdateStatusCommand) (*services.TransitionResult, *services.ServiceError) {
	return &services.TransitionResult{Order: &models.Order{ID: cmd.OrderID, Status: models.OrderStatus(cmd.Status)}}, nil
}

func (noopStatus) AllowedTransitions(ctx context.Context, actor services.Actor, id uuid.UUID) (models.OrderStatus, []models.OrderStatus, *services.ServiceError) {
	return models.StatusProcessing, nil, nil
}

type noopReader struct{}

func (noopReader) GetOrder(ctx context.Context, actor services.Actor, id uuid.UUID) (*models.Order, *services.ServiceError) {
	return &models.Order{ID: id}, nil
}

func (noopReader) ListOrders(ctx context.Context, actor services.Actor, status string, page, limit int) (*services.OrderResponse, *services.ServiceError) {
	return &services.OrderResponse{}, nil
}

type noopOutbox struct{}

func (noopOutbox) List(ctx context.Context, filter models.OutboxFilter) (*services.OutboxResponse, *services.ServiceError) {
	return &services.OutboxResponse{}, nil
}

func newEngine(role models.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r,
		controllers.NewOrderController(noopStatus{}, noopReader{}, zap.NewNop()),
		controllers.NewOutboxController(noopOutbox{}),
		Deps{RoleResolver: fixedRole(role)},
	)
	return r
}

func call(r *gin.Engine, method, path string, authed bool) int {
	req := httptest.NewRequest(method, path, nil)
	if authed {
		req.Header.Set("X-User-ID", uuid.NewString())
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestHealth(t *testing.T) {
	assert.Equal(t, http.StatusOK, call(newEngine(models.RoleCustomer), http.MethodGet, "/health", false))
}

func TestScopeGuards(t *testing.T) {
	id := uuid.NewString()

	assert.Equal(t, http.StatusUnauthorized, call(newEngine(models.RoleFarm), http.MethodGet, "/farm/orders", false))
	assert.Equal(t, http.StatusOK, call(newEngine(models.RoleFarm), http.MethodGet, "/farm/orders/"+id, true))
	assert.Equal(t, http.StatusForbidden, call(newEngine(models.RoleCustomer), http.MethodGet, "/farm/orders/"+id, true))
	assert.Equal(t, http.StatusForbidden, call(newEngine(models.RoleFarm), http.MethodGet, "/admin/orders", true))
	assert.Equal(t, http.StatusOK, call(newEngine(models.RoleAdmin), http.MethodGet, "/admin/notifications/outbox", true))
	assert.Equal(t, http.StatusForbidden, call(newEngine(models.RoleCustomer), http.MethodPost, "/admin/orders/"+id+"/status", true))
}
