package routes

import (
	"net/http"

	"github.com/arturocano02/FarmDirect-sub000/controllers"
	"github.com/arturocano02/FarmDirect-sub000/middleware"
	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/gin-gonic/gin"
)

// Deps carries what route registration needs beyond the controllers.
type Deps struct {
	Tokens       *middleware.TokenParser
	RoleResolver middleware.RoleResolver
	// MutationLimit throttles status changes per client IP; nil disables it.
	MutationLimit *middleware.RateLimiter
}

func RegisterRoutes(r *gin.Engine, orders *controllers.OrderController, outbox *controllers.OutboxController, deps Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	identity := []gin.HandlerFunc{
		middleware.AuthMiddleware(deps.Tokens),
		middleware.ResolveRole(deps.RoleResolver),
	}
	mutation := []gin.HandlerFunc{}
	if deps.MutationLimit != nil {
		mutation = append(mutation, middleware.RateLimitMiddleware(deps.MutationLimit))
	}

	farm := r.Group("/farm")
	farm.Use(identity...)
	farm.Use(middleware.RequireRole(models.RoleFarm))
	{
		farm.GET("/orders", orders.ListOrders)
		farm.GET("/orders/:id", orders.GetOrder)
		farm.GET("/orders/:id/transitions", orders.AllowedTransitions)
		farm.POST("/orders/:id/status", append(mutation, orders.UpdateStatus)...)
	}

	admin := r.Group("/admin")
	admin.Use(identity...)
	admin.Use(middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/orders", orders.ListOrders)
		admin.GET("/orders/:id", orders.GetOrder)
		admin.GET("/orders/:id/transitions", orders.AllowedTransitions)
		admin.POST("/orders/:id/status", append(mutation, orders.UpdateStatus)...)
		admin.GET("/notifications/outbox", outbox.List)
	}
}
