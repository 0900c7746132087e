package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/arturocano02/FarmDirect-sub000/models"
	"github.com/arturocano02/FarmDirect-sub000/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RoleResolver interface {
	Resolve(ctx context.Context, user services.User) models.Role
}

// ResolveRole turns the authenticated identity into an actor with its
// effective role. Must run after AuthMiddleware.
func ResolveRole(resolver RoleResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := c.Get(UserContextKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHENTICATED"})
			return
		}
		user := services.User{
			ID:             uid.(uuid.UUID),
			Email:          c.GetString(EmailContextKey),
			SignupRoleHint: c.GetString(RoleHintContextKey),
		}
		c.Set(ActorContextKey, services.Actor{
			UserID: user.ID,
			Email:  user.Email,
			Role:   resolver.Resolve(c.Request.Context(), user),
		})
		c.Next()
	}
}

// RequireRole admits only actors holding one of roles.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHENTICATED"})
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied", "code": "FORBIDDEN"})
	}
}

func GetActor(c *gin.Context) (services.Actor, error) {
	if val, ok := c.Get(ActorContextKey); ok {
		if actor, ok := val.(services.Actor); ok {
			return actor, nil
		}
	}
	return services.Actor{}, errors.New("actor not found in context")
}
