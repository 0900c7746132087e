package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	UserContextKey     = "userID"
	EmailContextKey    = "email"
	RoleHintContextKey = "roleHint"
	ActorContextKey    = "actor"
)

// TokenParser validates HS256 bearer tokens issued by the auth service.
type TokenParser struct {
	secret []byte
}

// NewTokenParser returns nil when no secret is configured; bearer tokens are
// then ignored and only gateway headers are trusted.
func NewTokenParser(secret string) *TokenParser {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil
	}
	return &TokenParser{secret: []byte(secret)}
}

type tokenIdentity struct {
	userID string
	email  string
	role   string
}

func (p *TokenParser) Parse(tokenStr string) (tokenIdentity, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return tokenIdentity{}, fmt.Errorf("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return tokenIdentity{}, fmt.Errorf("invalid token claims")
	}
	if typ, ok := claims["typ"].(string); ok && typ != "access" {
		return tokenIdentity{}, fmt.Errorf("invalid token type")
	}

	id := tokenIdentity{}
	if v, ok := claims["user_id"].(string); ok {
		id.userID = v
	} else if v, ok := claims["sub"].(string); ok {
		id.userID = v
	}
	id.email, _ = claims["email"].(string)
	id.role, _ = claims["role"].(string)
	return id, nil
}

// AuthMiddleware establishes who is calling. Gateway headers win, then the
// gateway cookies, then a bearer token when a TokenParser is configured. The
// role carried by any of these is only a hint for ResolveRole.
func AuthMiddleware(tokens *TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")
		email := c.GetHeader("X-User-Email")

		// Cookie fallback (only if behind api-gateway, never publicly exposed)
		if userID == "" {
			if v, err := c.Cookie("user_id"); err == nil {
				userID = v
			}
		}
		if role == "" {
			if v, err := c.Cookie("user_role"); err == nil {
				role = v
			}
		}
		if email == "" {
			if v, err := c.Cookie("user_email"); err == nil {
				email = v
			}
		}

		if userID == "" && tokens != nil {
			if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
				id, err := tokens.Parse(strings.TrimSpace(bearer))
				if err != nil {
					c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHENTICATED"})
					return
				}
				userID, email, role = id.userID, id.email, id.role
			}
		}

		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "UNAUTHENTICATED"})
			return
		}

		uid, err := uuid.Parse(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid user ID format", "code": "UNAUTHENTICATED"})
			return
		}

		c.Set(UserContextKey, uid)
		c.Set(EmailContextKey, email)
		c.Set(RoleHintContextKey, role)
		c.Next()
	}
}
