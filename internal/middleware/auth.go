package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/palanikathirvel/realestatefinal-sub000/internal/auth"
	"github.com/palanikathirvel/realestatefinal-sub000/internal/models"
	apperrors "github.com/palanikathirvel/realestatefinal-sub000/pkg/errors"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/response"
)

// Context keys populated by the auth middleware.
const (
	CtxUserIDKey = "auth.user_id"
	CtxRoleKey   = "auth.role"
)

// RequireAuth validates the bearer token and stores the caller identity on the
// request context.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, jwtService)
		if !ok {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxRoleKey, claims.Role)
		c.Next()
	}
}

// OptionalAuth populates the caller identity when a valid bearer token is
// present but lets anonymous requests through.
func OptionalAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, ok := parseBearer(c, jwtService); ok {
			c.Set(CtxUserIDKey, claims.UserID)
			c.Set(CtxRoleKey, claims.Role)
		}
		c.Next()
	}
}

func parseBearer(c *gin.Context, jwtService *auth.JWTService) (*auth.Claims, bool) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return nil, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, false
	}

	claims, err := jwtService.ValidateAccessToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, false
	}
	return claims, true
}

// UserID extracts the authenticated user id from the request context.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Role extracts the authenticated role from the request context.
func Role(c *gin.Context) string {
	return c.GetString(CtxRoleKey)
}

// IsAdmin reports whether the caller holds the admin role.
func IsAdmin(c *gin.Context) bool {
	return Role(c) == models.RoleAdmin
}
