package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/aisohq/aiso-market/internal/http/response"
	"github.com/aisohq/aiso-market/internal/pkg/logger"
	"github.com/aisohq/aiso-market/internal/requestdata"
	"github.com/aisohq/aiso-market/internal/services"
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("Middleware", "AuthMiddleware"),
		authService: authService,
	}
}

// RequireRole authenticates the bearer token and gates on the given role.
// Admins pass every gate; developers pass the user gate.
func (am *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingToken)
			c.Abort()
			return
		}
		rd, err := am.authService.ParseAccessToken(tokenString)
		if err != nil || rd.UserID == uuid.Nil {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errInvalidToken)
			c.Abort()
			return
		}
		if !rd.HasRole(role) {
			response.RespondError(c, http.StatusForbidden, "forbidden", errInsufficientRole)
			c.Abort()
			return
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return am.RequireRole(requestdata.RoleUser)
}

type authError string

func (e authError) Error() string { return string(e) }

const (
	errMissingToken     = authError("missing or invalid token")
	errInvalidToken     = authError("invalid access token")
	errInsufficientRole = authError("insufficient role")
)

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
