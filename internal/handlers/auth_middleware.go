package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

// AuthMiddleware authenticates bearer access tokens through the auth service.
type AuthMiddleware struct {
	auth   services.AuthService
	logger utils.Logger
}

func NewAuthMiddleware(authService services.AuthService, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{auth: authService, logger: logger}
}

// RequireAuth rejects requests without a valid, unrevoked access token of an
// existing user.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}

		user, claims, err := am.auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				unauthorized(c, "Could not validate credentials")
				return
			}
			utils.GetLogger(c, am.logger).Error("Authentication failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
			return
		}

		setIdentity(c, user, claims)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets the
// request through either way.
func (am *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		user, claims, err := am.auth.Authenticate(c.Request.Context(), token)
		if err == nil {
			setIdentity(c, user, claims)
		} else if !errors.Is(err, services.ErrInvalidToken) {
			utils.GetLogger(c, am.logger).Warn("Optional authentication failed", "error", err)
		}
		c.Next()
	}
}

// RequireRole needs RequireAuth before it. The user must have an account
// holding one of roles.
func (am *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		if user.Account == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Message: "User has no associated account"})
			return
		}
		for _, role := range roles {
			if user.Account.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Insufficient permissions",
			Details: gin.H{"required_roles": roles},
		})
	}
}

func setIdentity(c *gin.Context, user *models.User, claims *auth.Claims) {
	c.Set(ctxUser, user)
	c.Set(ctxUserID, user.ID)
	c.Set(ctxUserRole, user.Role())
	c.Set(ctxClaims, claims)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: msg})
}
