package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
)

// Context keys set by the auth middleware.
const (
	ctxUser     = "user"
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
	ctxClaims   = "claims"
)

const (
	defaultPageLimit = 100
	maxPageLimit     = 1000
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs with the request-scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Info(msg, args...)
}

// handleServiceError maps a service error onto a status code and body.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var (
		notFound   *services.NotFoundError
		verrs      validator.ValidationErrors
		stateErr   *services.InvalidResponseStateError
		transition *models.TransitionError
		rateLimit  *services.RateLimitError
		business   *services.BusinessRuleError
		inUse      *services.InUseError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: notFound.Error()})
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Validation failed", Details: verrs})
	case errors.As(err, &stateErr):
		c.JSON(http.StatusConflict, ErrorResponse{Message: stateErr.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, ErrorResponse{Message: transition.Error()})
	case errors.Is(err, services.ErrEmailAlreadyRegistered), errors.Is(err, services.ErrAccountAlreadyExists):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case errors.As(err, &inUse):
		c.JSON(http.StatusConflict, ErrorResponse{Message: inUse.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Incorrect email or password"})
	case errors.Is(err, services.ErrInvalidToken):
		c.Header("WWW-Authenticate", "Bearer")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Could not validate credentials"})
	case errors.Is(err, services.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})
	case errors.As(err, &rateLimit):
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(rateLimit.RetryAfter)))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Message: "Too many attempts, try again later"})
	case errors.Is(err, services.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid or expired reset token"})
	case errors.As(err, &business):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Message: business.Message, Details: business.Rule})
	default:
		utils.GetLogger(c, h.logger).Error("Unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
	}
}

func (h *BaseHandler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Message: "Invalid request payload",
		Details: err.Error(),
	})
}

// parseIDParam reads a positive numeric path parameter. It writes a 400 and
// returns 0 when the value is not one.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: fmt.Sprintf("Invalid %s", name),
		})
		return 0
	}
	return uint(id)
}

// parsePagination reads limit and offset. "skip" is accepted as an alias of
// offset.
func (h *BaseHandler) parsePagination(c *gin.Context) (limit, offset int, ok bool) {
	limit = defaultPageLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid limit"})
			return 0, 0, false
		}
		limit = min(n, maxPageLimit)
	}

	raw := c.Query("offset")
	if raw == "" {
		raw = c.Query("skip")
	}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid offset"})
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}

// ===== CONTEXT HELPERS =====

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func currentClaims(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

// currentAccountID returns the account of the authenticated user, or "" when
// the user has none.
func currentAccountID(c *gin.Context) string {
	user, ok := currentUser(c)
	if !ok || user.Account == nil {
		return ""
	}
	return user.Account.ID
}

func retryAfterSeconds(d time.Duration) int {
	s := int((d + time.Second - 1) / time.Second)
	if s < 1 {
		return 1
	}
	return s
}
