package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

// UserHandler serves staff users and their accounts.
type UserHandler struct {
	BaseHandler
	userService    services.UserService
	accountService services.AccountService
}

func NewUserHandler(userService services.UserService, accountService services.AccountService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:    NewBaseHandler(logger),
		userService:    userService,
		accountService: accountService,
	}
}

// CreateUser creates a user and, optionally, its account
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body services.CreateUserRequest true "User"
// @Success 201 {object} models.User
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req services.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers lists users
// @Summary List users
// @Tags users
// @Produce json
// @Param skip query int false "Offset"
// @Param limit query int false "Page size (default: 100, max: 1000)"
// @Param q query string false "Search by email"
// @Success 200 {object} services.UserListResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset, ok := h.parsePagination(c)
	if !ok {
		return
	}

	resp, err := h.userService.List(c.Request.Context(), repositories.UserFilters{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetCurrentUser returns the authenticated user with its account
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		unauthorized(c, "Not authenticated")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser patches email, password and account fields
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body services.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req services.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting user", "user_id", id)

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== ACCOUNTS =====

func (h *UserHandler) CreateAccount(c *gin.Context) {
	var req services.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	account, err := h.accountService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *UserHandler) ListAccounts(c *gin.Context) {
	limit, offset, ok := h.parsePagination(c)
	if !ok {
		return
	}

	resp, err := h.accountService.List(c.Request.Context(), repositories.ListParams{Limit: limit, Offset: offset})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) GetAccount(c *gin.Context) {
	account, err := h.accountService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *UserHandler) UpdateAccount(c *gin.Context) {
	var req services.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	account, err := h.accountService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

func (h *UserHandler) DeleteAccount(c *gin.Context) {
	id := c.Param("id")
	h.LogRequest(c, "Deleting account", "account_id", id)

	if err := h.accountService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
