package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

type ExamineeHandler struct {
	BaseHandler
	examineeService services.ExamineeService
}

func NewExamineeHandler(examineeService services.ExamineeService, logger utils.Logger) *ExamineeHandler {
	return &ExamineeHandler{
		BaseHandler:     NewBaseHandler(logger),
		examineeService: examineeService,
	}
}

// CreateExaminee registers an examinee
// @Summary Create examinee
// @Tags examinees
// @Accept json
// @Produce json
// @Param examinee body services.CreateExamineeRequest true "Examinee"
// @Success 201 {object} models.Examinee
// @Failure 409 {object} ErrorResponse
// @Router /examinees [post]
func (h *ExamineeHandler) CreateExaminee(c *gin.Context) {
	var req services.CreateExamineeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	examinee, err := h.examineeService.Create(c.Request.Context(), &req, currentAccountID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, examinee)
}

func (h *ExamineeHandler) GetExaminee(c *gin.Context) {
	examinee, err := h.examineeService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, examinee)
}

// ListExaminees lists examinees
// @Summary List examinees
// @Tags examinees
// @Produce json
// @Param q query string false "Matches name, email or internal identifier"
// @Success 200 {object} services.ExamineeListResponse
// @Router /examinees [get]
func (h *ExamineeHandler) ListExaminees(c *gin.Context) {
	limit, offset, ok := h.parsePagination(c)
	if !ok {
		return
	}

	resp, err := h.examineeService.List(c.Request.Context(), repositories.ExamineeFilters{
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

func (h *ExamineeHandler) UpdateExaminee(c *gin.Context) {
	var req services.UpdateExamineeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	examinee, err := h.examineeService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, examinee)
}

// DeleteExaminee soft-deletes an examinee, or removes it for good with
// hard_delete=true
// @Summary Delete examinee
// @Tags examinees
// @Param id path string true "Examinee ID"
// @Param hard_delete query bool false "Delete permanently"
// @Success 204
// @Router /examinees/{id} [delete]
func (h *ExamineeHandler) DeleteExaminee(c *gin.Context) {
	id := c.Param("id")

	hardDelete := false
	if v := c.Query("hard_delete"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid hard_delete"})
			return
		}
		hardDelete = parsed
	}

	h.LogRequest(c, "Deleting examinee", "examinee_id", id, "hard_delete", hardDelete)

	if err := h.examineeService.Delete(c.Request.Context(), id, hardDelete); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
