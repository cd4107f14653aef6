package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

type AssessmentHandler struct {
	BaseHandler
	assessmentService services.AssessmentService
	responseService   services.ResponseService
	exportService     services.ExportService
}

func NewAssessmentHandler(
	assessmentService services.AssessmentService,
	responseService services.ResponseService,
	exportService services.ExportService,
	logger utils.Logger,
) *AssessmentHandler {
	return &AssessmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		assessmentService: assessmentService,
		responseService:   responseService,
		exportService:     exportService,
	}
}

// CreateAssessment creates a new assessment
// @Summary Create assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param assessment body services.CreateAssessmentRequest true "Assessment data"
// @Success 201 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Router /assessments [post]
func (h *AssessmentHandler) CreateAssessment(c *gin.Context) {
	var req services.CreateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	assessment, err := h.assessmentService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, assessment)
}

// GetAssessment returns an assessment with its questions, choices and
// diagnostics. The route is public so the questionnaire can be rendered.
// @Summary Get assessment
// @Tags assessments
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {object} models.Assessment
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [get]
func (h *AssessmentHandler) GetAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	assessment, err := h.assessmentService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// ListAssessments lists assessments
// @Summary List assessments
// @Tags assessments
// @Produce json
// @Param title query string false "Title contains"
// @Param scoring_method query string false "Scoring method"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} services.AssessmentListResponse
// @Router /assessments [get]
func (h *AssessmentHandler) ListAssessments(c *gin.Context) {
	limit, offset, ok := h.parsePagination(c)
	if !ok {
		return
	}

	filters := repositories.AssessmentFilters{
		Title:     c.Query("title"),
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}
	if m := c.Query("scoring_method"); m != "" {
		method := models.ScoringMethod(m)
		filters.ScoringMethod = &method
	}

	resp, err := h.assessmentService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// UpdateAssessment updates an existing assessment
// @Summary Update assessment
// @Tags assessments
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param assessment body services.UpdateAssessmentRequest true "Fields to change"
// @Success 200 {object} models.Assessment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [put]
func (h *AssessmentHandler) UpdateAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating assessment", "assessment_id", id)

	var req services.UpdateAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	assessment, err := h.assessmentService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// DeleteAssessment deletes an assessment
// @Summary Delete assessment
// @Tags assessments
// @Param id path uint true "Assessment ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id} [delete]
func (h *AssessmentHandler) DeleteAssessment(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting assessment", "assessment_id", id)

	if err := h.assessmentService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateResponse opens a pending response of the assessment for an examinee.
// The authenticated account becomes its creator.
// @Summary Create response
// @Tags responses
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param response body services.CreateResponseRequest true "Examinee"
// @Success 201 {object} models.AssessmentResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/responses [post]
func (h *AssessmentHandler) CreateResponse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.CreateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	accountID := currentAccountID(c)
	if accountID == "" {
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "User has no associated account"})
		return
	}

	response, err := h.responseService.Create(c.Request.Context(), id, &req, accountID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListAssessmentResponses lists the responses of one assessment
// @Summary List responses of an assessment
// @Tags responses
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param status query string false "Status"
// @Success 200 {object} services.ResponseListResponse
// @Router /assessments/{id}/responses [get]
func (h *AssessmentHandler) ListAssessmentResponses(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	limit, offset, ok := h.parsePagination(c)
	if !ok {
		return
	}

	filters := repositories.ResponseFilters{AssessmentID: &id, Limit: limit, Offset: offset}
	if s := c.Query("status"); s != "" {
		status := models.ResponseStatus(s)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid status"})
			return
		}
		filters.Status = &status
	}

	resp, err := h.responseService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ExportResponses streams the responses of an assessment as an XLSX file
// @Summary Export responses
// @Tags responses
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Assessment ID"
// @Success 200 {file} file
// @Failure 404 {object} ErrorResponse
// @Router /assessments/{id}/responses/export [get]
func (h *AssessmentHandler) ExportResponses(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting responses", "assessment_id", id)

	file, err := h.exportService.ExportResponses(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
