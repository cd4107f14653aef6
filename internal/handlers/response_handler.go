package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

type ResponseHandler struct {
	BaseHandler
	responseService services.ResponseService
}

func NewResponseHandler(responseService services.ResponseService, logger utils.Logger) *ResponseHandler {
	return &ResponseHandler{
		BaseHandler:     NewBaseHandler(logger),
		responseService: responseService,
	}
}

// SubmitAnswers records the examinee's answers and completes the response.
// The route is public; the response id is the examinee's credential.
// @Summary Submit answers
// @Tags responses
// @Accept json
// @Produce json
// @Param id path string true "Response ID"
// @Param answers body services.SubmitAnswersRequest true "Answers"
// @Success 200 {object} models.AssessmentResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /responses/{id} [put]
func (h *ResponseHandler) SubmitAnswers(c *gin.Context) {
	responseID := c.Param("id")

	var req services.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.LogRequest(c, "Submitting answers", "response_id", responseID, "answers", len(req.QuestionResponses))

	response, err := h.responseService.SubmitAnswers(c.Request.Context(), responseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ChangeStatus applies a manual status transition
// @Summary Change response status
// @Tags responses
// @Accept json
// @Produce json
// @Param id path string true "Response ID"
// @Param status body services.ChangeStatusRequest true "Target status"
// @Success 200 {object} models.AssessmentResponse
// @Failure 409 {object} ErrorResponse
// @Router /responses/{id}/change-status [patch]
func (h *ResponseHandler) ChangeStatus(c *gin.Context) {
	responseID := c.Param("id")

	var req services.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	h.LogRequest(c, "Changing response status", "response_id", responseID, "status", req.Status)

	response, err := h.responseService.ChangeStatus(c.Request.Context(), responseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetResponse returns a response. Anonymous callers only see pending ones.
// @Summary Get response
// @Tags responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} models.AssessmentResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /responses/{id} [get]
func (h *ResponseHandler) GetResponse(c *gin.Context) {
	response, err := h.responseService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if _, authenticated := currentUser(c); !authenticated && response.Status != models.ResponsePending {
		unauthorized(c, "Not authenticated")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetPublicResponse serves the questionnaire page while the response is
// pending.
// @Summary Get pending response
// @Tags responses
// @Produce json
// @Param id path string true "Response ID"
// @Success 200 {object} models.AssessmentResponse
// @Failure 403 {object} ErrorResponse
// @Router /responses/public/{id} [get]
func (h *ResponseHandler) GetPublicResponse(c *gin.Context) {
	response, err := h.responseService.GetPublic(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListResponses lists responses, optionally of one examinee
// @Summary List responses
// @Tags responses
// @Produce json
// @Param examinee_id query string false "Examinee ID"
// @Param status query string false "Status"
// @Success 200 {object} services.ResponseListResponse
// @Router /responses [get]
func (h *ResponseHandler) ListResponses(c *gin.Context) {
	limit, offset, ok := h.parsePagination(c)
	if !ok {
		return
	}

	filters := repositories.ResponseFilters{Limit: limit, Offset: offset}
	if examineeID := c.Query("examinee_id"); examineeID != "" {
		filters.ExamineeID = &examineeID
	}
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
