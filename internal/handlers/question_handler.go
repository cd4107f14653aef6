package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

// QuestionHandler serves questions and diagnostics, both nested under an
// assessment.
type QuestionHandler struct {
	BaseHandler
	questionService   services.QuestionService
	diagnosticService services.DiagnosticService
}

func NewQuestionHandler(questionService services.QuestionService, diagnosticService services.DiagnosticService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:       NewBaseHandler(logger),
		questionService:   questionService,
		diagnosticService: diagnosticService,
	}
}

// CreateQuestion adds a question with its choices
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param question body services.CreateQuestionRequest true "Question"
// @Success 201 {object} models.Question
// @Router /assessments/{id}/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), assessmentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ListQuestions lists the questions of an assessment in display order
// @Summary List questions
// @Tags questions
// @Produce json
// @Param id path uint true "Assessment ID"
// @Success 200 {array} models.Question
// @Router /assessments/{id}/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	questions, err := h.questionService.List(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, questions)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), assessmentID, questionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// UpdateQuestion patches a question. A supplied choice list replaces the
// stored one: listed ids are updated, new entries created, the rest deleted.
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Assessment ID"
// @Param question_id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Fields to change"
// @Success 200 {object} models.Question
// @Router /assessments/{id}/questions/{question_id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), assessmentID, questionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	h.LogRequest(c, "Deleting question", "assessment_id", assessmentID, "question_id", questionID)

	if err := h.questionService.Delete(c.Request.Context(), assessmentID, questionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ===== DIAGNOSTICS =====

func (h *QuestionHandler) CreateDiagnostic(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	var req services.CreateDiagnosticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	diagnostic, err := h.diagnosticService.Create(c.Request.Context(), assessmentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, diagnostic)
}

func (h *QuestionHandler) ListDiagnostics(c *gin.Context) {
	assessmentID := h.parseIDParam(c, "id")
	if assessmentID == 0 {
		return
	}

	diagnostics, err := h.diagnosticService.List(c.Request.Context(), assessmentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, diagnostics)
}
