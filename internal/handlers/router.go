package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	questionHandler   *QuestionHandler
	responseHandler   *ResponseHandler
	examineeHandler   *ExamineeHandler
	userHandler       *UserHandler
	authHandler       *AuthHandler
	authMiddleware    *AuthMiddleware
	health            func(ctx context.Context) error
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(serviceManager.Assessment(), serviceManager.Response(), serviceManager.Export(), logger),
		questionHandler:   NewQuestionHandler(serviceManager.Question(), serviceManager.Diagnostic(), logger),
		responseHandler:   NewResponseHandler(serviceManager.Response(), logger),
		examineeHandler:   NewExamineeHandler(serviceManager.Examinee(), logger),
		userHandler:       NewUserHandler(serviceManager.User(), serviceManager.Account(), logger),
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		authMiddleware:    NewAuthMiddleware(serviceManager.Auth(), logger),
		health:            serviceManager.HealthCheck,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	requireAuth := hm.authMiddleware.RequireAuth()
	adminOnly := hm.authMiddleware.RequireRole(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/token", hm.authHandler.Login)
			auth.POST("/reset-password/request", hm.authHandler.RequestPasswordReset)
			auth.POST("/reset-password/confirm", hm.authHandler.ConfirmPasswordReset)
			auth.POST("/logout", requireAuth, hm.authHandler.Logout)
			auth.POST("/refresh", requireAuth, hm.authHandler.Refresh)
		}

		assessments := v1.Group("/assessments")
		{
			// Public so the questionnaire page can render questions and choices
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)

			assessments.POST("", requireAuth, hm.assessmentHandler.CreateAssessment)
			assessments.GET("", requireAuth, hm.assessmentHandler.ListAssessments)
			assessments.PUT("/:id", requireAuth, hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", requireAuth, hm.assessmentHandler.DeleteAssessment)

			assessments.POST("/:id/questions", requireAuth, hm.questionHandler.CreateQuestion)
			assessments.GET("/:id/questions", requireAuth, hm.questionHandler.ListQuestions)
			assessments.GET("/:id/questions/:question_id", requireAuth, hm.questionHandler.GetQuestion)
			assessments.PUT("/:id/questions/:question_id", requireAuth, hm.questionHandler.UpdateQuestion)
			assessments.DELETE("/:id/questions/:question_id", requireAuth, hm.questionHandler.DeleteQuestion)

			assessments.POST("/:id/diagnostics", requireAuth, hm.questionHandler.CreateDiagnostic)
			assessments.GET("/:id/diagnostics", requireAuth, hm.questionHandler.ListDiagnostics)

			assessments.POST("/:id/responses", requireAuth, hm.assessmentHandler.CreateResponse)
			assessments.GET("/:id/responses", requireAuth, hm.assessmentHandler.ListAssessmentResponses)
			assessments.GET("/:id/responses/export", requireAuth, hm.assessmentHandler.ExportResponses)
		}

		responses := v1.Group("/responses")
		{
			responses.GET("", requireAuth, hm.responseHandler.ListResponses)
			responses.GET("/public/:id", hm.responseHandler.GetPublicResponse)
			responses.GET("/:id", hm.authMiddleware.OptionalAuth(), hm.responseHandler.GetResponse)
			responses.PUT("/:id", hm.responseHandler.SubmitAnswers)
			responses.PATCH("/:id/change-status", requireAuth, hm.responseHandler.ChangeStatus)
		}

		examinees := v1.Group("/examinees")
		examinees.Use(requireAuth)
		{
			examinees.POST("", hm.examineeHandler.CreateExaminee)
			examinees.GET("", hm.examineeHandler.ListExaminees)
			examinees.GET("/:id", hm.examineeHandler.GetExaminee)
			examinees.PUT("/:id", hm.examineeHandler.UpdateExaminee)
			examinees.DELETE("/:id", hm.examineeHandler.DeleteExaminee)
		}

		users := v1.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("", hm.userHandler.ListUsers)
			users.GET("/me", hm.userHandler.GetCurrentUser)
			users.GET("/:id", hm.userHandler.GetUser)
			users.POST("", adminOnly, hm.userHandler.CreateUser)
			users.PUT("/:id", adminOnly, hm.userHandler.UpdateUser)
			users.DELETE("/:id", adminOnly, hm.userHandler.DeleteUser)
		}

		accounts := v1.Group("/accounts")
		accounts.Use(requireAuth, adminOnly)
		{
			accounts.POST("", hm.userHandler.CreateAccount)
			accounts.GET("", hm.userHandler.ListAccounts)
			accounts.GET("/:id", hm.userHandler.GetAccount)
			accounts.PUT("/:id", hm.userHandler.UpdateAccount)
			accounts.DELETE("/:id", hm.userHandler.DeleteAccount)
		}
	}

	router.GET("/health", hm.healthCheck)
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := hm.health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": "assessment-service",
			"error":   err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "assessment-service",
	})
}
