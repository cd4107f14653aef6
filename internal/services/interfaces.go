package services

import (
	"context"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/events"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type CreateAssessmentRequest = validator.AssessmentCreateRequest
type UpdateAssessmentRequest = validator.AssessmentUpdateRequest
type CreateQuestionRequest = validator.QuestionCreateRequest
type UpdateQuestionRequest = validator.QuestionUpdateRequest
type CreateDiagnosticRequest = validator.DiagnosticCreateRequest
type CreateExamineeRequest = validator.ExamineeCreateRequest
type UpdateExamineeRequest = validator.ExamineeUpdateRequest
type CreateUserRequest = validator.UserCreateRequest
type UpdateUserRequest = validator.UserUpdateRequest
type CreateAccountRequest = validator.AccountCreateRequest
type UpdateAccountRequest = validator.AccountUpdateRequest
type CreateResponseRequest = validator.ResponseCreateRequest
type SubmitAnswersRequest = validator.SubmitAnswersRequest
type ChangeStatusRequest = validator.ChangeStatusRequest
type LoginRequest = validator.LoginRequest
type RefreshRequest = validator.RefreshRequest
type PasswordResetRequest = validator.PasswordResetRequest
type PasswordResetConfirmRequest = validator.PasswordResetConfirmRequest

type AssessmentListResponse struct {
	Assessments []*models.Assessment `json:"assessments"`
	Total       int64                `json:"total"`
	Limit       int                  `json:"limit"`
	Offset      int                  `json:"offset"`
}

type ResponseListResponse struct {
	Responses []*models.AssessmentResponse `json:"responses"`
	Total     int64                        `json:"total"`
	Limit     int                          `json:"limit"`
	Offset    int                          `json:"offset"`
}

type ExamineeListResponse struct {
	Examinees []*models.Examinee `json:"examinees"`
	Total     int64              `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}

type UserListResponse struct {
	Users  []*models.User `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type AccountListResponse struct {
	Accounts []*models.Account `json:"accounts"`
	Total    int64             `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// TokenResponse is what the token endpoints return.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	Email        string `json:"email"`
}

// ExportFile is a rendered spreadsheet ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ===== SERVICE INTERFACES =====

type AssessmentService interface {
	Create(ctx context.Context, req *CreateAssessmentRequest) (*models.Assessment, error)
	GetByID(ctx context.Context, id uint) (*models.Assessment, error)
	List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	Update(ctx context.Context, id uint, req *UpdateAssessmentRequest) (*models.Assessment, error)
	Delete(ctx context.Context, id uint) error
}

// QuestionService manages questions scoped to one assessment. A question
// addressed through the wrong assessment is reported as not found.
type QuestionService interface {
	Create(ctx context.Context, assessmentID uint, req *CreateQuestionRequest) (*models.Question, error)
	GetByID(ctx context.Context, assessmentID, questionID uint) (*models.Question, error)
	List(ctx context.Context, assessmentID uint) ([]*models.Question, error)
	Update(ctx context.Context, assessmentID, questionID uint, req *UpdateQuestionRequest) (*models.Question, error)
	Delete(ctx context.Context, assessmentID, questionID uint) error
}

type DiagnosticService interface {
	Create(ctx context.Context, assessmentID uint, req *CreateDiagnosticRequest) (*models.Diagnostic, error)
	List(ctx context.Context, assessmentID uint) ([]*models.Diagnostic, error)
}

// ResponseService is the response lifecycle engine.
type ResponseService interface {
	Create(ctx context.Context, assessmentID uint, req *CreateResponseRequest, creatorAccountID string) (*models.AssessmentResponse, error)
	SubmitAnswers(ctx context.Context, responseID string, req *SubmitAnswersRequest) (*models.AssessmentResponse, error)
	ChangeStatus(ctx context.Context, responseID string, req *ChangeStatusRequest) (*models.AssessmentResponse, error)
	GetByID(ctx context.Context, responseID string) (*models.AssessmentResponse, error)
	// GetPublic returns the response only while it is pending.
	GetPublic(ctx context.Context, responseID string) (*models.AssessmentResponse, error)
	List(ctx context.Context, filters repositories.ResponseFilters) (*ResponseListResponse, error)
}

type ExamineeService interface {
	Create(ctx context.Context, req *CreateExamineeRequest, creatorAccountID string) (*models.Examinee, error)
	GetByID(ctx context.Context, id string) (*models.Examinee, error)
	List(ctx context.Context, filters repositories.ExamineeFilters) (*ExamineeListResponse, error)
	Update(ctx context.Context, id string, req *UpdateExamineeRequest) (*models.Examinee, error)
	Delete(ctx context.Context, id string, hardDelete bool) error
}

type UserService interface {
	Create(ctx context.Context, req *CreateUserRequest) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filters repositories.UserFilters) (*UserListResponse, error)
	Update(ctx context.Context, id string, req *UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type AccountService interface {
	Create(ctx context.Context, req *CreateAccountRequest) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context, params repositories.ListParams) (*AccountListResponse, error)
	Update(ctx context.Context, id string, req *UpdateAccountRequest) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}

type AuthService interface {
	// Login checks credentials. clientKey identifies the caller for rate
	// limiting.
	Login(ctx context.Context, req *LoginRequest, clientKey string) (*TokenResponse, error)
	// Authenticate resolves a bearer access token to an active user.
	Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	Refresh(ctx context.Context, userID string, req *RefreshRequest) (*TokenResponse, error)
	RequestPasswordReset(ctx context.Context, req *PasswordResetRequest) error
	ConfirmPasswordReset(ctx context.Context, req *PasswordResetConfirmRequest) error
}

type ExportService interface {
	ExportResponses(ctx context.Context, assessmentID uint) (*ExportFile, error)
}

// NotificationService turns domain events into emails.
type NotificationService interface {
	Register(consumer *events.Consumer)
	HandleResponseCreated(ctx context.Context, event *events.Event) error
	HandleResponseCompleted(ctx context.Context, event *events.Event) error
	HandlePasswordResetRequested(ctx context.Context, event *events.Event) error
}

type ServiceManager interface {
	Assessment() AssessmentService
	Question() QuestionService
	Diagnostic() DiagnosticService
	Response() ResponseService
	Examinee() ExamineeService
	User() UserService
	Account() AccountService
	Auth() AuthService
	Export() ExportService
	Notification() NotificationService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
