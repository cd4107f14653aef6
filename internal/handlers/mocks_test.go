package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/services"
	"github.com/hazelton-clinic/assessment-service/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Login(ctx context.Context, req *services.LoginRequest, clientKey string) (*services.TokenResponse, error) {
	args := m.Called(req, clientKey)
	resp, _ := args.Get(0).(*services.TokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) Authenticate(ctx context.Context, token string) (*models.User, *auth.Claims, error) {
	args := m.Called(token)
	user, _ := args.Get(0).(*models.User)
	claims, _ := args.Get(1).(*auth.Claims)
	return user, claims, args.Error(2)
}

func (m *mockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	return m.Called(claims).Error(0)
}

func (m *mockAuthService) Refresh(ctx context.Context, userID string, req *services.RefreshRequest) (*services.TokenResponse, error) {
	args := m.Called(userID, req)
	resp, _ := args.Get(0).(*services.TokenResponse)
	return resp, args.Error(1)
}

func (m *mockAuthService) RequestPasswordReset(ctx context.Context, req *services.PasswordResetRequest) error {
	return m.Called(req).Error(0)
}

func (m *mockAuthService) ConfirmPasswordReset(ctx context.Context, req *services.PasswordResetConfirmRequest) error {
	return m.Called(req).Error(0)
}

type mockResponseService struct{ mock.Mock }

func (m *mockResponseService) Create(ctx context.Context, assessmentID uint, req *services.CreateResponseRequest, creatorAccountID string) (*models.AssessmentResponse, error) {
	args := m.Called(assessmentID, req, creatorAccountID)
	resp, _ := args.Get(0).(*models.AssessmentResponse)
	return resp, args.Error(1)
}

func (m *mockResponseService) SubmitAnswers(ctx context.Context, responseID string, req *services.SubmitAnswersRequest) (*models.AssessmentResponse, error) {
	args := m.Called(responseID, req)
	resp, _ := args.Get(0).(*models.AssessmentResponse)
	return resp, args.Error(1)
}

func (m *mockResponseService) ChangeStatus(ctx context.Context, responseID string, req *services.ChangeStatusRequest) (*models.AssessmentResponse, error) {
	args := m.Called(responseID, req)
	resp, _ := args.Get(0).(*models.AssessmentResponse)
	return resp, args.Error(1)
}

func (m *mockResponseService) GetByID(ctx context.Context, responseID string) (*models.AssessmentResponse, error) {
	args := m.Called(responseID)
	resp, _ := args.Get(0).(*models.AssessmentResponse)
	return resp, args.Error(1)
}

func (m *mockResponseService) GetPublic(ctx context.Context, responseID string) (*models.AssessmentResponse, error) {
	args := m.Called(responseID)
	resp, _ := args.Get(0).(*models.AssessmentResponse)
	return resp, args.Error(1)
}

func (m *mockResponseService) List(ctx context.Context, filters repositories.ResponseFilters) (*services.ResponseListResponse, error) {
	args := m.Called(filters)
	resp, _ := args.Get(0).(*services.ResponseListResponse)
	return resp, args.Error(1)
}

type mockExportService struct{ mock.Mock }

func (m *mockExportService) ExportResponses(ctx context.Context, assessmentID uint) (*services.ExportFile, error) {
	args := m.Called(assessmentID)
	file, _ := args.Get(0).(*services.ExportFile)
	return file, args.Error(1)
}
