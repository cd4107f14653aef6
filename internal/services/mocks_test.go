package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockRepository hands out testify mocks. WithTransaction runs fn against the
// same mocks and counts how often it was entered.
type mockRepository struct {
	assessment       *mockAssessmentRepo
	question         *mockQuestionRepo
	diagnostic       *mockDiagnosticRepo
	user             *mockUserRepo
	account          *mockAccountRepo
	examinee         *mockExamineeRepo
	response         *mockResponseRepo
	questionResponse *mockQuestionResponseRepo

	transactions int
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		assessment:       &mockAssessmentRepo{},
		question:         &mockQuestionRepo{},
		diagnostic:       &mockDiagnosticRepo{},
		user:             &mockUserRepo{},
		account:          &mockAccountRepo{},
		examinee:         &mockExamineeRepo{},
		response:         &mockResponseRepo{},
		questionResponse: &mockQuestionResponseRepo{},
	}
}

func (m *mockRepository) Assessment() repositories.AssessmentRepository { return m.assessment }
func (m *mockRepository) Question() repositories.QuestionRepository     { return m.question }
func (m *mockRepository) Diagnostic() repositories.DiagnosticRepository { return m.diagnostic }
func (m *mockRepository) User() repositories.UserRepository             { return m.user }
func (m *mockRepository) Account() repositories.AccountRepository       { return m.account }
func (m *mockRepository) Examinee() repositories.ExamineeRepository     { return m.examinee }
func (m *mockRepository) Response() repositories.ResponseRepository     { return m.response }
func (m *mockRepository) QuestionResponse() repositories.QuestionResponseRepository {
	return m.questionResponse
}
func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	m.transactions++
	return fn(m)
}
func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== ASSESSMENTS =====

type mockAssessmentRepo struct{ mock.Mock }

func (m *mockAssessmentRepo) Create(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	return m.Called(a).Error(0)
}
func (m *mockAssessmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	args := m.Called(id)
	a, _ := args.Get(0).(*models.Assessment)
	return a, args.Error(1)
}
func (m *mockAssessmentRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	args := m.Called(id)
	a, _ := args.Get(0).(*models.Assessment)
	return a, args.Error(1)
}
func (m *mockAssessmentRepo) List(ctx context.Context, tx *gorm.DB, f repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	args := m.Called(f)
	list, _ := args.Get(0).([]*models.Assessment)
	return list, args.Get(1).(int64), args.Error(2)
}
func (m *mockAssessmentRepo) Update(ctx context.Context, tx *gorm.DB, a *models.Assessment) error {
	return m.Called(a).Error(0)
}
func (m *mockAssessmentRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return m.Called(id).Error(0)
}
func (m *mockAssessmentRepo) Exists(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	args := m.Called(id)
	return args.Bool(0), args.Error(1)
}

type mockQuestionRepo struct{ mock.Mock }

func (m *mockQuestionRepo) Create(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	return m.Called(q).Error(0)
}
func (m *mockQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	args := m.Called(id)
	q, _ := args.Get(0).(*models.Question)
	return q, args.Error(1)
}
func (m *mockQuestionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Question, error) {
	args := m.Called(ids)
	list, _ := args.Get(0).([]*models.Question)
	return list, args.Error(1)
}
func (m *mockQuestionRepo) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error) {
	args := m.Called(assessmentID)
	list, _ := args.Get(0).([]*models.Question)
	return list, args.Error(1)
}
func (m *mockQuestionRepo) Update(ctx context.Context, tx *gorm.DB, q *models.Question) error {
	return m.Called(q).Error(0)
}
func (m *mockQuestionRepo) ReconcileChoices(ctx context.Context, tx *gorm.DB, questionID uint, choices []models.Choice) error {
	return m.Called(questionID, choices).Error(0)
}
func (m *mockQuestionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	return m.Called(id).Error(0)
}

type mockDiagnosticRepo struct{ mock.Mock }

func (m *mockDiagnosticRepo) Create(ctx context.Context, tx *gorm.DB, d *models.Diagnostic) error {
	return m.Called(d).Error(0)
}
func (m *mockDiagnosticRepo) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Diagnostic, error) {
	args := m.Called(assessmentID)
	list, _ := args.Get(0).([]*models.Diagnostic)
	return list, args.Error(1)
}

// ===== PEOPLE =====

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, tx *gorm.DB, u *models.User) error {
	return m.Called(u).Error(0)
}
func (m *mockUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	args := m.Called(id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *mockUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	args := m.Called(email)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *mockUserRepo) GetByResetToken(ctx context.Context, tx *gorm.DB, token string) (*models.User, error) {
	args := m.Called(token)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}
func (m *mockUserRepo) List(ctx context.Context, tx *gorm.DB, f repositories.UserFilters) ([]*models.User, int64, error) {
	args := m.Called(f)
	list, _ := args.Get(0).([]*models.User)
	return list, args.Get(1).(int64), args.Error(2)
}
func (m *mockUserRepo) Update(ctx context.Context, tx *gorm.DB, u *models.User) error {
	return m.Called(u).Error(0)
}
func (m *mockUserRepo) SetResetToken(ctx context.Context, tx *gorm.DB, id string, token *string, expires *time.Time) error {
	return m.Called(id, token, expires).Error(0)
}
func (m *mockUserRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id string) error {
	return m.Called(id).Error(0)
}
func (m *mockUserRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *string) (bool, error) {
	args := m.Called(email, excludeID)
	return args.Bool(0), args.Error(1)
}

type mockAccountRepo struct{ mock.Mock }

func (m *mockAccountRepo) Create(ctx context.Context, tx *gorm.DB, a *models.Account) error {
	return m.Called(a).Error(0)
}
func (m *mockAccountRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Account, error) {
	args := m.Called(id)
	a, _ := args.Get(0).(*models.Account)
	return a, args.Error(1)
}
func (m *mockAccountRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.Account, error) {
	args := m.Called(userID)
	a, _ := args.Get(0).(*models.Account)
	return a, args.Error(1)
}
func (m *mockAccountRepo) List(ctx context.Context, tx *gorm.DB, p repositories.ListParams) ([]*models.Account, int64, error) {
	args := m.Called(p)
	list, _ := args.Get(0).([]*models.Account)
	return list, args.Get(1).(int64), args.Error(2)
}
func (m *mockAccountRepo) Update(ctx context.Context, tx *gorm.DB, a *models.Account) error {
	return m.Called(a).Error(0)
}
func (m *mockAccountRepo) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	return m.Called(id).Error(0)
}

type mockExamineeRepo struct{ mock.Mock }

func (m *mockExamineeRepo) Create(ctx context.Context, tx *gorm.DB, e *models.Examinee) error {
	return m.Called(e).Error(0)
}
func (m *mockExamineeRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Examinee, error) {
	args := m.Called(id)
	e, _ := args.Get(0).(*models.Examinee)
	return e, args.Error(1)
}
func (m *mockExamineeRepo) List(ctx context.Context, tx *gorm.DB, f repositories.ExamineeFilters) ([]*models.Examinee, int64, error) {
	args := m.Called(f)
	list, _ := args.Get(0).([]*models.Examinee)
	return list, args.Get(1).(int64), args.Error(2)
}
func (m *mockExamineeRepo) Update(ctx context.Context, tx *gorm.DB, e *models.Examinee) error {
	return m.Called(e).Error(0)
}
func (m *mockExamineeRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id string) error {
	return m.Called(id).Error(0)
}
func (m *mockExamineeRepo) HardDelete(ctx context.Context, tx *gorm.DB, id string) error {
	return m.Called(id).Error(0)
}
func (m *mockExamineeRepo) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *string) (bool, error) {
	args := m.Called(email, excludeID)
	return args.Bool(0), args.Error(1)
}

// ===== RESPONSES =====

type mockResponseRepo struct{ mock.Mock }

func (m *mockResponseRepo) Create(ctx context.Context, tx *gorm.DB, r *models.AssessmentResponse) error {
	return m.Called(r).Error(0)
}
func (m *mockResponseRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentResponse, error) {
	args := m.Called(id)
	r, _ := args.Get(0).(*models.AssessmentResponse)
	return r, args.Error(1)
}
func (m *mockResponseRepo) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id string) (*models.AssessmentResponse, error) {
	args := m.Called(id)
	r, _ := args.Get(0).(*models.AssessmentResponse)
	return r, args.Error(1)
}
func (m *mockResponseRepo) List(ctx context.Context, tx *gorm.DB, f repositories.ResponseFilters) ([]*models.AssessmentResponse, int64, error) {
	args := m.Called(f)
	list, _ := args.Get(0).([]*models.AssessmentResponse)
	return list, args.Get(1).(int64), args.Error(2)
}
func (m *mockResponseRepo) ListForExport(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.AssessmentResponse, error) {
	args := m.Called(assessmentID)
	list, _ := args.Get(0).([]*models.AssessmentResponse)
	return list, args.Error(1)
}
func (m *mockResponseRepo) CompareAndSetStatus(ctx context.Context, tx *gorm.DB, id string, from, to models.ResponseStatus, at time.Time) (bool, error) {
	args := m.Called(id, from, to)
	return args.Bool(0), args.Error(1)
}
func (m *mockResponseRepo) CompleteIfPending(ctx context.Context, tx *gorm.DB, id string, score float64, at time.Time) (bool, error) {
	args := m.Called(id, score)
	return args.Bool(0), args.Error(1)
}
func (m *mockResponseRepo) InvalidateCache(ctx context.Context, id string) {
	m.Called(id)
}

type mockQuestionResponseRepo struct{ mock.Mock }

func (m *mockQuestionResponseRepo) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.QuestionResponse) error {
	return m.Called(answers).Error(0)
}
func (m *mockQuestionResponseRepo) GetByResponse(ctx context.Context, tx *gorm.DB, responseID string) ([]*models.QuestionResponse, error) {
	args := m.Called(responseID)
	list, _ := args.Get(0).([]*models.QuestionResponse)
	return list, args.Error(1)
}
