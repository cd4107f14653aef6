package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
)

func newTestAssessmentService(repo *mockRepository) AssessmentService {
	return NewAssessmentService(repo, nil, testLogger(), validator.New())
}

func TestAssessmentService_Create_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		method  models.ScoringMethod
		min     *float64
		max     *float64
		wantMin float64
		wantMax float64
	}{
		{name: "boolean defaults", method: models.ScoringBoolean, wantMin: 0, wantMax: 1},
		{name: "scored defaults", method: models.ScoringScored, wantMin: -1, wantMax: 1},
		{name: "scored override", method: models.ScoringScored, min: ptr(-3.0), max: ptr(3.0), wantMin: -3, wantMax: 3},
		{name: "custom", method: models.ScoringCustom, min: ptr(0.0), max: ptr(27.0), wantMin: 0, wantMax: 27},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc := newTestAssessmentService(repo)

			repo.assessment.On("Create", mock.AnythingOfType("*models.Assessment")).Return(nil)

			a, err := svc.Create(context.Background(), &CreateAssessmentRequest{
				Title:         "PHQ-9",
				ScoringMethod: tt.method,
				MinValue:      tt.min,
				MaxValue:      tt.max,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMin, a.MinValue)
			assert.Equal(t, tt.wantMax, a.MaxValue)
		})
	}
}

func TestAssessmentService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name string
		req  CreateAssessmentRequest
		rule string
	}{
		{name: "custom without bounds", req: CreateAssessmentRequest{Title: "GAD-7", ScoringMethod: models.ScoringCustom}, rule: "custom_bounds"},
		{name: "inverted bounds", req: CreateAssessmentRequest{Title: "GAD-7", ScoringMethod: models.ScoringScored, MinValue: ptr(2.0), MaxValue: ptr(1.0)}, rule: "bounds_order"},
		{name: "unknown method", req: CreateAssessmentRequest{Title: "GAD-7", ScoringMethod: "weighted"}, rule: "scoring_method"},
		{name: "missing title", req: CreateAssessmentRequest{ScoringMethod: models.ScoringBoolean}, rule: "required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			svc := newTestAssessmentService(repo)

			_, err := svc.Create(context.Background(), &tt.req)

			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.rule, verrs[0].Rule)
			repo.assessment.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestAssessmentService_Update_MethodSwitch(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAssessmentService(repo)

	stored := &models.Assessment{ID: 3, Title: "Custom", ScoringMethod: models.ScoringCustom, MinValue: 0, MaxValue: 27}
	repo.assessment.On("GetByID", uint(3)).Return(stored, nil)
	repo.assessment.On("Update", mock.MatchedBy(func(a *models.Assessment) bool {
		return a.ScoringMethod == models.ScoringBoolean && a.MinValue == 0 && a.MaxValue == 1
	})).Return(nil)
	repo.assessment.On("GetByIDWithDetails", uint(3)).Return(stored, nil)

	method := models.ScoringBoolean
	_, err := svc.Update(context.Background(), 3, &UpdateAssessmentRequest{ScoringMethod: &method})
	require.NoError(t, err)
	repo.assessment.AssertExpectations(t)
}

func TestAssessmentService_Update_KeepsStoredBounds(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAssessmentService(repo)

	stored := &models.Assessment{ID: 3, Title: "Custom", ScoringMethod: models.ScoringCustom, MinValue: 0, MaxValue: 27}
	repo.assessment.On("GetByID", uint(3)).Return(stored, nil)
	repo.assessment.On("Update", mock.MatchedBy(func(a *models.Assessment) bool {
		return a.Title == "Renamed" && a.MinValue == 0 && a.MaxValue == 27
	})).Return(nil)
	repo.assessment.On("GetByIDWithDetails", uint(3)).Return(stored, nil)

	_, err := svc.Update(context.Background(), 3, &UpdateAssessmentRequest{Title: ptr("Renamed")})
	require.NoError(t, err)
}

func TestAssessmentService_Update_InvertedBounds(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAssessmentService(repo)

	repo.assessment.On("GetByID", uint(3)).Return(&models.Assessment{ID: 3, ScoringMethod: models.ScoringScored, MinValue: -1, MaxValue: 1}, nil)

	_, err := svc.Update(context.Background(), 3, &UpdateAssessmentRequest{MinValue: ptr(5.0)})

	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	repo.assessment.AssertNotCalled(t, "Update", mock.Anything)
}

func TestAssessmentService_NotFound(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAssessmentService(repo)

	repo.assessment.On("GetByIDWithDetails", uint(42)).Return(nil, gorm.ErrRecordNotFound)
	repo.assessment.On("GetByID", uint(42)).Return(nil, gorm.ErrRecordNotFound)
	repo.assessment.On("Delete", uint(42)).Return(repositories.ErrNotFound)

	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
	assert.EqualError(t, err, "Assessment with id 42 not found")

	_, err = svc.Update(context.Background(), 42, &UpdateAssessmentRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrAssessmentNotFound)

	err = svc.Delete(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestAssessmentService_List_NormalizesPage(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAssessmentService(repo)

	repo.assessment.On("List", repositories.AssessmentFilters{Limit: 1000, Offset: 0}).
		Return([]*models.Assessment{{ID: 1}}, int64(1), nil)

	resp, err := svc.List(context.Background(), repositories.AssessmentFilters{Limit: 5000, Offset: -4})
	require.NoError(t, err)
	assert.Equal(t, 1000, resp.Limit)
	assert.Equal(t, int64(1), resp.Total)
	assert.Len(t, resp.Assessments, 1)
}

func TestAssessmentService_Delete_WithResponses(t *testing.T) {
	repo := newMockRepository()
	svc := newTestAssessmentService(repo)

	repo.assessment.On("Delete", uint(7)).
		Return(fmt.Errorf("failed to delete assessment: %w", gorm.ErrForeignKeyViolated))

	err := svc.Delete(context.Background(), 7)
	assert.ErrorIs(t, err, ErrResourceInUse)
	assert.NotErrorIs(t, err, ErrAssessmentNotFound)
}
