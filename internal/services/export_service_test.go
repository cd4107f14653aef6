package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/hazelton-clinic/assessment-service/internal/models"
)

func TestExportService_ExportResponses(t *testing.T) {
	repo := newMockRepository()
	svc := NewExportService(repo, nil, testLogger())

	assessment := &models.Assessment{
		ID: 4,
		Questions: []models.Question{
			{ID: 10, Text: "Feeling nervous"},
			{ID: 11, Text: "=cmd|' /C calc'!A0"},
		},
	}
	responses := []*models.AssessmentResponse{
		{
			ID:        "r1",
			Status:    models.ResponseCompleted,
			Score:     ptr(2.5),
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Examinee:  &models.Examinee{FirstName: "Jo", LastName: "Doe"},
			QuestionResponses: []models.QuestionResponse{
				{QuestionID: 10, NumericValue: ptr(2.5)},
				{QuestionID: 11, TextValue: ptr("+1 555 0100")},
			},
		},
		{ID: "r2", Status: models.ResponsePending, CreatedAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	repo.assessment.On("GetByIDWithDetails", uint(4)).Return(assessment, nil)
	repo.response.On("ListForExport", uint(4)).Return(responses, nil)

	file, err := svc.ExportResponses(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "assessment-4-responses.xlsx", file.Filename)
	assert.Equal(t, xlsxContentType, file.ContentType)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(exportSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Response ID", "Examinee", "Status", "Score", "Created At", "Feeling nervous", "'=cmd|' /C calc'!A0"}, rows[0])
	assert.Equal(t, []string{"r1", "Jo Doe", "completed", "2.5", "2026-01-02T03:04:05Z", "2.5", "'+1 555 0100"}, rows[1])
	assert.Equal(t, "r2", rows[2][0])
	assert.Equal(t, "pending", rows[2][2])
}

func TestExportService_UnknownAssessment(t *testing.T) {
	repo := newMockRepository()
	svc := NewExportService(repo, nil, testLogger())

	repo.assessment.On("GetByIDWithDetails", uint(4)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.ExportResponses(context.Background(), 4)
	assert.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestSanitizeForExcel(t *testing.T) {
	tests := map[string]string{
		"":          "",
		"plain":     "plain",
		"=1+1":      "'=1+1",
		"@SUM(A1)":  "'@SUM(A1)",
		"-2":        "'-2",
		"\tindent":  "'\tindent",
		"mid=value": "mid=value",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeForExcel(in), in)
	}
}
