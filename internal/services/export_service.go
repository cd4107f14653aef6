package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportSheetName = "Responses"
)

type exportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, db: db, logger: logger}
}

// ExportResponses renders one row per response of the assessment followed
// by one column per question, in question order.
func (s *exportService) ExportResponses(ctx context.Context, assessmentID uint) (*ExportFile, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, s.db, assessmentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrAssessmentNotFound, "Assessment", assessmentID)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	responses, err := s.repo.Response().ListForExport(ctx, s.db, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load responses: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(exportSheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := []any{
		excelize.Cell{StyleID: headerStyle, Value: "Response ID"},
		excelize.Cell{StyleID: headerStyle, Value: "Examinee"},
		excelize.Cell{StyleID: headerStyle, Value: "Status"},
		excelize.Cell{StyleID: headerStyle, Value: "Score"},
		excelize.Cell{StyleID: headerStyle, Value: "Created At"},
	}
	for _, q := range assessment.Questions {
		header = append(header, excelize.Cell{StyleID: headerStyle, Value: sanitizeForExcel(q.Text)})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range responses {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, exportRow(r, assessment.Questions)); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("Responses exported", "assessment_id", assessmentID, "rows", len(responses))
	return &ExportFile{
		Filename:    fmt.Sprintf("assessment-%d-responses.xlsx", assessmentID),
		ContentType: xlsxContentType,
		Data:        buf.Bytes(),
	}, nil
}

func exportRow(r *models.AssessmentResponse, questions []models.Question) []any {
	examinee := ""
	if r.Examinee != nil {
		examinee = sanitizeForExcel(r.Examinee.FullName())
	}
	var score any = ""
	if r.Score != nil {
		score = *r.Score
	}

	row := []any{r.ID, examinee, string(r.Status), score, r.CreatedAt.UTC().Format(time.RFC3339)}

	answers := make(map[uint]models.QuestionResponse, len(r.QuestionResponses))
	for _, qr := range r.QuestionResponses {
		answers[qr.QuestionID] = qr
	}
	for _, q := range questions {
		qr, ok := answers[q.ID]
		switch {
		case !ok:
			row = append(row, "")
		case qr.NumericValue != nil:
			row = append(row, *qr.NumericValue)
		case qr.TextValue != nil:
			row = append(row, sanitizeForExcel(*qr.TextValue))
		default:
			row = append(row, "")
		}
	}
	return row
}

// sanitizeForExcel stops user text from being evaluated as a formula.
func sanitizeForExcel(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
