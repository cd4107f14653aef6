package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"gorm.io/gorm"
)

type questionService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *questionService) Create(ctx context.Context, assessmentID uint, req *CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.ensureAssessment(ctx, assessmentID); err != nil {
		return nil, err
	}

	question := &models.Question{
		Text:         req.Text,
		Order:        req.Order,
		AssessmentID: assessmentID,
		Choices:      toChoices(req.Choices),
	}
	for i := range question.Choices {
		question.Choices[i].ID = 0
	}

	if err := s.repo.Question().Create(ctx, s.db, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question created", "assessment_id", assessmentID, "question_id", question.ID, "choices", len(question.Choices))
	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, assessmentID, questionID uint) (*models.Question, error) {
	return s.getScoped(ctx, s.repo, assessmentID, questionID)
}

func (s *questionService) List(ctx context.Context, assessmentID uint) ([]*models.Question, error) {
	if err := s.ensureAssessment(ctx, assessmentID); err != nil {
		return nil, err
	}
	questions, err := s.repo.Question().GetByAssessment(ctx, s.db, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

// Update patches text and order and, when a choice list is supplied,
// reconciles the stored choices against it. Everything runs in one
// transaction.
func (s *questionService) Update(ctx context.Context, assessmentID, questionID uint, req *UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		question, err := s.getScoped(ctx, txRepo, assessmentID, questionID)
		if err != nil {
			return err
		}

		if req.Text != nil {
			question.Text = *req.Text
		}
		if req.Order != nil {
			question.Order = *req.Order
		}
		if err := txRepo.Question().Update(ctx, nil, question); err != nil {
			return fmt.Errorf("failed to update question: %w", err)
		}

		if req.Choices == nil {
			return nil
		}
		if err := txRepo.Question().ReconcileChoices(ctx, nil, questionID, toChoices(*req.Choices)); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return validator.NewValidationError("choices", fmt.Sprintf("contains a choice that does not belong to question %d", questionID), nil)
			}
			if repositories.IsForeignKeyError(err) {
				return &InUseError{Resource: "Choice of question", ID: questionID}
			}
			return fmt.Errorf("failed to update choices: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Question updated", "assessment_id", assessmentID, "question_id", questionID)
	return s.getScoped(ctx, s.repo, assessmentID, questionID)
}

func (s *questionService) Delete(ctx context.Context, assessmentID, questionID uint) error {
	if _, err := s.getScoped(ctx, s.repo, assessmentID, questionID); err != nil {
		return err
	}
	if err := s.repo.Question().Delete(ctx, s.db, questionID); err != nil {
		if repositories.IsNotFoundError(err) {
			return newNotFound(ErrQuestionNotFound, "Question", questionID)
		}
		if repositories.IsForeignKeyError(err) {
			return &InUseError{Resource: "Question", ID: questionID}
		}
		return fmt.Errorf("failed to delete question: %w", err)
	}
	s.logger.Info("Question deleted", "assessment_id", assessmentID, "question_id", questionID)
	return nil
}

// getScoped loads a question and hides it when it belongs to another
// assessment.
func (s *questionService) getScoped(ctx context.Context, repo repositories.Repository, assessmentID, questionID uint) (*models.Question, error) {
	question, err := repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrQuestionNotFound, "Question", questionID)
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if question.AssessmentID != assessmentID {
		return nil, newNotFound(ErrQuestionNotFound, "Question", questionID)
	}
	return question, nil
}

func (s *questionService) ensureAssessment(ctx context.Context, assessmentID uint) error {
	exists, err := s.repo.Assessment().Exists(ctx, s.db, assessmentID)
	if err != nil {
		return fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return newNotFound(ErrAssessmentNotFound, "Assessment", assessmentID)
	}
	return nil
}

func toChoices(reqs []validator.ChoiceRequest) []models.Choice {
	choices := make([]models.Choice, 0, len(reqs))
	for _, c := range reqs {
		choice := models.Choice{Text: c.Text, Value: c.Value, Order: c.Order}
		if c.ID != nil {
			choice.ID = *c.ID
		}
		choices = append(choices, choice)
	}
	return choices
}

// ===== DIAGNOSTICS =====

type diagnosticService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewDiagnosticService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) DiagnosticService {
	return &diagnosticService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *diagnosticService) Create(ctx context.Context, assessmentID uint, req *CreateDiagnosticRequest) (*models.Diagnostic, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validator.ValidateDiagnosticBand(req.MinValue, req.MaxValue); err != nil {
		return nil, err
	}

	exists, err := s.repo.Assessment().Exists(ctx, s.db, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, newNotFound(ErrAssessmentNotFound, "Assessment", assessmentID)
	}

	diagnostic := &models.Diagnostic{
		MinValue:     req.MinValue,
		MaxValue:     req.MaxValue,
		Description:  req.Description,
		AssessmentID: assessmentID,
	}
	if err := s.repo.Diagnostic().Create(ctx, s.db, diagnostic); err != nil {
		return nil, fmt.Errorf("failed to create diagnostic: %w", err)
	}
	return diagnostic, nil
}

func (s *diagnosticService) List(ctx context.Context, assessmentID uint) ([]*models.Diagnostic, error) {
	exists, err := s.repo.Assessment().Exists(ctx, s.db, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, newNotFound(ErrAssessmentNotFound, "Assessment", assessmentID)
	}
	diagnostics, err := s.repo.Diagnostic().GetByAssessment(ctx, s.db, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnostics: %w", err)
	}
	return diagnostics, nil
}
