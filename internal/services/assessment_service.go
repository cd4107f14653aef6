package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"gorm.io/gorm"
)

type assessmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewAssessmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) AssessmentService {
	return &assessmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest) (*models.Assessment, error) {
	s.logger.Info("Creating assessment", "title", req.Title, "scoring_method", req.ScoringMethod)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	minValue, maxValue, err := validator.ResolveBounds(req.ScoringMethod, req.MinValue, req.MaxValue)
	if err != nil {
		return nil, err
	}

	assessment := &models.Assessment{
		Title:         req.Title,
		Description:   req.Description,
		ScoringMethod: req.ScoringMethod,
		MinValue:      minValue,
		MaxValue:      maxValue,
	}
	if err := s.repo.Assessment().Create(ctx, s.db, assessment); err != nil {
		return nil, fmt.Errorf("failed to create assessment: %w", err)
	}

	s.logger.Info("Assessment created successfully", "assessment_id", assessment.ID)
	return assessment, nil
}

func (s *assessmentService) GetByID(ctx context.Context, id uint) (*models.Assessment, error) {
	assessment, err := s.repo.Assessment().GetByIDWithDetails(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrAssessmentNotFound, "Assessment", id)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	return assessment, nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)

	assessments, total, err := s.repo.Assessment().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	return &AssessmentListResponse{
		Assessments: assessments,
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}, nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, req *UpdateAssessmentRequest) (*models.Assessment, error) {
	s.logger.Info("Updating assessment", "assessment_id", id)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrAssessmentNotFound, "Assessment", id)
		}
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}

	if err := applyAssessmentPatch(assessment, req); err != nil {
		return nil, err
	}

	if err := s.repo.Assessment().Update(ctx, s.db, assessment); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrAssessmentNotFound, "Assessment", id)
		}
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	s.logger.Info("Assessment updated successfully", "assessment_id", id)
	return s.GetByID(ctx, id)
}

func (s *assessmentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Assessment().Delete(ctx, s.db, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return newNotFound(ErrAssessmentNotFound, "Assessment", id)
		}
		if repositories.IsForeignKeyError(err) {
			return &InUseError{Resource: "Assessment", ID: id}
		}
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	s.logger.Info("Assessment deleted", "assessment_id", id)
	return nil
}

// applyAssessmentPatch copies the set fields of req onto a. Switching to a
// method with default bounds resets them unless new bounds are given; custom
// scoring keeps the stored bounds as the fallback.
func applyAssessmentPatch(a *models.Assessment, req *UpdateAssessmentRequest) error {
	if req.Title != nil {
		a.Title = *req.Title
	}
	if req.Description != nil {
		a.Description = req.Description
	}

	method := a.ScoringMethod
	if req.ScoringMethod != nil {
		method = *req.ScoringMethod
	}

	minValue, maxValue := req.MinValue, req.MaxValue
	if req.ScoringMethod == nil || method == models.ScoringCustom {
		storedMin, storedMax := a.MinValue, a.MaxValue
		if minValue == nil {
			minValue = &storedMin
		}
		if maxValue == nil {
			maxValue = &storedMax
		}
	}

	lo, hi, err := validator.ResolveBounds(method, minValue, maxValue)
	if err != nil {
		return err
	}
	a.ScoringMethod = method
	a.MinValue, a.MaxValue = lo, hi
	return nil
}
