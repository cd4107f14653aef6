package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const birthDateLayout = "2006-01-02"

type examineeService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamineeService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) ExamineeService {
	return &examineeService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
	}
}

func (s *examineeService) Create(ctx context.Context, req *CreateExamineeRequest, creatorAccountID string) (*models.Examinee, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	birthDate, err := parseBirthDate(req.BirthDate)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email, nil); err != nil {
		return nil, err
	}

	examinee := &models.Examinee{
		ID:                 uuid.NewString(),
		FirstName:          strings.TrimSpace(req.FirstName),
		MiddleName:         req.MiddleName,
		LastName:           strings.TrimSpace(req.LastName),
		BirthDate:          birthDate,
		Gender:             req.Gender,
		Email:              req.Email,
		InternalIdentifier: req.InternalIdentifier,
		Comments:           req.Comments,
	}
	if creatorAccountID != "" {
		examinee.CreatedBy = &creatorAccountID
	}

	if err := s.repo.Examinee().Create(ctx, s.db, examinee); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("failed to create examinee: %w", err)
	}

	s.logger.Info("Examinee created", "examinee_id", examinee.ID)
	return examinee, nil
}

func (s *examineeService) GetByID(ctx context.Context, id string) (*models.Examinee, error) {
	examinee, err := s.repo.Examinee().GetByID(ctx, s.db, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrExamineeNotFound, "Examinee", id)
		}
		return nil, fmt.Errorf("failed to get examinee: %w", err)
	}
	return examinee, nil
}

func (s *examineeService) List(ctx context.Context, filters repositories.ExamineeFilters) (*ExamineeListResponse, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)

	examinees, total, err := s.repo.Examinee().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list examinees: %w", err)
	}
	return &ExamineeListResponse{
		Examinees: examinees,
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}

func (s *examineeService) Update(ctx context.Context, id string, req *UpdateExamineeRequest) (*models.Examinee, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	examinee, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && !strings.EqualFold(*req.Email, examinee.Email) {
		if err := s.ensureEmailFree(ctx, *req.Email, &id); err != nil {
			return nil, err
		}
		examinee.Email = *req.Email
	}
	if req.FirstName != nil {
		examinee.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.MiddleName != nil {
		examinee.MiddleName = req.MiddleName
	}
	if req.LastName != nil {
		examinee.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.BirthDate != nil {
		birthDate, err := parseBirthDate(*req.BirthDate)
		if err != nil {
			return nil, err
		}
		examinee.BirthDate = birthDate
	}
	if req.Gender != nil {
		examinee.Gender = *req.Gender
	}
	if req.InternalIdentifier != nil {
		examinee.InternalIdentifier = req.InternalIdentifier
	}
	if req.Comments != nil {
		examinee.Comments = req.Comments
	}

	if err := s.repo.Examinee().Update(ctx, s.db, examinee); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailAlreadyRegistered
		}
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrExamineeNotFound, "Examinee", id)
		}
		return nil, fmt.Errorf("failed to update examinee: %w", err)
	}

	s.logger.Info("Examinee updated", "examinee_id", id)
	return examinee, nil
}

// Delete soft-deletes by default. A hard delete removes the row for good.
func (s *examineeService) Delete(ctx context.Context, id string, hardDelete bool) error {
	var err error
	if hardDelete {
		err = s.repo.Examinee().HardDelete(ctx, s.db, id)
	} else {
		err = s.repo.Examinee().SoftDelete(ctx, s.db, id)
	}
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return newNotFound(ErrExamineeNotFound, "Examinee", id)
		}
		return fmt.Errorf("failed to delete examinee: %w", err)
	}

	s.logger.Info("Examinee deleted", "examinee_id", id, "hard_delete", hardDelete)
	return nil
}

func (s *examineeService) ensureEmailFree(ctx context.Context, email string, excludeID *string) error {
	taken, err := s.repo.Examinee().ExistsByEmail(ctx, s.db, email, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check examinee email: %w", err)
	}
	if taken {
		return ErrEmailAlreadyRegistered
	}
	return nil
}

func parseBirthDate(value string) (datatypes.Date, error) {
	t, err := time.Parse(birthDateLayout, value)
	if err != nil {
		return datatypes.Date{}, validator.NewValidationError("birth_date", "must be a date in the format 2006-01-02", value)
	}
	if t.After(time.Now()) {
		return datatypes.Date{}, validator.NewValidationError("birth_date", "must not be in the future", value)
	}
	return datatypes.Date(t), nil
}
