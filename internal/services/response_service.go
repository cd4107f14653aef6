package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/events"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"github.com/hazelton-clinic/assessment-service/internal/validator"
	"gorm.io/gorm"
)

// maxStatusChangeAttempts bounds how often ChangeStatus re-reads a response
// whose status moved underneath it.
const maxStatusChangeAttempts = 3

type responseService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	now       func() time.Time
}

func NewResponseService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ResponseService {
	return &responseService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		now:       models.NowUTC,
	}
}

// ===== LIFECYCLE =====

func (s *responseService) Create(ctx context.Context, assessmentID uint, req *CreateResponseRequest, creatorAccountID string) (*models.AssessmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.Assessment().Exists(ctx, s.db, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assessment: %w", err)
	}
	if !exists {
		return nil, newNotFound(ErrAssessmentNotFound, "Assessment", assessmentID)
	}

	if _, err := s.repo.Examinee().GetByID(ctx, s.db, req.ExamineeID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrExamineeNotFound, "Examinee", req.ExamineeID)
		}
		return nil, fmt.Errorf("failed to get examinee: %w", err)
	}

	id, err := models.NewResponseID()
	if err != nil {
		return nil, err
	}
	now := s.now()
	response := &models.AssessmentResponse{
		ID:           id,
		Status:       models.ResponsePending,
		AssessmentID: assessmentID,
		ExamineeID:   req.ExamineeID,
		CreatedBy:    creatorAccountID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Response().Create(ctx, s.db, response); err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	s.logger.Info("Response created", "response_id", id, "assessment_id", assessmentID, "examinee_id", req.ExamineeID)

	s.publish(ctx, events.ResponseCreated, events.ResponseCreatedData{
		ResponseID:   id,
		AssessmentID: assessmentID,
		ExamineeID:   req.ExamineeID,
		CreatedBy:    creatorAccountID,
	})

	return response, nil
}

// SubmitAnswers records every answer and completes the response in one
// transaction. The completion is guarded by status = pending, so of two
// concurrent submissions exactly one succeeds.
func (s *responseService) SubmitAnswers(ctx context.Context, responseID string, req *SubmitAnswersRequest) (*models.AssessmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validator.ValidateAnswers(req.QuestionResponses); err != nil {
		return nil, err
	}

	response, err := s.getResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if response.Status != models.ResponsePending {
		return nil, &InvalidResponseStateError{Status: response.Status}
	}

	if err := s.checkAnswers(ctx, response.AssessmentID, req.QuestionResponses); err != nil {
		return nil, err
	}

	rows, score := buildAnswerRows(responseID, req.QuestionResponses, s.now())
	completedAt := s.now()

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		completed, err := txRepo.Response().CompleteIfPending(ctx, nil, responseID, score, completedAt)
		if err != nil {
			return fmt.Errorf("failed to complete response: %w", err)
		}
		if !completed {
			current, err := txRepo.Response().GetByID(ctx, nil, responseID)
			if err != nil {
				return fmt.Errorf("failed to reload response: %w", err)
			}
			return &InvalidResponseStateError{Status: current.Status}
		}

		if err := txRepo.QuestionResponse().CreateBatch(ctx, nil, rows); err != nil {
			return fmt.Errorf("failed to save answers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.repo.Response().InvalidateCache(ctx, responseID)
	s.logger.Info("Response completed", "response_id", responseID, "answers", len(rows), "score", score)

	s.publish(ctx, events.ResponseCompleted, events.ResponseCompletedData{
		ResponseID:   responseID,
		AssessmentID: response.AssessmentID,
		ExamineeID:   response.ExamineeID,
		CreatedBy:    response.CreatedBy,
		Score:        score,
	})

	return s.GetByID(ctx, responseID)
}

// ChangeStatus applies a manual transition. Completion is never reachable
// from here, and the score is left as it is.
func (s *responseService) ChangeStatus(ctx context.Context, responseID string, req *ChangeStatusRequest) (*models.AssessmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	response, err := s.getResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}

	from := response.Status
	for attempt := 0; ; attempt++ {
		if req.Status == models.ResponseCompleted {
			return nil, &models.TransitionError{From: from, To: req.Status}
		}
		next, err := models.Transition(from, req.Status)
		if err != nil {
			return nil, err
		}

		changed, err := s.repo.Response().CompareAndSetStatus(ctx, s.db, responseID, from, next, s.now())
		if err != nil {
			return nil, fmt.Errorf("failed to change response status: %w", err)
		}
		if changed {
			break
		}
		if attempt == maxStatusChangeAttempts-1 {
			return nil, &models.TransitionError{From: from, To: req.Status}
		}

		// Someone else moved the response; judge the request against the
		// status it has now.
		current, err := s.getResponse(ctx, responseID)
		if err != nil {
			return nil, err
		}
		from = current.Status
	}

	s.logger.Info("Response status changed", "response_id", responseID, "from", from, "to", req.Status)

	return s.GetByID(ctx, responseID)
}

// ===== READS =====

func (s *responseService) GetByID(ctx context.Context, responseID string) (*models.AssessmentResponse, error) {
	response, err := s.repo.Response().GetByIDWithDetails(ctx, s.db, responseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrResponseNotFound, "Response", responseID)
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return response, nil
}

func (s *responseService) GetPublic(ctx context.Context, responseID string) (*models.AssessmentResponse, error) {
	response, err := s.GetByID(ctx, responseID)
	if err != nil {
		return nil, err
	}
	if response.Status != models.ResponsePending {
		return nil, NewPermissionError("", "response", "open", "response is no longer pending")
	}
	return response, nil
}

func (s *responseService) List(ctx context.Context, filters repositories.ResponseFilters) (*ResponseListResponse, error) {
	filters.Limit, filters.Offset = normalizePage(filters.Limit, filters.Offset)

	responses, total, err := s.repo.Response().List(ctx, s.db, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return &ResponseListResponse{
		Responses: responses,
		Total:     total,
		Limit:     filters.Limit,
		Offset:    filters.Offset,
	}, nil
}

// ===== HELPERS =====

func (s *responseService) getResponse(ctx context.Context, responseID string) (*models.AssessmentResponse, error) {
	response, err := s.repo.Response().GetByID(ctx, s.db, responseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, newNotFound(ErrResponseNotFound, "Response", responseID)
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return response, nil
}

// checkAnswers verifies every referenced question exists in the response's
// assessment and that a selected choice belongs to its question.
func (s *responseService) checkAnswers(ctx context.Context, assessmentID uint, answers []validator.AnswerRequest) error {
	ids := make([]uint, 0, len(answers))
	seen := make(map[uint]bool, len(answers))
	for _, a := range answers {
		if !seen[a.QuestionID] {
			seen[a.QuestionID] = true
			ids = append(ids, a.QuestionID)
		}
	}

	questions, err := s.repo.Question().GetByIDs(ctx, s.db, ids)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	byID := make(map[uint]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var invalid validator.ValidationErrors
	for i, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok || q.AssessmentID != assessmentID {
			return newNotFound(ErrQuestionNotFound, "Question", a.QuestionID)
		}
		if a.SelectedChoiceID != nil && !q.HasChoice(*a.SelectedChoiceID) {
			invalid = append(invalid, validator.ValidationError{
				Field:   fmt.Sprintf("question_responses[%d].selected_choice_id", i),
				Message: fmt.Sprintf("is not a choice of question %d", q.ID),
				Value:   *a.SelectedChoiceID,
				Rule:    "choice_of_question",
			})
		}
	}
	if len(invalid) > 0 {
		return invalid
	}
	return nil
}

// buildAnswerRows maps answers onto rows and sums their numeric values in
// submission order. Text-only answers add nothing to the score.
func buildAnswerRows(responseID string, answers []validator.AnswerRequest, at time.Time) ([]*models.QuestionResponse, float64) {
	rows := make([]*models.QuestionResponse, 0, len(answers))
	var score float64
	for _, a := range answers {
		if a.NumericValue != nil {
			score += *a.NumericValue
		}
		rows = append(rows, &models.QuestionResponse{
			NumericValue:         a.NumericValue,
			TextValue:            a.TextValue,
			QuestionID:           a.QuestionID,
			SelectedChoiceID:     a.SelectedChoiceID,
			AssessmentResponseID: responseID,
			CreatedAt:            at,
		})
	}
	return rows, score
}

// publish emits an event after the change is committed. Failures are logged
// and never reach the caller.
func (s *responseService) publish(ctx context.Context, eventType events.EventType, data any) {
	if s.publisher == nil {
		return
	}
	event, err := events.NewEvent(eventType, data)
	if err == nil {
		err = s.publisher.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
