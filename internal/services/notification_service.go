package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/email"
	"github.com/hazelton-clinic/assessment-service/internal/events"
	"github.com/hazelton-clinic/assessment-service/internal/models"
	"github.com/hazelton-clinic/assessment-service/internal/repositories"
	"gorm.io/gorm"
)

// notificationService consumes domain events and sends the matching email.
// A returned error makes the consumer retry the message; events about rows
// that are gone are dropped.
type notificationService struct {
	repo     repositories.Repository
	db       *gorm.DB
	logger   *slog.Logger
	sender   email.Sender
	composer *email.Composer
	resetTTL time.Duration
	now      func() time.Time
}

func NewNotificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, sender email.Sender, composer *email.Composer, resetTTL time.Duration) NotificationService {
	return &notificationService{
		repo:     repo,
		db:       db,
		logger:   logger,
		sender:   sender,
		composer: composer,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

func (s *notificationService) Register(consumer *events.Consumer) {
	consumer.Handle(events.ResponseCreated, "email_questionnaire", s.HandleResponseCreated)
	consumer.Handle(events.ResponseCompleted, "email_response_completed", s.HandleResponseCompleted)
	consumer.Handle(events.PasswordResetRequested, "email_password_reset", s.HandlePasswordResetRequested)
}

func (s *notificationService) HandleResponseCreated(ctx context.Context, event *events.Event) error {
	var data events.ResponseCreatedData
	if err := event.DecodeData(&data); err != nil {
		s.logger.Error("Dropping malformed event", "event_id", event.ID, "error", err)
		return nil
	}

	examinee, err := s.repo.Examinee().GetByID(ctx, s.db, data.ExamineeID)
	if err != nil {
		return s.skipIfGone(err, "examinee", data.ExamineeID, event)
	}

	msg, err := s.composer.Questionnaire(examineeRecipient(examinee), data.ResponseID, s.creatorEmail(ctx, data.CreatedBy))
	if err != nil {
		return err
	}
	return s.send(ctx, msg, event)
}

// HandleResponseCompleted notifies the examinee's address with the creating
// user as Reply-To.
func (s *notificationService) HandleResponseCompleted(ctx context.Context, event *events.Event) error {
	var data events.ResponseCompletedData
	if err := event.DecodeData(&data); err != nil {
		s.logger.Error("Dropping malformed event", "event_id", event.ID, "error", err)
		return nil
	}

	examinee, err := s.repo.Examinee().GetByID(ctx, s.db, data.ExamineeID)
	if err != nil {
		return s.skipIfGone(err, "examinee", data.ExamineeID, event)
	}

	recipient := examineeRecipient(examinee)
	msg, err := s.composer.ResponseCompleted(recipient, recipient, data.ResponseID, s.creatorEmail(ctx, data.CreatedBy))
	if err != nil {
		return err
	}
	return s.send(ctx, msg, event)
}

func (s *notificationService) HandlePasswordResetRequested(ctx context.Context, event *events.Event) error {
	var data events.PasswordResetRequestedData
	if err := event.DecodeData(&data); err != nil {
		s.logger.Error("Dropping malformed event", "event_id", event.ID, "error", err)
		return nil
	}
	if !data.ExpiresAt.IsZero() && s.now().After(data.ExpiresAt) {
		s.logger.Info("Skipping expired password reset", "user_id", data.UserID)
		return nil
	}

	hours := int(s.resetTTL.Hours())
	if hours <= 0 {
		hours = 4
	}
	msg, err := s.composer.PasswordReset(data.Email, data.Token, hours)
	if err != nil {
		return err
	}
	return s.send(ctx, msg, event)
}

func (s *notificationService) send(ctx context.Context, msg *email.Message, event *events.Event) error {
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("Failed to send email", "event_id", event.ID, "event_type", event.Type, "error", err)
		return fmt.Errorf("send %s email: %w", event.Type, err)
	}
	s.logger.Info("Email sent", "event_id", event.ID, "event_type", event.Type)
	return nil
}

// creatorEmail resolves the account that created a response to its login
// email. An unknown creator yields no Reply-To.
func (s *notificationService) creatorEmail(ctx context.Context, accountID string) string {
	if accountID == "" {
		return ""
	}
	account, err := s.repo.Account().GetByID(ctx, s.db, accountID)
	if err != nil {
		s.logger.Warn("Could not resolve response creator", "account_id", accountID, "error", err)
		return ""
	}
	user, err := s.repo.User().GetByID(ctx, s.db, account.UserID)
	if err != nil {
		s.logger.Warn("Could not resolve response creator", "user_id", account.UserID, "error", err)
		return ""
	}
	return user.Email
}

func (s *notificationService) skipIfGone(err error, resource, id string, event *events.Event) error {
	if repositories.IsNotFoundError(err) {
		s.logger.Warn("Dropping notification for missing "+resource, "id", id, "event_id", event.ID)
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}

func examineeRecipient(e *models.Examinee) email.Recipient {
	return email.Recipient{Email: e.Email, FirstName: e.FirstName, LastName: e.LastName}
}
