package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hazelton-clinic/assessment-service/internal/email"
	"github.com/hazelton-clinic/assessment-service/internal/events"
	"github.com/hazelton-clinic/assessment-service/internal/models"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []*email.Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg *email.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newTestNotificationService(repo *mockRepository, sender email.Sender) *notificationService {
	svc := NewNotificationService(repo, nil, testLogger(), sender, email.NewComposer("https://app.example.com"), 4*time.Hour).(*notificationService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func mustEvent(t *testing.T, eventType events.EventType, data any) *events.Event {
	t.Helper()
	event, err := events.NewEvent(eventType, data)
	require.NoError(t, err)
	return event
}

func expectCreator(repo *mockRepository) {
	repo.account.On("GetByID", testAccountID).Return(&models.Account{ID: testAccountID, UserID: testUserID}, nil)
	repo.user.On("GetByID", testUserID).Return(&models.User{ID: testUserID, Email: testEmail}, nil)
}

func TestNotificationService_ResponseCreated(t *testing.T) {
	repo := newMockRepository()
	sender := &recordingSender{}
	svc := newTestNotificationService(repo, sender)

	repo.examinee.On("GetByID", testExamineeID).Return(&models.Examinee{ID: testExamineeID, Email: "patient@example.com", FirstName: "Jo"}, nil)
	expectCreator(repo)

	err := svc.HandleResponseCreated(context.Background(), mustEvent(t, events.ResponseCreated, events.ResponseCreatedData{
		ResponseID: testResponseID, ExamineeID: testExamineeID, CreatedBy: testAccountID,
	}))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, []string{"patient@example.com"}, msg.To)
	assert.Equal(t, testEmail, msg.ReplyTo)
	assert.Contains(t, msg.Text, "https://app.example.com")
	assert.Contains(t, msg.Text, testResponseID)
	assert.Equal(t, "questionnaire-"+testResponseID, msg.IdempotencyKey)
}

func TestNotificationService_ResponseCompleted(t *testing.T) {
	repo := newMockRepository()
	sender := &recordingSender{}
	svc := newTestNotificationService(repo, sender)

	repo.examinee.On("GetByID", testExamineeID).Return(&models.Examinee{ID: testExamineeID, Email: "patient@example.com", FirstName: "Jo", LastName: "Doe"}, nil)
	expectCreator(repo)

	err := svc.HandleResponseCompleted(context.Background(), mustEvent(t, events.ResponseCompleted, events.ResponseCompletedData{
		ResponseID: testResponseID, ExamineeID: testExamineeID, CreatedBy: testAccountID, Score: 12,
	}))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"patient@example.com"}, sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Text, "Jo Doe")
}

func TestNotificationService_UnknownCreatorSendsWithoutReplyTo(t *testing.T) {
	repo := newMockRepository()
	sender := &recordingSender{}
	svc := newTestNotificationService(repo, sender)

	repo.examinee.On("GetByID", testExamineeID).Return(&models.Examinee{ID: testExamineeID, Email: "patient@example.com"}, nil)
	repo.account.On("GetByID", testAccountID).Return(nil, gorm.ErrRecordNotFound)

	err := svc.HandleResponseCreated(context.Background(), mustEvent(t, events.ResponseCreated, events.ResponseCreatedData{
		ResponseID: testResponseID, ExamineeID: testExamineeID, CreatedBy: testAccountID,
	}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Empty(t, sender.sent[0].ReplyTo)
}

func TestNotificationService_DropsEventsForMissingExaminee(t *testing.T) {
	repo := newMockRepository()
	sender := &recordingSender{}
	svc := newTestNotificationService(repo, sender)

	repo.examinee.On("GetByID", testExamineeID).Return(nil, gorm.ErrRecordNotFound)

	err := svc.HandleResponseCreated(context.Background(), mustEvent(t, events.ResponseCreated, events.ResponseCreatedData{
		ResponseID: testResponseID, ExamineeID: testExamineeID,
	}))
	assert.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestNotificationService_SendFailureIsRetried(t *testing.T) {
	repo := newMockRepository()
	sender := &recordingSender{err: errors.New("provider unavailable")}
	svc := newTestNotificationService(repo, sender)

	repo.examinee.On("GetByID", testExamineeID).Return(&models.Examinee{ID: testExamineeID, Email: "patient@example.com"}, nil)

	err := svc.HandleResponseCreated(context.Background(), mustEvent(t, events.ResponseCreated, events.ResponseCreatedData{
		ResponseID: testResponseID, ExamineeID: testExamineeID,
	}))
	assert.ErrorContains(t, err, "provider unavailable")
}

func TestNotificationService_PasswordReset(t *testing.T) {
	repo := newMockRepository()
	sender := &recordingSender{}
	svc := newTestNotificationService(repo, sender)

	err := svc.HandlePasswordResetRequested(context.Background(), mustEvent(t, events.PasswordResetRequested, events.PasswordResetRequestedData{
		UserID: testUserID, Email: testEmail, Token: "tok123", ExpiresAt: fixedNow.Add(time.Hour),
	}))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "reset-password?token=tok123")
	assert.Contains(t, sender.sent[0].Text, "4 hours")

	err = svc.HandlePasswordResetRequested(context.Background(), mustEvent(t, events.PasswordResetRequested, events.PasswordResetRequestedData{
		UserID: testUserID, Email: testEmail, Token: "old", ExpiresAt: fixedNow.Add(-time.Minute),
	}))
	require.NoError(t, err)
	assert.Len(t, sender.sent, 1, "expired resets are not mailed")
}

func TestNotificationService_MalformedEventDropped(t *testing.T) {
	repo := newMockRepository()
	sender := &recordingSender{}
	svc := newTestNotificationService(repo, sender)

	event := mustEvent(t, events.ResponseCreated, "not an object")

	assert.NoError(t, svc.HandleResponseCreated(context.Background(), event))
	assert.Empty(t, sender.sent)
}
