package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent_Envelope(t *testing.T) {
	event, err := NewEvent(ResponseCompleted, ResponseCompletedData{ResponseID: "abc", Score: 4.5})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ResponseCompleted, event.Type)
	assert.Equal(t, "assessment-service", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())

	var data ResponseCompletedData
	require.NoError(t, event.DecodeData(&data))
	assert.Equal(t, "abc", data.ResponseID)
	assert.Equal(t, 4.5, data.Score)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "svc.response.created", Topic("svc", ResponseCreated))
	assert.Equal(t, "response.created", Topic("", ResponseCreated))
}

func TestMockEventPublisher(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	ctx := context.Background()

	event, _ := NewEvent(ResponseCreated, ResponseCreatedData{ResponseID: "r1"})
	require.NoError(t, mock.Publish(ctx, event))
	assert.Len(t, mock.GetPublishedEvents(), 1)

	mock.ClearEvents()
	assert.Empty(t, mock.GetPublishedEvents())

	mock.FailWith(errors.New("broker down"))
	assert.Error(t, mock.Publish(ctx, event))
	assert.Empty(t, mock.GetPublishedEvents())
}

func TestGoChannelRoundTrip(t *testing.T) {
	logger := testLogger()
	ch := NewGoChannel(watermill.NopLogger{})
	t.Cleanup(func() { _ = ch.Close() })

	consumer, err := NewConsumer(ch, "test", logger)
	require.NoError(t, err)

	received := make(chan ResponseCompletedData, 1)
	consumer.Handle(ResponseCompleted, "completed_test", func(ctx context.Context, event *Event) error {
		var data ResponseCompletedData
		if err := event.DecodeData(&data); err != nil {
			return err
		}
		received <- data
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Run(ctx) }()

	select {
	case <-consumer.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not start")
	}

	publisher := NewWatermillPublisher(ch, "test", logger)
	event, err := NewEvent(ResponseCompleted, ResponseCompletedData{ResponseID: "resp-1", Score: 7})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(context.Background(), event))

	select {
	case data := <-received:
		assert.Equal(t, "resp-1", data.ResponseID)
		assert.Equal(t, float64(7), data.Score)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestConsumer_RetriesFailedHandler(t *testing.T) {
	logger := testLogger()
	ch := NewGoChannel(watermill.NopLogger{})
	t.Cleanup(func() { _ = ch.Close() })

	consumer, err := NewConsumer(ch, "", logger)
	require.NoError(t, err)

	var attempts atomic.Int32
	done := make(chan struct{})
	consumer.Handle(PasswordResetRequested, "reset_test", func(ctx context.Context, event *Event) error {
		if attempts.Add(1) == 1 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = consumer.Run(ctx) }()
	<-consumer.Running()

	event, _ := NewEvent(PasswordResetRequested, PasswordResetRequestedData{Email: "a@example.com"})
	require.NoError(t, NewWatermillPublisher(ch, "", logger).Publish(context.Background(), event))

	select {
	case <-done:
		assert.Equal(t, int32(2), attempts.Load())
	case <-time.After(10 * time.Second):
		t.Fatal("handler was not retried")
	}
}
