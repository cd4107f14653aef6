package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	ResponseCreated        EventType = "response.created"
	ResponseCompleted      EventType = "response.completed"
	PasswordResetRequested EventType = "password.reset_requested"
)

const (
	EventSource  = "assessment-service"
	EventVersion = "1.0"
)

// Event is the envelope written to the bus. Data holds the type specific
// payload as raw JSON.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

type ResponseCreatedData struct {
	ResponseID   string `json:"response_id"`
	AssessmentID uint   `json:"assessment_id"`
	ExamineeID   string `json:"examinee_id"`
	CreatedBy    string `json:"created_by"`
}

type ResponseCompletedData struct {
	ResponseID   string  `json:"response_id"`
	AssessmentID uint    `json:"assessment_id"`
	ExamineeID   string  `json:"examinee_id"`
	CreatedBy    string  `json:"created_by"`
	Score        float64 `json:"score"`
}

type PasswordResetRequestedData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewEvent wraps data in an envelope with a fresh id and UTC timestamp.
func NewEvent(eventType EventType, data any) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// DecodeData unmarshals the payload into dest.
func (e *Event) DecodeData(dest any) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return nil
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Topic maps an event type onto a broker topic.
func Topic(prefix string, eventType EventType) string {
	if prefix == "" {
		return string(eventType)
	}
	return prefix + "." + string(eventType)
}
