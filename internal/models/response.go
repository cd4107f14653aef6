package models

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

type ResponseStatus string

const (
	ResponsePending   ResponseStatus = "pending"
	ResponseCompleted ResponseStatus = "completed"
	ResponseAbandoned ResponseStatus = "abandoned"
	ResponseDiscarded ResponseStatus = "discarded"
)

// responseTransitions lists, for every status, the statuses it may move to.
// Completion is only ever requested by answer submission.
var responseTransitions = map[ResponseStatus][]ResponseStatus{
	ResponsePending:   {ResponseAbandoned, ResponseDiscarded, ResponseCompleted},
	ResponseCompleted: {ResponseDiscarded},
	ResponseAbandoned: {ResponsePending, ResponseDiscarded},
	ResponseDiscarded: {ResponsePending},
}

var ErrInvalidStatusTransition = errors.New("invalid status transition")

// TransitionError reports a status change that is not in the transition table.
type TransitionError struct {
	From ResponseStatus
	To   ResponseStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot change status from %s to %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidStatusTransition
}

func (s ResponseStatus) IsValid() bool {
	_, ok := responseTransitions[s]
	return ok
}

// Transition validates current -> target against the transition table and
// returns the new status.
func Transition(current, target ResponseStatus) (ResponseStatus, error) {
	for _, allowed := range responseTransitions[current] {
		if allowed == target {
			return target, nil
		}
	}
	return current, &TransitionError{From: current, To: target}
}

// AllowedTransitions returns a copy of the targets reachable from s.
func AllowedTransitions(s ResponseStatus) []ResponseStatus {
	targets := responseTransitions[s]
	out := make([]ResponseStatus, len(targets))
	copy(out, targets)
	return out
}

type AssessmentResponse struct {
	ID           string         `json:"id" gorm:"primaryKey;size:64"`
	Status       ResponseStatus `json:"status" gorm:"not null;size:20;default:pending;index"`
	Score        *float64       `json:"score"`
	AssessmentID uint           `json:"assessment_id" gorm:"not null;index"`
	ExamineeID   string         `json:"examinee_id" gorm:"type:uuid;not null;index"`
	CreatedBy    string         `json:"created_by" gorm:"type:uuid;not null;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment        *Assessment        `json:"assessment,omitempty" gorm:"foreignKey:AssessmentID"`
	Examinee          *Examinee          `json:"examinee,omitempty" gorm:"foreignKey:ExamineeID"`
	Creator           *Account           `json:"creator,omitempty" gorm:"foreignKey:CreatedBy"`
	QuestionResponses []QuestionResponse `json:"question_responses,omitempty" gorm:"foreignKey:AssessmentResponseID;constraint:OnDelete:CASCADE"`
}

type QuestionResponse struct {
	ID                   uint      `json:"id" gorm:"primaryKey"`
	NumericValue         *float64  `json:"numeric_value"`
	TextValue            *string   `json:"text_value" gorm:"type:text"`
	QuestionID           uint      `json:"question_id" gorm:"not null;index"`
	SelectedChoiceID     *uint     `json:"selected_choice_id" gorm:"index"`
	AssessmentResponseID string    `json:"assessment_response_id" gorm:"size:64;not null;index"`
	CreatedAt            time.Time `json:"created_at"`
}

// NewResponseID returns an unguessable response identifier: 32 random bytes,
// hex encoded.
func NewResponseID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate response id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// NowUTC is the timestamp used for created_at/updated_at, second precision.
func NowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func (AssessmentResponse) TableName() string {
	return "assessment_responses"
}

func (QuestionResponse) TableName() string {
	return "question_responses"
}
