package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/hazelton-clinic/assessment-service/internal/models"
)

var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrResponseNotFound   = errors.New("response not found")
	ErrExamineeNotFound   = errors.New("examinee not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountNotFound    = errors.New("account not found")

	ErrInvalidResponseState   = errors.New("invalid response state")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrAccountAlreadyExists   = errors.New("user already has an account")
	ErrInvalidCredentials     = errors.New("incorrect email or password")
	ErrInvalidToken           = errors.New("could not validate credentials")
	ErrInvalidResetToken      = errors.New("invalid or expired reset token")
	ErrRateLimited            = errors.New("too many requests")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrResourceInUse          = errors.New("resource is referenced by recorded responses")
)

// NotFoundError names the missing entity and its id. It matches the
// per-resource sentinel with errors.Is.
type NotFoundError struct {
	Resource string
	ID       any
	sentinel error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id %v not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.sentinel
}

func newNotFound(sentinel error, resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, sentinel: sentinel}
}

// InUseError is returned when a delete would drop rows that recorded
// responses still reference.
type InUseError struct {
	Resource string
	ID       any
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("%s with id %v is referenced by recorded responses and cannot be removed", e.Resource, e.ID)
}

func (e *InUseError) Is(target error) bool {
	return target == ErrResourceInUse
}

// InvalidResponseStateError is returned when an operation needs a pending
// response and finds another status.
type InvalidResponseStateError struct {
	Status models.ResponseStatus
}

func (e *InvalidResponseStateError) Error() string {
	return fmt.Sprintf("response is %s; answers can only be submitted to a pending response", e.Status)
}

func (e *InvalidResponseStateError) Is(target error) bool {
	return target == ErrInvalidResponseState
}

type BusinessRuleError struct {
	Rule    string
	Message string
}

func (e *BusinessRuleError) Error() string {
	return e.Message
}

func NewBusinessRuleError(rule, message string) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message}
}

type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("cannot %s %s: %s", e.Action, e.Resource, e.Reason)
	}
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func (e *PermissionError) Is(target error) bool {
	return target == ErrPermissionDenied
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Resource: resource, Action: action, Reason: reason}
}

// RateLimitError carries how long the caller should wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("too many requests, retry in %d seconds", int(e.RetryAfter.Seconds()))
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
