package validator

import (
	"github.com/hazelton-clinic/assessment-service/internal/models"
)

// ===== ASSESSMENTS =====

type AssessmentCreateRequest struct {
	Title         string               `json:"title" validate:"required,not_blank,max=200"`
	Description   *string              `json:"description" validate:"omitempty,max=5000"`
	ScoringMethod models.ScoringMethod `json:"scoring_method" validate:"required,scoring_method"`
	MinValue      *float64             `json:"min_value"`
	MaxValue      *float64             `json:"max_value"`
}

// AssessmentUpdateRequest is a patch: nil fields are left unchanged.
type AssessmentUpdateRequest struct {
	Title         *string               `json:"title" validate:"omitempty,not_blank,max=200"`
	Description   *string               `json:"description" validate:"omitempty,max=5000"`
	ScoringMethod *models.ScoringMethod `json:"scoring_method" validate:"omitempty,scoring_method"`
	MinValue      *float64              `json:"min_value"`
	MaxValue      *float64              `json:"max_value"`
}

type ChoiceRequest struct {
	ID    *uint   `json:"id"`
	Text  string  `json:"text" validate:"required,not_blank"`
	Value float64 `json:"value"`
	Order int     `json:"order" validate:"gte=0"`
}

type QuestionCreateRequest struct {
	Text    string          `json:"text" validate:"required,not_blank"`
	Order   int             `json:"order" validate:"gte=0"`
	Choices []ChoiceRequest `json:"choices" validate:"dive"`
}

// QuestionUpdateRequest patches text and order. When Choices is non-nil the
// stored choice list is reconciled against it.
type QuestionUpdateRequest struct {
	Text    *string          `json:"text" validate:"omitempty,not_blank"`
	Order   *int             `json:"order" validate:"omitempty,gte=0"`
	Choices *[]ChoiceRequest `json:"choices" validate:"omitempty,dive"`
}

type DiagnosticCreateRequest struct {
	MinValue    *float64 `json:"min_value"`
	MaxValue    *float64 `json:"max_value"`
	Description string   `json:"description" validate:"required,not_blank"`
}

// ===== EXAMINEES =====

type ExamineeCreateRequest struct {
	FirstName          string        `json:"first_name" validate:"required,not_blank,max=100"`
	MiddleName         *string       `json:"middle_name" validate:"omitempty,max=100"`
	LastName           string        `json:"last_name" validate:"required,not_blank,max=100"`
	BirthDate          string        `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Gender             models.Gender `json:"gender" validate:"required,gender"`
	Email              string        `json:"email" validate:"required,email,max=255"`
	InternalIdentifier *string       `json:"internal_identifier" validate:"omitempty,max=100"`
	Comments           *string       `json:"comments"`
}

type ExamineeUpdateRequest struct {
	FirstName          *string        `json:"first_name" validate:"omitempty,not_blank,max=100"`
	MiddleName         *string        `json:"middle_name" validate:"omitempty,max=100"`
	LastName           *string        `json:"last_name" validate:"omitempty,not_blank,max=100"`
	BirthDate          *string        `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Gender             *models.Gender `json:"gender" validate:"omitempty,gender"`
	Email              *string        `json:"email" validate:"omitempty,email,max=255"`
	InternalIdentifier *string        `json:"internal_identifier" validate:"omitempty,max=100"`
	Comments           *string        `json:"comments"`
}

// ===== USERS & ACCOUNTS =====

type AccountInput struct {
	FirstName string          `json:"first_name" validate:"required,not_blank,max=100"`
	LastName  string          `json:"last_name" validate:"required,not_blank,max=100"`
	Role      models.UserRole `json:"role" validate:"required,user_role"`
}

type AccountPatch struct {
	FirstName *string          `json:"first_name" validate:"omitempty,not_blank,max=100"`
	LastName  *string          `json:"last_name" validate:"omitempty,not_blank,max=100"`
	Role      *models.UserRole `json:"role" validate:"omitempty,user_role"`
}

type UserCreateRequest struct {
	Email    string        `json:"email" validate:"required,email,max=255"`
	Password string        `json:"password" validate:"required,password_strength"`
	Account  *AccountInput `json:"account" validate:"omitempty"`
}

type UserUpdateRequest struct {
	Email    *string       `json:"email" validate:"omitempty,email,max=255"`
	Password *string       `json:"password" validate:"omitempty,password_strength"`
	Account  *AccountPatch `json:"account" validate:"omitempty"`
}

type AccountCreateRequest struct {
	UserID    string          `json:"user_id" validate:"required,uuid"`
	FirstName string          `json:"first_name" validate:"required,not_blank,max=100"`
	LastName  string          `json:"last_name" validate:"required,not_blank,max=100"`
	Role      models.UserRole `json:"role" validate:"required,user_role"`
}

type AccountUpdateRequest = AccountPatch

// ===== RESPONSES =====

type ResponseCreateRequest struct {
	ExamineeID string `json:"examinee_id" validate:"required,uuid"`
}

// AnswerRequest is one answered question. At least one of NumericValue and
// TextValue must be set.
type AnswerRequest struct {
	QuestionID       uint     `json:"question_id" validate:"required"`
	NumericValue     *float64 `json:"numeric_value"`
	TextValue        *string  `json:"text_value"`
	SelectedChoiceID *uint    `json:"selected_choice_id"`
}

type SubmitAnswersRequest struct {
	QuestionResponses []AnswerRequest `json:"question_responses" validate:"required,min=1,dive"`
}

type ChangeStatusRequest struct {
	Status models.ResponseStatus `json:"status" validate:"required,response_status"`
}

// ===== AUTH =====

type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,password_strength"`
}
