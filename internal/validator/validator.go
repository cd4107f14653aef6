package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hazelton-clinic/assessment-service/internal/auth"
	"github.com/hazelton-clinic/assessment-service/internal/models"
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
	Rule    string `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewValidationError builds a single-field ValidationErrors.
func NewValidationError(field, message string, value any) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Value: value, Rule: "business_logic"}}
}

// Validator wraps go-playground/validator with the service's custom tags.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report json field names rather than Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerCustomRules()
	return v
}

// Validate checks s against its struct tags. It returns nil or a
// ValidationErrors.
func (v *Validator) Validate(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	if errs := v.toValidationErrors(err); len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *Validator) toValidationErrors(err error) ValidationErrors {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fieldPath(fe),
			Message: getErrorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

// fieldPath drops the root struct name: "SubmitAnswersRequest.question_responses[0].question_id"
// becomes "question_responses[0].question_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func (v *Validator) registerCustomRules() {
	v.validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	v.validate.RegisterValidation("response_status", func(fl validator.FieldLevel) bool {
		return models.ResponseStatus(fl.Field().String()).IsValid()
	})

	v.validate.RegisterValidation("scoring_method", func(fl validator.FieldLevel) bool {
		switch models.ScoringMethod(fl.Field().String()) {
		case models.ScoringBoolean, models.ScoringScored, models.ScoringCustom:
			return true
		}
		return false
	})

	v.validate.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
		switch models.Gender(fl.Field().String()) {
		case models.GenderFemale, models.GenderMale, models.GenderOther:
			return true
		}
		return false
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	// The admin minimum is enforced by the bootstrap command.
	v.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return auth.ValidatePassword(fl.Field().String(), auth.MinPasswordLength) == nil
	})
}

func getErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "not_blank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "datetime":
		return fmt.Sprintf("must be a date in the format %s", fe.Param())
	case "response_status":
		return "must be one of pending, completed, abandoned, discarded"
	case "scoring_method":
		return "must be one of boolean, scored, custom"
	case "gender":
		return "must be one of female, male, other"
	case "user_role":
		return "must be one of assessment_developer, assessment_reviewer, admin"
	case "password_strength":
		return "must be at least 8 characters and contain both letters and digits"
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
