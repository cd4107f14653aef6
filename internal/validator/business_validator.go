package validator

import (
	"fmt"

	"github.com/hazelton-clinic/assessment-service/internal/models"
)

// ResolveBounds returns the min/max an assessment should store. Boolean and
// scored methods fall back to their default range when a bound is omitted;
// custom scoring needs both. min must not exceed max.
func ResolveBounds(method models.ScoringMethod, minValue, maxValue *float64) (float64, float64, error) {
	defaults := models.Assessment{ScoringMethod: method}
	defaults.ApplyDefaultBounds()
	lo, hi := defaults.MinValue, defaults.MaxValue

	if method == models.ScoringCustom {
		var errs ValidationErrors
		if minValue == nil {
			errs = append(errs, ValidationError{Field: "min_value", Message: "is required for custom scoring", Rule: "custom_bounds"})
		}
		if maxValue == nil {
			errs = append(errs, ValidationError{Field: "max_value", Message: "is required for custom scoring", Rule: "custom_bounds"})
		}
		if len(errs) > 0 {
			return 0, 0, errs
		}
	}
	if minValue != nil {
		lo = *minValue
	}
	if maxValue != nil {
		hi = *maxValue
	}

	if lo > hi {
		return 0, 0, ValidationErrors{{
			Field:   "min_value",
			Message: fmt.Sprintf("must not be greater than max_value (%g)", hi),
			Value:   lo,
			Rule:    "bounds_order",
		}}
	}
	return lo, hi, nil
}

// ValidateDiagnosticBand checks that a diagnostic band is well ordered.
func ValidateDiagnosticBand(minValue, maxValue *float64) error {
	if minValue != nil && maxValue != nil && *minValue > *maxValue {
		return ValidationErrors{{
			Field:   "min_value",
			Message: "must not be greater than max_value",
			Value:   *minValue,
			Rule:    "bounds_order",
		}}
	}
	return nil
}

// ValidateAnswers checks a batch of answers before anything is written:
// the batch is non-empty and every answer carries a numeric or text value.
func ValidateAnswers(answers []AnswerRequest) error {
	if len(answers) == 0 {
		return NewValidationError("question_responses", "must contain at least one answer", nil)
	}

	var errs ValidationErrors
	for i, a := range answers {
		if a.QuestionID == 0 {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("question_responses[%d].question_id", i),
				Message: "is required",
				Rule:    "required",
			})
		}
		if a.NumericValue == nil && a.TextValue == nil {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("question_responses[%d]", i),
				Message: "must have a numeric_value or a text_value",
				Value:   a.QuestionID,
				Rule:    "answer_value",
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
