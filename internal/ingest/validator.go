package ingest

import (
	"errors"
	"fmt"
	"strings"

	"drivero/pkg/logger"
	"drivero/pkg/model"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// ReportValidator checks location reports before they touch any state.
type ReportValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewReportValidator(log *logger.Logger) *ReportValidator {
	return &ReportValidator{
		validate: validator.New(),
		logger:   log,
	}
}

func (v *ReportValidator) Validate(report *model.LocationReport) error {
	if err := v.validate.Struct(report); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	if report.Timestamp.IsZero() {
		return ValidationErrors{
			ValidationError{
				Field:   "Timestamp",
				Message: "timestamp is required",
			},
		}
	}

	return nil
}

func (v *ReportValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
