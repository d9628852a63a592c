package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"safewalk/internal/types"
)

// ValidationError describes a single failed field constraint.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator for request struct validation.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a validator instance shared by all handlers.
func NewValidator() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateStruct validates a request struct against its `validate` tags.
// On failure it returns a *types.AppError carrying the error code of the
// first failed field plus the full list under details["validation_errors"].
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return types.NewAppError(types.ErrCodeValidationInvalidJSON, "request validation failed", err)
	}

	errs := make([]ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Code:    tagToErrorCode(fe.Tag()),
			Message: fmt.Sprintf("field %s failed on the %q rule", fe.Field(), fe.Tag()),
		})
	}

	appErr := types.NewAppErrorWithDetails(
		types.ErrorCode(errs[0].Code),
		"request validation failed",
		nil,
		map[string]any{"validation_errors": errs},
	)
	return appErr
}

// tagToErrorCode maps a validator tag to the API error code exposed to
// clients.
func tagToErrorCode(tag string) string {
	switch tag {
	case "required", "min", "max", "len":
		return string(types.ErrCodeValidationMissingField)
	case "latitude", "longitude":
		return string(types.ErrCodeValidationInvalidCoord)
	default:
		return string(types.ErrCodeValidationInvalidJSON)
	}
}
