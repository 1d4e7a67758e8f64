package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"appealnotify/internal/types"
)

// Validator wraps go-playground/validator with JSON field naming so that
// validation failures reference the wire-level field names callers sent.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator using struct json tags for field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

// ValidateStruct validates dst and maps failures to a single
// ErrCodeValidationMissingField AppError listing the offending fields.
func (v *Validator) ValidateStruct(dst any) error {
	err := v.validate.Struct(dst)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return types.NewAppError(types.ErrCodeValidationBadPayload,
			"request failed validation", err)
	}

	appErr := types.NewAppError(types.ErrCodeValidationMissingField,
		"request failed validation", err)
	for _, fe := range verrs {
		appErr.WithDetail(fe.Field(), fe.Tag())
	}
	return appErr
}
