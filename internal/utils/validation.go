package utils

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator builds the shared validator. Field names in errors come from
// the json tag so they match what the client typed.
func InitValidator() {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		log.Debug().Msg("Validator initialized")
	})
}

// GetValidator returns the shared validator, building it on first use.
func GetValidator() *validator.Validate {
	InitValidator()
	return validate
}

// ValidateStruct validates v and reports failures as a 400 AppError wrapping
// ErrValidation. A single failure sets Field; several are listed in Details.
func ValidateStruct(v any) error {
	err := GetValidator().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &AppError{Err: ErrValidation, StatusCode: http.StatusBadRequest, Message: err.Error()}
	}

	if len(verrs) == 1 {
		return NewValidationError(verrs[0].Field(), fieldMessage(verrs[0]))
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fieldMessage(fe)
	}
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    "Multiple validation errors",
		Details:    details,
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "latitude":
		return "Must be a latitude between -90 and 90"
	case "longitude":
		return "Must be a longitude between -180 and 180"
	case "gtefield":
		return fmt.Sprintf("Must not be less than %s", fe.Param())
	}
	return fmt.Sprintf("Failed validation on the '%s' tag", fe.Tag())
}
