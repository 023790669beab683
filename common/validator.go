package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their json (or form) name.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return fld.Name
	})
	return v
}

// maxBodyBytes matches the JSON body limit of the public API.
const maxBodyBytes = 20 << 10

// DecodeJSON decodes a JSON body into payload without validating it.
func DecodeJSON(r *http.Request, payload interface{}) *AppError {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(payload); err != nil {
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}
	return nil
}

// ValidateAndDecode decodes a JSON body into payload and runs struct validation.
func ValidateAndDecode(r *http.Request, payload interface{}) *AppError {
	if appErr := DecodeJSON(r, payload); appErr != nil {
		return appErr
	}
	return ValidateStruct(payload)
}

// ValidateStruct runs the validate tags of payload and reports failures per field.
func ValidateStruct(payload interface{}) *AppError {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewAppError(http.StatusBadRequest, "Invalid request body", err)
	}

	details := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		details[fe.Field()] = fe.Tag()
	}
	return NewValidationError("Validation failed").WithDetails(details)
}
