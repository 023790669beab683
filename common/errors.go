package common

import (
	"encoding/json"
	"net/http"
	"vidtube-api/logger"

	"github.com/sirupsen/logrus"
)

type AppError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails attaches structured detail to the error envelope.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

func NewValidationError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, nil)
}

func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, message, nil)
}

func NewUnauthorizedError(message string, err error) *AppError {
	return NewAppError(http.StatusUnauthorized, message, err)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, nil)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(http.StatusInternalServerError, message, err)
}

func (e *AppError) Send(w http.ResponseWriter) {
	if e.Err != nil {
		entry := logger.Log.WithFields(logrus.Fields{
			"status_code":    e.Code,
			"internal_error": e.Err.Error(),
		})
		if e.Code >= http.StatusInternalServerError {
			entry.Error(e.Message)
		} else {
			entry.Warn(e.Message)
		}
	}

	WriteJSON(w, e.Code, e)
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.WithError(err).Error("Failed to encode response body")
	}
}
