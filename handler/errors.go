package handler

import (
	"errors"
	"net/http"
	"vidtube-api/common"
	"vidtube-api/service"
)

// toAppError maps service errors onto the HTTP error taxonomy.
func toAppError(err error, fallback string) *common.AppError {
	switch {
	case errors.Is(err, service.ErrUsernameRequired),
		errors.Is(err, service.ErrAvatarRequired),
		errors.Is(err, service.ErrEmptyPassword):
		return common.NewAppError(http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, service.ErrUserExists):
		return common.NewAppError(http.StatusConflict, err.Error(), err)
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrChannelNotFound):
		return common.NewAppError(http.StatusNotFound, err.Error(), err)
	case errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrStaleRefreshToken):
		return common.NewUnauthorizedError("invalid or expired credential", err)
	case errors.Is(err, service.ErrAccountNotFound):
		return common.NewUnauthorizedError("account not found", err)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrWrongPassword),
		errors.Is(err, service.ErrPasswordMismatch):
		return common.NewUnauthorizedError(err.Error(), err)
	default:
		return common.NewInternalError(fallback, err)
	}
}
