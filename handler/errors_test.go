package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"vidtube-api/service"

	"github.com/stretchr/testify/assert"
)

func TestToAppError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{service.ErrUsernameRequired, http.StatusBadRequest},
		{service.ErrAvatarRequired, http.StatusBadRequest},
		{service.ErrUserExists, http.StatusConflict},
		{service.ErrUserNotFound, http.StatusNotFound},
		{service.ErrChannelNotFound, http.StatusNotFound},
		{service.ErrTokenExpired, http.StatusUnauthorized},
		{service.ErrStaleRefreshToken, http.StatusUnauthorized},
		{service.ErrAccountNotFound, http.StatusUnauthorized},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrPasswordMismatch, http.StatusUnauthorized},
		{service.ErrWrongPassword, http.StatusUnauthorized},
		{fmt.Errorf("could not store refresh token: %w", errors.New("conn reset")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			appErr := toAppError(tt.err, "fallback")
			assert.Equal(t, tt.code, appErr.Code)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}

	assert.Equal(t, "fallback", toAppError(errors.New("boom"), "fallback").Message)
}
