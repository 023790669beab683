package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrInvalidToken)
	ErrTokenMalformed = fmt.Errorf("%w: malformed token", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenClaims    = fmt.Errorf("%w: unexpected claims", ErrInvalidToken)

	ErrStaleRefreshToken = errors.New("refresh token is expired or already used")
	ErrAccountNotFound   = errors.New("no such account")

	ErrUserNotFound       = errors.New("user does not exist")
	ErrInvalidCredentials = errors.New("invalid user credentials")
	ErrUserExists         = errors.New("user with this username or email already exists")
	ErrAvatarRequired     = errors.New("avatar file is required")

	ErrPasswordMismatch = errors.New("new password and confirmation do not match")
	ErrWrongPassword    = errors.New("current password is incorrect")
	ErrEmptyPassword    = errors.New("password must not be empty")

	ErrUsernameRequired = errors.New("username is missing")
	ErrChannelNotFound  = errors.New("channel does not exist")
)
