package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"vidtube-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// principalEcho writes the username of the attached principal, or "anonymous".
var principalEcho = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		w.Write([]byte(principal.Username))
		return
	}
	w.Write([]byte("anonymous"))
})

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, rr.Code, body.Code)
	return body.Message
}

func TestAuthGate_Require(t *testing.T) {
	t.Run("bearer header", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "good-token").Return(alice(), nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", rr.Body.String())
	})

	t.Run("cookie fallback", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "cookie-token").Return(alice(), nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: accessCookieName, Value: "cookie-token"})
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", rr.Body.String())
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "header-token").Return(alice(), nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer header-token")
		req.AddCookie(&http.Cookie{Name: accessCookieName, Value: "cookie-token"})
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		resolver.AssertNotCalled(t, "Principal", mock.Anything, "cookie-token")
	})

	t.Run("missing credential", func(t *testing.T) {
		resolver := new(mockResolver)
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "missing credential", errorMessage(t, rr))
		resolver.AssertNotCalled(t, "Principal", mock.Anything, mock.Anything)
	})

	t.Run("non bearer scheme", func(t *testing.T) {
		resolver := new(mockResolver)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic YWxpY2U6c2VjcmV0")
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid or expired credential", errorMessage(t, rr))
	})

	t.Run("expired token", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "old-token").Return(nil, service.ErrTokenExpired)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer old-token")
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "invalid or expired credential", errorMessage(t, rr))
	})

	t.Run("account gone", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "orphan-token").Return(nil, service.ErrAccountNotFound)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer orphan-token")
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "account not found", errorMessage(t, rr))
	})

	t.Run("store failure", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "good-token").Return(nil, errors.New("connection refused"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Require(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestAuthGate_Optional(t *testing.T) {
	t.Run("anonymous", func(t *testing.T) {
		resolver := new(mockResolver)
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Optional(principalEcho).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "anonymous", rr.Body.String())
	})

	t.Run("valid credential", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "good-token").Return(alice(), nil)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Optional(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, "alice", rr.Body.String())
	})

	t.Run("invalid credential falls back to anonymous", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("Principal", mock.Anything, "forged").Return(nil, service.ErrTokenSignature)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer forged")
		rr := httptest.NewRecorder()
		NewAuthGate(resolver).Optional(principalEcho).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "anonymous", rr.Body.String())
	})
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	_, ok := PrincipalFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
