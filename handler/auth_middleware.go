package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"vidtube-api/common"
	"vidtube-api/logger"
	"vidtube-api/model"
	"vidtube-api/service"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalResolver resolves the account behind an access token.
type PrincipalResolver interface {
	Principal(ctx context.Context, accessToken string) (*model.User, error)
}

// AuthGate authenticates requests from an access token sent as a bearer header
// or as the accessToken cookie. The header wins when both are present.
type AuthGate struct {
	resolver PrincipalResolver
}

func NewAuthGate(resolver PrincipalResolver) *AuthGate {
	return &AuthGate{resolver: resolver}
}

// PrincipalFromContext returns the authenticated account attached by the gate.
func PrincipalFromContext(ctx context.Context) (*model.PublicUser, bool) {
	principal, ok := ctx.Value(principalKey).(*model.PublicUser)
	return principal, ok && principal != nil
}

func withPrincipal(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, principalKey, user.Public())
}

// credential returns the presented access token. present is false when the
// request carries neither an Authorization header nor the access cookie.
func credential(r *http.Request) (token string, present bool) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") {
			return "", true
		}
		return strings.TrimSpace(value), true
	}
	if cookie, err := r.Cookie(accessCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	return "", false
}

func (g *AuthGate) authenticate(r *http.Request) (*model.User, *common.AppError) {
	token, present := credential(r)
	if !present {
		return nil, common.NewUnauthorizedError("missing credential", nil)
	}
	if token == "" {
		return nil, common.NewUnauthorizedError("invalid or expired credential", nil)
	}

	user, err := g.resolver.Principal(r.Context(), token)
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, service.ErrAccountNotFound):
		return nil, common.NewUnauthorizedError("account not found", err)
	case errors.Is(err, service.ErrInvalidToken):
		return nil, common.NewUnauthorizedError("invalid or expired credential", err)
	default:
		return nil, common.NewInternalError("could not authenticate request", err)
	}
}

// Require rejects requests without a valid access credential.
func (g *AuthGate) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, appErr := g.authenticate(r)
		if appErr != nil {
			appErr.Send(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), user)))
	})
}

// Optional attaches a principal when a valid access credential is present and
// otherwise serves the request anonymously.
func (g *AuthGate) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, present := credential(r); !present {
			next.ServeHTTP(w, r)
			return
		}

		user, appErr := g.authenticate(r)
		if appErr != nil {
			logger.Log.WithError(appErr.Err).WithField("status_code", appErr.Code).
				Debug("Ignoring unusable optional credential")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), user)))
	})
}

// requirePrincipal reads the principal inside a handler mounted behind Require.
func requirePrincipal(r *http.Request) (*model.PublicUser, *common.AppError) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		return nil, common.NewUnauthorizedError("missing credential", nil)
	}
	return principal, nil
}
