package handler

import (
	"net/http"
	"strings"
	"time"
	"vidtube-api/config"
	"vidtube-api/model"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

func sameSiteMode(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// authCookie builds a token cookie. Token cookies are always HttpOnly and Secure.
func authCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   config.AppConfig.Cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: sameSiteMode(config.AppConfig.Cookie.SameSite),
	}
}

func secondsUntil(t time.Time) int {
	seconds := int(time.Until(t).Seconds())
	if seconds < 1 {
		return 1
	}
	return seconds
}

func setAuthCookies(w http.ResponseWriter, pair *model.TokenPair) {
	http.SetCookie(w, authCookie(accessCookieName, pair.AccessToken, secondsUntil(pair.AccessExpiresAt)))
	http.SetCookie(w, authCookie(refreshCookieName, pair.RefreshToken, secondsUntil(pair.RefreshExpiresAt)))
}

func clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, authCookie(accessCookieName, "", -1))
	http.SetCookie(w, authCookie(refreshCookieName, "", -1))
}
