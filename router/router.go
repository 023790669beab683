package router

import (
	"net/http"
	_ "vidtube-api/docs"
	"vidtube-api/handler"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func NewRouter(userHandler *handler.UserHandler, channelHandler *handler.ChannelHandler,
	gate *handler.AuthGate, loginLimiter *handler.LoginRateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Public
	mux.Handle("POST /api/v1/users/register", handler.ErrorHandlingMiddleware(userHandler.Register))
	mux.Handle("POST /api/v1/users/login", loginLimiter.Middleware(handler.ErrorHandlingMiddleware(userHandler.Login)))
	mux.Handle("GET /api/v1/users/refresh", handler.ErrorHandlingMiddleware(userHandler.Refresh))
	mux.Handle("POST /api/v1/users/refresh", handler.ErrorHandlingMiddleware(userHandler.Refresh))
	mux.Handle("GET /api/v1/users/channel/{username}", gate.Optional(handler.ErrorHandlingMiddleware(channelHandler.ChannelProfile)))

	// Authenticated
	mux.Handle("POST /api/v1/users/logout", gate.Require(handler.ErrorHandlingMiddleware(userHandler.Logout)))
	mux.Handle("POST /api/v1/users/change-password", gate.Require(handler.ErrorHandlingMiddleware(userHandler.ChangePassword)))
	mux.Handle("GET /api/v1/users/profile", gate.Require(handler.ErrorHandlingMiddleware(userHandler.CurrentUser)))
	mux.Handle("GET /api/v1/users/history", gate.Require(handler.ErrorHandlingMiddleware(channelHandler.WatchHistory)))

	return handler.RequestLogger(mux)
}
