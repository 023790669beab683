package handler

import (
	"net/http"
	"time"
	"vidtube-api/logger"

	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger logs one line per request. Headers are not logged, so tokens
// in Authorization or Cookie never reach the log.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		entry := logger.Log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status_code": rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   clientIP(r),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Error("Request failed")
		} else {
			entry.Info("Request handled")
		}
	})
}
