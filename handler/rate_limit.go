package handler

import (
	"net"
	"net/http"
	"sync"
	"vidtube-api/common"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// LoginRateLimiter throttles requests per client IP with a token bucket. Buckets
// live in a bounded LRU, so idle clients are evicted without a sweeper goroutine.
type LoginRateLimiter struct {
	mu       sync.Mutex
	visitors *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

func NewLoginRateLimiter(rps float64, burst, cacheSize int) (*LoginRateLimiter, error) {
	visitors, err := lru.New[string, *rate.Limiter](cacheSize)
	if err != nil {
		return nil, err
	}
	return &LoginRateLimiter{
		visitors: visitors,
		limit:    rate.Limit(rps),
		burst:    burst,
	}, nil
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (l *LoginRateLimiter) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.visitors.Get(ip)
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.visitors.Add(ip, lim)
	}
	return lim
}

// Allow reports whether a request from ip may proceed now.
func (l *LoginRateLimiter) Allow(ip string) bool {
	return l.limiter(ip).Allow()
}

func (l *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			common.NewAppError(http.StatusTooManyRequests, "too many login attempts, try again later", nil).Send(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
