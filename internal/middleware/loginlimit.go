package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
)

const (
	loginMaxAttempts = 5
	loginWindow      = time.Minute
)

// LoginRateLimiter caps admin login attempts per client IP in a fixed
// window. It lives in process memory; admin logins are rare and a restart
// forgetting the counts is acceptable.
type LoginRateLimiter struct {
	mu      sync.Mutex
	windows map[string]loginWindowState
	now     func() time.Time
}

type loginWindowState struct {
	attempts int
	resetAt  time.Time
}

func NewLoginRateLimiter() *LoginRateLimiter {
	return &LoginRateLimiter{
		windows: make(map[string]loginWindowState),
		now:     time.Now,
	}
}

// take records an attempt from ip and reports how long to wait when the
// window is exhausted.
func (l *LoginRateLimiter) take(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}

	w, ok := l.windows[ip]
	if !ok {
		w = loginWindowState{resetAt: now.Add(loginWindow)}
	}
	if w.attempts >= loginMaxAttempts {
		return false, w.resetAt.Sub(now)
	}
	w.attempts++
	l.windows[ip] = w
	return true, 0
}

// Forget clears the count for the caller of r, after a successful login.
func (l *LoginRateLimiter) Forget(r *http.Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, clientIP(r))
}

func (l *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.take(clientIP(r))
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(wait.Seconds()+0.999)))
			writeError(w, apperrors.New(apperrors.ErrCodeRateLimitExceeded, "Too many login attempts. Please try again later."))
			return
		}
		next.ServeHTTP(w, r)
	})
}
