package middleware

import (
	"context"
	"net/http"
	"time"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
)

const (
	AdminSessionCookie = "admin_session"
	SessionMaxAge      = 24 * time.Hour
)

// AdminSessionValidator reports whether an admin session token is live.
type AdminSessionValidator interface {
	ValidateSession(ctx context.Context, token string) bool
}

type AdminSessionMiddleware struct {
	sessions   AdminSessionValidator
	configured bool
}

func NewAdminSessionMiddleware(sessions AdminSessionValidator, configured bool) *AdminSessionMiddleware {
	return &AdminSessionMiddleware{sessions: sessions, configured: configured}
}

func (m *AdminSessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.configured {
			writeError(w, apperrors.Forbidden("Admin not configured"))
			return
		}

		if !m.sessions.ValidateSession(r.Context(), AdminToken(r)) {
			writeError(w, apperrors.Unauthorized("Unauthorized"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminToken reads the admin session from its cookie or a bearer header.
func AdminToken(r *http.Request) string {
	if cookie, err := r.Cookie(AdminSessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return extractToken(r)
}

func SetSessionCookie(w http.ResponseWriter, name, token, path string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   path,
		MaxAge: -1,
	})
}
