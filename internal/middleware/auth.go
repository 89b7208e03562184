package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
)

type contextKey string

const MobileContextKey contextKey = "mobile"

// GetMobile returns the mobile number the request was authenticated as.
func GetMobile(ctx context.Context) string {
	if mobile, ok := ctx.Value(MobileContextKey).(string); ok {
		return mobile
	}
	return ""
}

// WithMobile returns ctx carrying an authenticated mobile.
func WithMobile(ctx context.Context, mobile string) context.Context {
	return context.WithValue(ctx, MobileContextKey, mobile)
}

// TokenAuthenticator resolves a bearer token to the mobile it was issued for.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	auth TokenAuthenticator
}

func NewAuthMiddleware(auth TokenAuthenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, apperrors.Unauthorized("Not authenticated"))
			return
		}

		mobile, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			if apperrors.GetCode(err) == apperrors.ErrCodeInvalidToken {
				log.Warn().Str("path", r.URL.Path).Msg("auth middleware: invalid token attempt")
			}
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithMobile(r.Context(), mobile)))
	})
}

// RequireOwner rejects requests whose mobile, taken from the URL parameter
// or query value named param, is not the authenticated one. Requests that
// carry no mobile pass through.
func RequireOwner(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mobile := chi.URLParam(r, param)
			if mobile == "" {
				mobile = r.URL.Query().Get(param)
			}
			if mobile != "" && mobile != GetMobile(r.Context()) {
				writeError(w, apperrors.Forbidden("Not allowed to access another user's data"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the bearer header, falling back to the token query
// parameter that EventSource clients use.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}

	return r.URL.Query().Get("token")
}
