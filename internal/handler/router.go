package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/config"
	"github.com/astroconsult/consult-server-go/internal/middleware"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// RouterConfig carries everything the route tree is assembled from.
type RouterConfig struct {
	Auth    *AuthHandler
	Chat    *ChatHandler
	Wallet  *WalletHandler
	Admin   *AdminHandler
	Events  http.Handler
	Health  HealthChecker
	Protect func(http.Handler) http.Handler
	// APILimit and SendOTPLimit may be nil in tests.
	APILimit        func(http.Handler) http.Handler
	SendOTPLimit    func(http.Handler) http.Handler
	SecurityHeaders func(http.Handler) http.Handler
}

func passthrough(next http.Handler) http.Handler { return next }

func orPassthrough(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	if mw == nil {
		return passthrough
	}
	return mw
}

// NewRouter builds the public HTTP surface.
func NewRouter(cfg RouterConfig) chi.Router {
	apiLimit := orPassthrough(cfg.APILimit)
	sendOTPLimit := orPassthrough(cfg.SendOTPLimit)
	owner := middleware.RequireOwner("mobile")
	jsonBody := middleware.NewBodyLimitMiddleware(middleware.DefaultMaxBodySize).Handler

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(orPassthrough(cfg.SecurityHeaders))

	r.Get("/health", cfg.health)

	// Groups whose handlers are not configured are left unmounted, and
	// protected routes are never mounted without Protect.
	protected := cfg.Protect != nil

	r.Route("/auth", func(r chi.Router) {
		if protected && cfg.Events != nil {
			// The event stream outlives the request timeout.
			r.With(cfg.Protect).Get("/events", cfg.Events.ServeHTTP)
		}

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Use(jsonBody)

			if cfg.Auth != nil {
				r.With(sendOTPLimit).Post("/send-otp", cfg.Auth.SendOTP)
				r.Post("/verify-otp", cfg.Auth.VerifyOTP)
			}
			if !protected {
				return
			}

			r.Group(func(r chi.Router) {
				r.Use(cfg.Protect)
				r.Use(apiLimit)

				if cfg.Auth != nil {
					r.Post("/register", cfg.Auth.Register)
					r.Post("/logout", cfg.Auth.Logout)
					r.With(owner).Get("/user-status/{mobile}", cfg.Auth.UserStatus)
				}
				if cfg.Chat != nil {
					r.Post("/chat", cfg.Chat.Chat)
					r.Post("/end-chat", cfg.Chat.EndChat)
					r.With(owner).Get("/history/{mobile}", cfg.Chat.History)
					r.Post("/feedback", cfg.Chat.Feedback)
				}
			})
		})
	})

	if protected && cfg.Wallet != nil {
		r.Route("/wallet", func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Use(jsonBody)
			r.Use(cfg.Protect)
			r.Use(apiLimit)
			r.Use(owner)

			r.Get("/balance", cfg.Wallet.Balance)
			r.Get("/history", cfg.Wallet.History)
			r.Post("/recharge", cfg.Wallet.Recharge)
			r.Post("/dakshina", cfg.Wallet.Dakshina)
		})
	}

	if cfg.Admin != nil {
		r.Route("/admin", func(r chi.Router) {
			r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
			r.Mount("/", cfg.Admin.Routes())
		})
	}

	return r
}

func (cfg RouterConfig) health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	}

	if cfg.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
		defer cancel()
		if err := cfg.Health.Ping(ctx); err != nil {
			log.Error().Err(err).Msg("health check failed")
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}

	writeJSON(w, status, body)
}
