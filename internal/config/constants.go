package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts. Report generation can be slow, so the request
// ceiling matches the client-side ceiling.
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Default rate limiting
const DefaultRateLimitPerMin = 60

// OTP issuance
const (
	OTPLength           = 4
	OTPMaxAttempts      = 5
	OTPSendPerMobileMin = 3
	OTPSendPerIPMin     = 20
)

// Auth token lifetime
const AuthTokenTTL = 30 * 24 * time.Hour

// Client-side protocol timings
const (
	ClientHTTPTimeout       = 60 * time.Second
	ReadinessPollInterval   = 2 * time.Second
	ChatInactivityTimeout   = 10 * time.Minute
	RegistrationTimeout     = 10 * time.Minute
	DefaultAPIBaseURL       = "http://localhost:8080"
	DefaultIdentityFileName = ".consultctl.yaml"
)
