package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/astroconsult/consult-server-go/internal/config"
	"github.com/astroconsult/consult-server-go/internal/database"
	"github.com/astroconsult/consult-server-go/internal/handler"
	"github.com/astroconsult/consult-server-go/internal/jobs"
	"github.com/astroconsult/consult-server-go/internal/middleware"
	"github.com/astroconsult/consult-server-go/internal/oracle"
	"github.com/astroconsult/consult-server-go/internal/rag"
	"github.com/astroconsult/consult-server-go/internal/redis"
	"github.com/astroconsult/consult-server-go/internal/repository"
	"github.com/astroconsult/consult-server-go/internal/service"
	"github.com/astroconsult/consult-server-go/internal/sse"
	"github.com/astroconsult/consult-server-go/internal/util"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Migrate(migrateCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	migrateCancel()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	userRepo := repository.NewUserRepository(db.DB)
	profileRepo := repository.NewProfileRepository(db.DB)
	tokenRepo := repository.NewTokenRepository(db.DB)
	chatRepo := repository.NewChatRepository(db.DB)
	walletRepo := repository.NewWalletRepository(db.DB)
	feedbackRepo := repository.NewFeedbackRepository(db.DB)
	promptRepo := repository.NewPromptRepository(db.DB)
	adminSessionRepo := repository.NewAdminSessionRepository(db.DB)

	broker := sse.NewBroker(redisClient)
	defer broker.Close()

	promptService := service.NewPromptService(promptRepo)

	var responder oracle.Responder = oracle.NewScriptedResponder()
	var embedder rag.Embedder = rag.NewHashingEmbedder()
	if cfg.GeminiAPIKey != "" {
		genaiClient, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create gemini client")
		}
		defer genaiClient.Close()
		responder = oracle.NewGeminiResponder(genaiClient, cfg.GeminiModel, promptService)
		embedder = rag.NewGeminiEmbedder(genaiClient)
		log.Info().Str("model", cfg.GeminiModel).Msg("gemini oracle enabled")
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set: using scripted oracle")
	}

	limiter := service.NewRateLimiter(redisClient.Client)
	cipher := util.NewFieldCipher(cfg.EncryptionKey)

	authService := service.NewAuthService(
		userRepo, tokenRepo,
		service.NewRedisOTPStore(redisClient.Client),
		limiter,
		service.LogOTPSender{},
		service.AuthOptions{OTPTTL: cfg.OTPTTL(), DevEcho: cfg.OTPDevEcho},
	)
	userService := service.NewUserService(
		db, userRepo, profileRepo, walletRepo, authService, cipher, responder, broker, cfg.SignupCredit,
	)
	chatService := service.NewChatService(
		db, userRepo, chatRepo, walletRepo, feedbackRepo, userService, responder, broker, cfg.GurujiPrice,
	)
	walletService := service.NewWalletService(db, userRepo, walletRepo, broker, cfg.MaxRecharge)
	adminService := service.NewAdminService(
		adminSessionRepo, userRepo, chatRepo, walletRepo, feedbackRepo, userService, chatService,
		service.AdminConfig{
			Username:      cfg.AdminUsername,
			PasswordHash:  cfg.AdminPasswordHash,
			SessionSecret: cfg.AdminSessionSecret,
			LiveClients:   broker.TotalClients,
		},
	)
	ragTester := rag.NewTester(embedder, responder, rag.SimilarityThreshold)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	apiLimit := middleware.NewRateLimitMiddleware(limiter, config.DefaultRateLimitPerMin)
	sendOTPLimit := middleware.NewIPRateLimitMiddleware(limiter, config.OTPSendPerIPMin, time.Minute, "send-otp")
	adminSessionMiddleware := middleware.NewAdminSessionMiddleware(adminService, cfg.AdminPasswordHash != "")
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	r := handler.NewRouter(handler.RouterConfig{
		Auth:            handler.NewAuthHandler(authService, userService),
		Chat:            handler.NewChatHandler(chatService),
		Wallet:          handler.NewWalletHandler(walletService),
		Admin:           handler.NewAdminHandler(adminService, promptService, ragTester, adminSessionMiddleware.Handler, isProduction),
		Events:          handler.NewEventsHandler(broker, userService),
		Health:          db,
		Protect:         authMiddleware.Handler,
		APILimit:        apiLimit.Handler,
		SendOTPLimit:    sendOTPLimit.Handler,
		SecurityHeaders: securityHeadersMiddleware.Handler,
	})

	cleanupJob := jobs.NewCleanupJob(tokenRepo, adminSessionRepo, config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	precomputeJob := jobs.NewPrecomputeJob(userService, cfg.PrecomputeInterval())
	precomputeJob.Start()
	defer precomputeJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
