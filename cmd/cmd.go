package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mirror-backend/internal/branding"
	"mirror-backend/internal/config"
	"mirror-backend/internal/gemini"
	"mirror-backend/internal/handlers"
	"mirror-backend/internal/middleware"
	"mirror-backend/internal/policy"
	"mirror-backend/internal/repository"
	"mirror-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	deviceRepo := repository.NewDeviceRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	lookRepo := repository.NewLookRepository(db)
	trackRepo := repository.NewTrackRepository(db)
	configRepo := repository.NewConfigRepository(db)

	// Load the remote config snapshot the services run with. A missing or
	// broken row falls back to defaults.
	remoteCfg := loadRemoteConfig(configRepo)

	// Initialize the generative backend
	generator, err := gemini.New(context.Background(), cfg.Gemini.APIKey, cfg.Gemini.Voice)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create generative client")
	}
	defer generator.Close()

	// Initialize services
	deviceService := services.NewDeviceService(deviceRepo, cfg.JWT.Secret)
	wsHub := services.NewWSHub()
	speechService := services.NewSpeechService(generator, wsHub)
	ledger := services.NewEntitlementLedger(usageRepo, remoteCfg)
	gate := services.NewPaywallGate(remoteCfg)
	orchestrator := services.NewLookOrchestrator(generator, ledger, remoteCfg, speechService, branding.Stamp)
	sessionService := services.NewSessionService(
		deviceService, ledger, orchestrator, gate, speechService, generator, wsHub, remoteCfg)
	vaultService, err := services.NewVaultService(context.Background(), lookRepo, cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create vault service")
	}
	billingService := services.NewBillingService(remoteCfg, cfg.Stripe.SecretKey, cfg.Server.PublicURL)
	trackService := services.NewTrackService(trackRepo)
	adminService := services.NewAdminService(configRepo, trackRepo, lookRepo)

	// Initialize handlers
	deviceHandler := handlers.NewDeviceHandler(deviceService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	vaultHandler := handlers.NewVaultHandler(vaultService)
	billingHandler := handlers.NewBillingHandler(billingService)
	configHandler := handlers.NewConfigHandler(adminService)
	trackHandler := handlers.NewTrackHandler(trackService)
	adminHandler := handlers.NewAdminHandler(adminService, cfg.Admin.Token)
	wsHandler := handlers.NewWebSocketHandler(wsHub, deviceService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/devices", deviceHandler.Register)
		r.Get("/config", configHandler.Get)
		r.Post("/track/session", trackHandler.RecordSession)
		r.Post("/track/events", trackHandler.RecordEvent)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(deviceService))
			r.Use(maintenanceMiddleware(remoteCfg))

			r.Get("/devices/me", deviceHandler.Me)
			r.Post("/devices/me/premium", deviceHandler.ActivatePremium)

			r.Get("/session", sessionHandler.Get)
			r.Post("/session/mode", sessionHandler.SelectMode)
			r.Post("/session/preference", sessionHandler.ChoosePreference)
			r.Post("/session/capture", sessionHandler.Capture)
			r.Post("/session/advance", sessionHandler.AdvanceStep)
			r.Post("/session/coach", sessionHandler.AskCoach)
			r.Post("/session/shop", sessionHandler.OpenShop)
			r.Post("/session/reset", sessionHandler.Reset)
			r.Post("/session/vault/open", sessionHandler.OpenVault)
			r.Post("/session/vault/close", sessionHandler.CloseVault)
			r.Post("/session/audio", sessionHandler.SetAudio)

			r.Get("/vault", vaultHandler.List)
			r.Post("/vault", vaultHandler.Save)
			r.Delete("/vault/{lookID}", vaultHandler.Delete)

			r.Post("/billing/checkout", billingHandler.CreateCheckout)
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(adminHandler.Authorize)
			r.Get("/admin/overview", adminHandler.Overview)
			r.Put("/admin/config", adminHandler.UpdateConfig)
			r.Post("/admin/clear", adminHandler.Clear)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleConnection)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation captures are slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// loadRemoteConfig reads the stored policy, falling back to defaults
func loadRemoteConfig(repo *repository.ConfigRepository) *policy.RemoteConfig {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := repo.Get(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load remote config, using defaults")
		return policy.Defaults()
	}
	if data == nil {
		return policy.Defaults()
	}
	return policy.FromJSON(data)
}

// maintenanceMiddleware rejects app traffic while maintenance mode is on
func maintenanceMiddleware(cfg *policy.RemoteConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.MaintenanceMode {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprintf(w, `{"error":%q}`, cfg.MaintenanceMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

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

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Lang, X-Locale, X-Timezone, X-Device-Day, X-Admin-Token")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
