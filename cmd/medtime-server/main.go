package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/config"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/billing"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/guardian"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/identity"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/intake"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/medicine"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/prescription"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/reminder"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/domain/report"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/db"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/middleware"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/payments"
	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/push"
)

// deviceSourceAdapter adapts the identity repository to the
// reminder.DeviceSource interface, avoiding a circular import between the
// reminder and identity packages.
type deviceSourceAdapter struct {
	users identity.Repository
}

func (a *deviceSourceAdapter) ListWithDeviceToken(ctx context.Context, ids []uuid.UUID) ([]*reminder.Device, error) {
	users, err := a.users.ListWithDeviceToken(ctx, ids)
	if err != nil {
		return nil, err
	}
	devices := make([]*reminder.Device, 0, len(users))
	for _, u := range users {
		if u.DeviceToken == nil || *u.DeviceToken == "" {
			continue
		}
		devices = append(devices, &reminder.Device{UserID: u.ID, Token: *u.DeviceToken})
	}
	return devices, nil
}

// devActorID is the fixed admin identity assumed for unauthenticated requests
// in development mode.
var devActorID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func main() {
	rootCmd := &cobra.Command{
		Use:   "medtime-server",
		Short: "Medication adherence API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the adherence API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	// migrate status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	jwtCfg := auth.JWTConfig{
		Secret: []byte(cfg.JWTSecret),
		TTL:    time.Duration(cfg.JWTTTLMinutes) * time.Minute,
	}

	// API groups. The public group carries no auth middleware; everything
	// under /api/v1 requires an authenticated actor.
	public := e.Group("")
	apiV1 := e.Group("/api/v1")

	if cfg.IsDev() && cfg.JWTSecret == "" {
		apiV1.Use(auth.DevAuthMiddleware(devActorID, jwtCfg))
	} else {
		apiV1.Use(auth.JWTMiddleware(jwtCfg))
	}

	// Rate limiting middleware
	rateLimitCfg := middleware.RateLimitConfig{
		RPS:   cfg.RateLimitRPS,
		Burst: cfg.RateLimitBurst,
	}
	if rateLimitCfg.RPS <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Identity
	userRepo := identity.NewRepoPG(pool)
	identitySvc := identity.NewService(userRepo, jwtCfg)
	identityHandler := identity.NewHandler(identitySvc)
	identityHandler.RegisterPublicRoutes(public)
	identityHandler.RegisterRoutes(apiV1)

	// Guardian links. The guardian service doubles as the authorizer for
	// every other domain.
	linkRepo := guardian.NewRepoPG(pool)
	guardianSvc := guardian.NewService(linkRepo)
	guardianHandler := guardian.NewHandler(guardianSvc)
	guardianHandler.RegisterRoutes(apiV1)

	// Medicine catalog
	medicineRepo := medicine.NewRepoPG(pool)
	medicineSvc := medicine.NewService(medicineRepo)
	medicineHandler := medicine.NewHandler(medicineSvc)
	medicineHandler.RegisterRoutes(apiV1)

	// Prescriptions and dose schedules
	rxRepo := prescription.NewRepoPG(pool)
	rxSvc := prescription.NewService(rxRepo, guardianSvc)
	rxHandler := prescription.NewHandler(rxSvc)
	rxHandler.RegisterRoutes(apiV1)

	// Intake log
	eventRepo := intake.NewRepoPG(pool)
	intakeSvc := intake.NewService(eventRepo, guardianSvc)
	intakeHandler := intake.NewHandler(intakeSvc)
	intakeHandler.RegisterRoutes(apiV1)

	// Adherence reports and dashboard
	reportSvc := report.NewService(eventRepo, rxRepo)
	reportHandler := report.NewHandler(reportSvc, guardianSvc)
	reportHandler.RegisterRoutes(apiV1)

	// Subscriptions
	var gateway payments.Gateway
	if cfg.PaymentBaseURL != "" {
		gateway = payments.NewHTTPGateway(cfg.PaymentBaseURL, cfg.PaymentAPIKey)
	} else {
		logger.Warn().Msg("PAYMENT_BASE_URL not set, using mock payment gateway")
		gateway = &payments.MockGateway{}
	}
	subRepo := billing.NewRepoPG(pool)
	billingSvc := billing.NewService(subRepo, gateway, billing.Config{
		WebhookSecret: cfg.PaymentSecret,
		ReturnURL:     cfg.PaymentReturnURL,
	})
	billingHandler := billing.NewHandler(billingSvc)
	billingHandler.RegisterRoutes(apiV1)
	billingHandler.RegisterWebhook(public)

	// Reminder engine
	engineCtx, stopEngine := context.WithCancel(ctx)
	defer stopEngine()
	if cfg.ReminderEnabled {
		var notifier push.Notifier = push.NopNotifier{}
		if cfg.PushGatewayURL != "" {
			notifier = push.NewGatewayNotifier(cfg.PushGatewayURL, cfg.PushGatewayKey)
		} else {
			logger.Warn().Msg("PUSH_GATEWAY_URL not set, reminder delivery disabled")
		}
		engine := reminder.NewEngine(reminder.Config{
			Interval: time.Duration(cfg.ReminderInterval) * time.Second,
			Grace:    time.Duration(cfg.ReminderGrace) * time.Minute,
		}, eventRepo, &deviceSourceAdapter{users: userRepo}, notifier, logger)
		engine.Start(engineCtx)
		logger.Info().
			Int("interval_seconds", cfg.ReminderInterval).
			Int("grace_minutes", cfg.ReminderGrace).
			Msg("reminder engine started")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopEngine()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
