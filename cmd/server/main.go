package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"planora-ticketing/internal/config"
	"planora-ticketing/internal/database"
	"planora-ticketing/internal/handlers"
	"planora-ticketing/internal/middleware"
	"planora-ticketing/internal/monitoring"
	"planora-ticketing/internal/repositories"
	"planora-ticketing/internal/server"
	"planora-ticketing/internal/services"
)

const (
	otpRequestsPerWindow = 5
	otpRequestWindow     = 15 * time.Minute
	adminLoginAttempts   = 5
	adminLoginWindow     = 15 * time.Minute
	shutdownTimeout      = 15 * time.Second
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if err := run(logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(ctx, database.Config(cfg.Database))
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("database connection established")

	if err := db.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", "error", err)
	}

	storage, local := services.NewStorageFactory(cfg, logger).CreateStorageService(ctx)

	mailer, err := services.NewMailer(cfg, logger)
	if err != nil {
		return err
	}
	notifier := services.NewNotifier(mailer, cfg.Email.SupportEmail, logger)

	// Repositories
	ticketRepo := repositories.NewTicketRepository(db.DB)
	eventRepo := repositories.NewEventRepository(db.DB)
	statsRepo := repositories.NewAnalyticsRepository(db.DB)

	// Services
	razorpay := services.NewRazorpayService(cfg.Razorpay, logger)
	images := services.NewImageService(10 * time.Second)
	templates := services.NewTemplateService(storage, logger)
	ticketService := services.NewTicketService(
		ticketRepo,
		eventRepo,
		services.NewSignatureVerifier(cfg.Razorpay.KeySecret),
		razorpay,
		services.NewQREncoder(),
		services.NewPDFService(cfg.Email.SupportEmail),
		images,
		templates,
		storage,
		notifier,
		cfg.Server.BaseURL,
		cfg.Storage.SignedURLExpires,
		logger,
	)
	eventService := services.NewEventService(eventRepo, images, storage, logger)
	analyticsService := services.NewAnalyticsService(statsRepo, eventRepo, ticketRepo)
	otpService := services.NewOTPService(
		services.NewRedisOTPStore(rdb),
		notifier,
		cfg.Auth.OTPSecret,
		cfg.Auth.OTPTTL,
		cfg.Auth.OTPTokenTTL,
		logger,
	)

	// Auth
	adminSessions := middleware.NewAdminSessionManager(
		cfg.Auth.AdminSecrets,
		cfg.Auth.SessionSecret,
		cfg.Auth.AdminSessionTTL,
		!cfg.IsDevelopment(),
		logger,
	)
	organizerAuth := middleware.NewOrganizerAuth(cfg.Auth.OrganizerTokenSecret, logger)
	loginLimiter := middleware.NewLoginRateLimiter(adminLoginAttempts, adminLoginWindow)
	defer loginLimiter.Close()

	routerCfg := server.RouterConfig{
		Handlers: server.Handlers{
			Payment:   handlers.NewPaymentHandler(razorpay, eventService, ticketService, cfg.Razorpay.DefaultAmount, logger),
			Tickets:   handlers.NewTicketHandler(ticketService, logger),
			OTP:       handlers.NewOTPHandler(otpService, ticketService, logger),
			Events:    handlers.NewEventHandler(eventService, logger),
			Admin:     handlers.NewAdminHandler(adminSessions, ticketService, eventService, analyticsService, logger),
			Organizer: handlers.NewOrganizerHandler(eventService, ticketService, analyticsService, templates, logger),
			Health:    handlers.NewHealthHandler(db, rdb),
		},
		AdminSessions:  adminSessions,
		OrganizerAuth:  organizerAuth,
		LoginLimiter:   loginLimiter,
		OTPLimiter:     middleware.NewRedisRateLimiter(rdb, "otp", otpRequestsPerWindow, otpRequestWindow),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		UploadsDir:     local.BasePath(),
		Logger:         logger,
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           server.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		monitoring.NewMonitor(db.DB, rdb, logger).Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
