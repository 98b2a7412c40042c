// server runs the HTTP authentication service.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	activityrepo "ecc-auth/internal/activity/repository"
	authhandler "ecc-auth/internal/auth/handler"
	authservice "ecc-auth/internal/auth/service"
	"ecc-auth/internal/config"
	"ecc-auth/internal/db"
	"ecc-auth/internal/geo"
	"ecc-auth/internal/logging"
	"ecc-auth/internal/mail"
	"ecc-auth/internal/metrics"
	"ecc-auth/internal/otp"
	"ecc-auth/internal/server"
	sessionrepo "ecc-auth/internal/session/repository"
	otelsetup "ecc-auth/internal/telemetry/otel"
	userrepo "ecc-auth/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewDefault()
	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "ecc-auth", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "telemetry shutdown failed", "err", err)
		}
	}()

	var (
		users      authservice.UserRepo
		sessions   authservice.SessionRepo
		activities authservice.ActivityRepo
		pinger     server.Pinger
	)
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer conn.Close()
		users = userrepo.NewPostgresRepository(conn)
		sessions = sessionrepo.NewPostgresRepository(conn)
		activities = activityrepo.NewPostgresRepository(conn)
		pinger = conn
	} else {
		logger.Warn(ctx, "DATABASE_URL not set, using in-memory stores")
		users = userrepo.NewMemoryRepository()
		sessions = sessionrepo.NewMemoryRepository()
		activities = activityrepo.NewMemoryRepository()
	}

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer, err = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
		if err != nil {
			log.Fatalf("mail: %v", err)
		}
	} else {
		logger.Warn(ctx, "SMTP_HOST not set, mail goes to the log only")
		mailer = mail.NewLogMailer(logger)
	}

	svc := authservice.NewAuthService(
		users, sessions, activities,
		otp.NewEngine(),
		mailer,
		geo.NewIPAPIClient(cfg.GeoBaseURL),
		logger,
		cfg.PendingAuthDuration(),
		cfg.DevLogOTP,
	)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	codec := authhandler.NewCookieCodec(
		cfg.SessionCookieName,
		[]byte(cfg.SessionJWTSecret),
		cfg.SessionCookieSecure,
		cfg.SessionCookieDuration(),
	)
	limiter := server.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst)
	defer limiter.Stop()

	router := server.NewRouter(server.Deps{
		Auth:           authhandler.NewAuthHandler(svc, codec, collector, logger),
		Metrics:        collector,
		Registry:       registry,
		RateLimiter:    limiter,
		TracerProvider: providers.TracerProvider,
		HealthPinger:   pinger,
	}, logger)

	srv := server.New(cfg.HTTPAddr, router, logger)
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "shutdown failed", "err", err)
	}
}
