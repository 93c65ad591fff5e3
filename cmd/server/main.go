package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askaruly/shop-auth/config"
	"github.com/askaruly/shop-auth/internal/health"
	"github.com/askaruly/shop-auth/internal/infrastructure/postgres"
	"github.com/askaruly/shop-auth/internal/jwt"
	ctxlog "github.com/askaruly/shop-auth/internal/log"
	"github.com/askaruly/shop-auth/internal/metrics"
	"github.com/askaruly/shop-auth/internal/otp"
	"github.com/askaruly/shop-auth/internal/sms"
	"github.com/askaruly/shop-auth/internal/sweeper"
	httptransport "github.com/askaruly/shop-auth/internal/transport/http"
	"github.com/askaruly/shop-auth/internal/transport/http/handler"
	"github.com/askaruly/shop-auth/internal/transport/http/middleware"
	"github.com/askaruly/shop-auth/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	userRepo := postgres.NewUserRepository(pool)
	tokenRepo := postgres.NewTokenRepository(pool)

	issuer := jwt.NewIssuer([]byte(cfg.JWTSecret), cfg.JWTTTL())
	generator := otp.NewGenerator(tokenRepo, cfg.OTPCodeLength)
	smsSender := sms.NewSender(cfg.Env, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom, logger)

	authUsecase := usecase.NewAuthUsecase(userRepo, tokenRepo, generator, smsSender, issuer, logger, cfg.OTPTTL())
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	tokenSweeper, err := sweeper.NewSweeper(tokenRepo, logger, cfg.SweepSchedule, cfg.OTPTTL())
	if err != nil {
		stop()
		log.Fatalf("sweeper: %v", err)
	}
	go tokenSweeper.Start(ctx)

	entryLimiter := middleware.NewRateLimiter(cfg.EntryRatePerMinute)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, issuer, entryLimiter),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
