package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lalith-99/teamsync/internal/api"
	"github.com/lalith-99/teamsync/internal/config"
	"github.com/lalith-99/teamsync/internal/db"
	"github.com/lalith-99/teamsync/internal/observ"
	"github.com/lalith-99/teamsync/internal/ratelimit"
	"github.com/lalith-99/teamsync/internal/repository/postgres"
	"github.com/lalith-99/teamsync/internal/service/channel"
	"github.com/lalith-99/teamsync/internal/service/team"
	"github.com/lalith-99/teamsync/internal/service/user"
	"github.com/lalith-99/teamsync/internal/ws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---------------------------------------------------------------
	// 1. Config and logger
	// ---------------------------------------------------------------
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------------------------------------------------------
	// 2. Postgres, migrations
	// ---------------------------------------------------------------
	if cfg.MigrateOnStart {
		migrator, err := db.NewMigrator(cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		if err := migrator.Up(ctx); err != nil {
			return err
		}
	}

	database, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns}, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	store := postgres.NewStore(database.Pool())

	// ---------------------------------------------------------------
	// 3. Metrics, rate limiting, event hub
	// ---------------------------------------------------------------
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observ.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		limiter, err = ratelimit.NewRedis(ctx, cfg.RedisURL, logger)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
	} else {
		logger.Info("REDIS_URL not set, rate limiting in process")
		limiter = ratelimit.NewMemory()
	}
	defer limiter.Close()

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	// ---------------------------------------------------------------
	// 4. Services and router
	// ---------------------------------------------------------------
	channels := channel.New(store, hub, metrics, logger)
	teams := team.New(store, channels, hub, logger)
	users := user.New(store, logger)

	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, operator_user is trusted as sent")
	}

	router := api.NewRouter(api.Deps{
		Users:              users,
		Teams:              teams,
		Channels:           channels,
		Hub:                hub,
		Logger:             logger,
		Metrics:            metrics,
		Limiter:            limiter,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		JWTSecret:          cfg.JWTSecret,
		Gatherer:           reg,
		Health:             database.Health,
	})

	// ---------------------------------------------------------------
	// 5. Serve until signalled, then drain
	// ---------------------------------------------------------------
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting teamsync",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
