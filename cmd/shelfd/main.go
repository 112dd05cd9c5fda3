package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/shelfd/shelfd/pkg/api"
	"github.com/shelfd/shelfd/pkg/auth"
	"github.com/shelfd/shelfd/pkg/config"
	"github.com/shelfd/shelfd/pkg/middleware"
	"github.com/shelfd/shelfd/pkg/observability"
	"github.com/shelfd/shelfd/pkg/sso"
	"github.com/shelfd/shelfd/pkg/storage"
)

func main() {
	startupLog := logrus.New()
	startupLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		startupLog.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.LogLevel(), os.Stdout)
	ctx := context.Background()

	// Database
	db, err := storage.Open(cfg.Database)
	if err != nil {
		startupLog.Fatalf("Failed to open database: %v", err)
	}

	if err := storage.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		startupLog.Fatalf("Failed to run migrations: %v", err)
	}
	startupLog.Infof("Database ready (driver=%s)", cfg.Database.Driver)

	// Redis (optional, backs the login rate limiter)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			// rate limiting fails open, a dead redis is not fatal
			startupLog.Warnf("Redis unreachable at startup: %v", err)
		} else {
			startupLog.Infof("Redis connected (%s)", cfg.Redis.Addr)
		}
	}

	// Metrics
	var metrics *observability.Metrics
	registry := prometheus.NewRegistry()
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	// OpenTelemetry
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		startupLog.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}

	// Stores and auth core
	users := storage.NewUserStore(db)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	issuer := auth.NewIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL, users)
	verifier := auth.NewVerifier([]byte(cfg.Auth.JWTSecret), users)

	var books api.BookCatalog = storage.NewBookStore(db)
	if cfg.Cache.Enabled {
		books = storage.NewCachedBookStore(storage.NewBookStore(db), cfg.Cache.TTL, metrics)
	}

	// Google sign-in (optional)
	var ssoHandlers *sso.Handlers
	if cfg.OAuthEnabled() {
		provider, err := sso.NewGoogleProvider(ctx,
			cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
		if err != nil {
			startupLog.Fatalf("Failed to configure Google sign-in: %v", err)
		}
		ssoHandlers = sso.NewHandlers(provider, sso.NewProvisioner(users, hasher), issuer, logger, metrics)
		startupLog.Info("Google sign-in enabled")
	}

	var loginLimiter *middleware.LoginRateLimiter
	if redisClient != nil {
		loginLimiter = middleware.NewLoginRateLimiter(redisClient, &middleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			WindowDuration:    cfg.RateLimit.Window,
		}, metrics)
	}

	server := api.NewServer(api.ServerOptions{
		Users:        users,
		Books:        books,
		Hasher:       hasher,
		Issuer:       issuer,
		Verifier:     verifier,
		Logger:       logger,
		Metrics:      metrics,
		SSOHandlers:  ssoHandlers,
		LoginLimiter: loginLimiter,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	var apiHandler http.Handler = server.Router()
	if cfg.Observability.OTelEnabled {
		apiHandler = otelhttp.NewHandler(apiHandler, "shelfd")
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      apiHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Health and metrics server on its own port for probes
	healthChecker := observability.NewHealthChecker(db, redisClient)
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", healthChecker.Liveness)
	healthMux.HandleFunc("/readyz", healthChecker.Readiness)
	if cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler:      healthMux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Stale-session sweeper
	sweeper := cron.New()
	if _, err := sweeper.AddFunc(fmt.Sprintf("@every %s", cfg.Auth.SweepInterval), func() {
		defer observability.RecoverPanic(logger, "token sweeper")
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cleared, err := users.ClearExpiredTokens(sweepCtx, time.Now())
		if err != nil {
			logger.WithError(err).Error("token sweep failed")
			return
		}
		if cleared > 0 {
			logger.WithField("cleared", cleared).Info("cleared expired sessions")
		}
	}); err != nil {
		startupLog.Fatalf("Failed to schedule token sweeper: %v", err)
	}
	if metrics != nil {
		if _, err := sweeper.AddFunc("@every 15s", func() {
			stats := db.Stats()
			metrics.DBConnectionsActive.Set(float64(stats.InUse))
			metrics.DBConnectionsIdle.Set(float64(stats.Idle))
		}); err != nil {
			startupLog.Fatalf("Failed to schedule pool stats collector: %v", err)
		}
	}
	sweeper.Start()

	shutdown := observability.NewShutdownManager(logger, apiServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(healthServer.Shutdown)
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		sweeper.Stop()
		return nil
	})
	shutdown.RegisterShutdownFunc(func(context.Context) error {
		return db.Close()
	})
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	if otelProviders != nil {
		shutdown.RegisterShutdownFunc(func(sctx context.Context) error {
			return observability.ShutdownOTel(sctx, otelProviders, logger)
		})
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		startupLog.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		startupLog.Infof("Health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})
	go func() {
		if err := g.Wait(); err != nil {
			startupLog.Fatalf("Server error: %v", err)
		}
	}()

	if err := shutdown.WaitForShutdown(); err != nil {
		startupLog.Fatalf("Shutdown error: %v", err)
	}
	startupLog.Info("Shutdown complete")
}
