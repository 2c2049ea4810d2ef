package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dilovar-s/protokol/pkg/api"
	"github.com/dilovar-s/protokol/pkg/audit"
	"github.com/dilovar-s/protokol/pkg/auth"
	"github.com/dilovar-s/protokol/pkg/config"
	"github.com/dilovar-s/protokol/pkg/files"
	"github.com/dilovar-s/protokol/pkg/janitor"
	"github.com/dilovar-s/protokol/pkg/middleware"
	"github.com/dilovar-s/protokol/pkg/observability"
	"github.com/dilovar-s/protokol/pkg/store"
	"github.com/dilovar-s/protokol/pkg/transcribe"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("configuration error: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.ParsedLogLevel(), os.Stdout)
	ctx := context.Background()

	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("OpenTelemetry initialization failed")
		os.Exit(1)
	}

	st, err := store.Open(store.Config{
		URL:         cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     cfg.Database.Timeout,
		MaxLifetime: cfg.Database.MaxLifetime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		logger.WithError(err).Error("Database connection failed")
		os.Exit(1)
	}
	logger.Info("Database connected and migrated")

	blobs, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Blob store initialization failed")
		os.Exit(1)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.WithError(err).Error("Token service initialization failed")
		os.Exit(1)
	}

	var transcriber transcribe.Transcriber
	if cfg.Transcription.URL != "" {
		transcriber = transcribe.NewClient(cfg.Transcription.URL, cfg.Transcription.DefaultLanguage, cfg.Transcription.Timeout)
		logger.Infof("Transcription service: %s", cfg.Transcription.URL)
	} else {
		transcriber = transcribe.NewSimulator()
		logger.Warn("No transcription service configured, using the built-in simulator")
	}

	var registry *prometheus.Registry
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		metrics = observability.NewMetrics(registry)
	}

	limiterCtx, cancelLimiter := context.WithCancel(ctx)
	defer cancelLimiter()
	redisClient, limiter, err := buildLoginLimiter(limiterCtx, cfg)
	if err != nil {
		logger.WithError(err).Error("Rate limiter initialization failed")
		os.Exit(1)
	}

	auditor, err := audit.NewDBLogger(st.DB())
	if err != nil {
		logger.WithError(err).Error("Audit logger initialization failed")
		os.Exit(1)
	}

	server := api.NewServer(api.Options{
		Logger:          logger,
		Metrics:         metrics,
		Users:           st.Users(),
		Records:         st.Interrogations(),
		Blobs:           blobs,
		Tokens:          tokens,
		Transcriber:     transcriber,
		Audit:           auditor,
		Limiter:         limiter,
		BcryptCost:      cfg.Auth.BcryptCost,
		MaxUploadSize:   cfg.Files.MaxUploadSize,
		DefaultLanguage: cfg.Transcription.DefaultLanguage,
		AllowedOrigins:  []string{"*"},
		Tracing:         cfg.Observability.OTelEnabled,
	})

	apiServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	checker := observability.NewHealthChecker(st.DB(), redisClient)
	observability.RegisterHealthRoutes(healthMux, checker)
	if registry != nil {
		observability.RegisterMetricsEndpoint(healthMux, registry)
	}
	healthServer := &http.Server{
		Addr:    net.JoinHostPort(cfg.Server.Host, cfg.Server.HealthPort),
		Handler: healthMux,
	}

	if metrics != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-limiterCtx.Done():
					return
				case <-ticker.C:
					metrics.CollectDBStats(st.DB())
				}
			}
		}()
	}

	var stopJanitor func()
	if cfg.Janitor.Enabled {
		j := janitor.New(janitor.Config{
			Schedule: cfg.Janitor.Schedule,
			MinAge:   cfg.Janitor.MinAge,
		}, blobs, st.Interrogations(), logger, metrics)
		stopJanitor, err = j.Start()
		if err != nil {
			logger.WithError(err).Error("Janitor start failed")
			os.Exit(1)
		}
	}

	sm := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	sm.RegisterShutdownFunc(func(context.Context) error {
		if stopJanitor != nil {
			stopJanitor()
		}
		return nil
	})
	sm.RegisterShutdownFunc(func(shutdownCtx context.Context) error {
		return observability.ShutdownOTel(shutdownCtx, otelProviders, logger)
	})
	if redisClient != nil {
		sm.RegisterShutdownFunc(func(context.Context) error {
			return redisClient.Close()
		})
	}
	sm.RegisterShutdownFunc(func(context.Context) error {
		return st.Close()
	})

	go func() {
		logger.Infof("Interrogation records API listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("API server failed")
			os.Exit(1)
		}
	}()
	go func() {
		logger.Infof("Health and metrics endpoints listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Health server failed")
			os.Exit(1)
		}
	}()

	if err := sm.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("Shutdown finished with errors")
		os.Exit(1)
	}
}

// openBlobStore selects the configured storage backend. The filesystem
// backend is rooted at the data directory; uploads/ and documents/ live
// side by side beneath it.
func openBlobStore(ctx context.Context, cfg *config.Config, logger *observability.Logger) (files.BlobStore, error) {
	if cfg.Files.Backend == "s3" {
		logger.Infof("File storage: s3 bucket %s", cfg.Files.S3Bucket)
		return files.NewS3Store(ctx, files.S3Config{
			Endpoint:     cfg.Files.S3Endpoint,
			Region:       cfg.Files.S3Region,
			Bucket:       cfg.Files.S3Bucket,
			AccessKey:    cfg.Files.S3AccessKey,
			SecretKey:    cfg.Files.S3SecretKey,
			UsePathStyle: cfg.Files.S3UsePathStyle,
		})
	}

	logger.Infof("File storage: filesystem under %s", cfg.Files.DataDir)
	return files.NewFilesystemStore(cfg.Files.DataDir)
}

// buildLoginLimiter returns a Redis-backed limiter when a Redis URL is
// configured, otherwise an in-memory one with background cleanup.
func buildLoginLimiter(ctx context.Context, cfg *config.Config) (*redis.Client, middleware.LoginLimiter, error) {
	rlCfg := &middleware.RateLimitConfig{
		AttemptsPerWindow: cfg.RateLimit.LoginAttempts,
		WindowDuration:    cfg.RateLimit.LoginWindow,
	}

	if cfg.RateLimit.RedisURL == "" {
		rl := middleware.NewRateLimiter(rlCfg)
		rl.StartCleanup(ctx)
		return nil, rl, nil
	}

	opts, err := redis.ParseURL(cfg.RateLimit.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.RateLimit.RedisPassword != "" {
		opts.Password = cfg.RateLimit.RedisPassword
	}
	if cfg.RateLimit.RedisDB != 0 {
		opts.DB = cfg.RateLimit.RedisDB
	}

	client := redis.NewClient(opts)
	return client, middleware.NewDistributedRateLimiter(client, rlCfg, "login"), nil
}
