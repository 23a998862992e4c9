package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lgpd-site-api/internal/config"
	"lgpd-site-api/internal/events"
	"lgpd-site-api/internal/http/handler"
	"lgpd-site-api/internal/http/httperr"
	"lgpd-site-api/internal/http/middleware"
	"lgpd-site-api/internal/observability/logger"
	"lgpd-site-api/internal/ratelimit"
	"lgpd-site-api/internal/storage"
	"lgpd-site-api/internal/submission"
	"lgpd-site-api/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the LGPD Site API HTTP server with all middlewares and observability`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	httperr.SetExposeErrorID(cfg.IsDev())

	log.Info(ctx, "starting lgpd site api",
		logger.Module("main"),
		logger.Action("serve"),
		zap.String("version", telemetry.ServiceVersion),
		zap.String("env", cfg.AppEnv),
		zap.String("storage_driver", cfg.StorageDriver),
	)

	// Initialize telemetry strictly as opt-in
	var tracerProvider *sdktrace.TracerProvider
	var meterProvider *sdkmetric.MeterProvider
	var metrics *telemetry.Metrics

	if cfg.TelemetryEnabled() {
		log.Info(ctx, "initializing telemetry", zap.String("endpoint", cfg.OTELExporterEndpoint))

		tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint, cfg.OTELSamplingRatio)
		if err != nil {
			log.Warn(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}

		mp, m, err := telemetry.InitMetrics(ctx, cfg.OTELServiceName, cfg.OTELExporterEndpoint)
		if err != nil {
			log.Warn(ctx, "failed to initialize metrics, continuing without metrics", zap.Error(err))
		} else {
			meterProvider = mp
			metrics = m
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := meterProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown meter provider", zap.Error(err))
				}
			}()
		}

		log.Info(ctx, "telemetry initialized", zap.Bool("tracing", tracerProvider != nil), zap.Bool("metrics", metrics != nil))
	} else {
		log.Info(ctx, "telemetry disabled (opt-in only or missing endpoint)")
	}

	collectors := telemetry.NewCollectors()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var limiter middleware.Limiter
	if cfg.RateLimitEnabled() {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		// o limitador falha aberto, então um Redis fora do ar não impede o boot
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Warn(ctx, "redis unreachable, rate limiting will fail open", zap.Error(err))
		} else {
			log.Info(ctx, "redis connected")
		}

		var rateLimitCounter metric.Int64Counter
		if metrics != nil {
			rateLimitCounter = metrics.RateLimitRejections
		}
		limiter = ratelimit.NewRedisRateLimiter(redisClient, rateLimitCounter)
	} else {
		log.Info(ctx, "rate limiting disabled (REDIS_URL not set)")
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.EventsEnabled() {
		kp, err := events.NewKafkaPublisher(cfg.GetKafkaBrokers(), cfg.KafkaTopic, log)
		if err != nil {
			return fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		publisher = kp
		log.Info(ctx, "submission events enabled",
			zap.Strings("brokers", cfg.GetKafkaBrokers()),
			zap.String("topic", cfg.KafkaTopic),
		)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn(context.Background(), "failed to close event publisher", zap.Error(err))
		}
	}()

	pipeline := submission.New(submission.Deps{
		Store:   store,
		Events:  publisher,
		Metrics: collectors,
		Log:     log,
		Timeout: cfg.StorageTimeout(),
	})

	pinger, _ := store.(storage.Pinger)

	r := buildRouter(RouterDeps{
		Cfg:        cfg,
		Log:        log,
		Collectors: collectors,
		Metrics:    metrics,
		Limiter:    limiter,
		Pinger:     pinger,
		Handler:    handler.NewSubmissionHandler(pipeline),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-sigChan:
	}

	log.Info(ctx, "shutdown signal received, starting graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}

	log.Info(shutdownCtx, "shutdown complete")
	return nil
}
