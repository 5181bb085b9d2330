package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/littleleg198602/MELODY4U/internal/config"
	"github.com/littleleg198602/MELODY4U/internal/event"
	handler "github.com/littleleg198602/MELODY4U/internal/handler/http"
	"github.com/littleleg198602/MELODY4U/internal/pipeline"
	"github.com/littleleg198602/MELODY4U/internal/service"
	"github.com/littleleg198602/MELODY4U/internal/storage"
	"github.com/littleleg198602/MELODY4U/internal/storage/s3"
	"github.com/littleleg198602/MELODY4U/pkg/health"
	pkgkafka "github.com/littleleg198602/MELODY4U/pkg/kafka"
	"github.com/littleleg198602/MELODY4U/pkg/middleware"
)

// App wires together all dependencies and runs the mix service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
// Absent storage credentials are a warning, not a startup failure: health
// endpoints must stay reachable on a half-configured deployment.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	var store storage.Storage
	if cfg.StorageConfigured() {
		s3Store, err := s3.New(s3.Config{
			Endpoint:        cfg.ResolvedS3Endpoint(),
			AccountID:       cfg.S3AccountID,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UseSSL:          cfg.S3UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
		store = s3Store
		logger.Info("object storage initialized",
			slog.String("endpoint", cfg.ResolvedS3Endpoint()),
			slog.String("bucket", cfg.S3Bucket),
		)
	} else {
		logger.Warn("object storage credentials missing; upload and render endpoints disabled")
	}

	// Mix pipeline.
	mixer := pipeline.NewFFmpeg(
		pipeline.WithBinary(cfg.FFmpegBinary),
		pipeline.WithTimeout(cfg.RenderTimeout),
	)

	// Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	eventProducer := event.NewProducer(producer, logger)
	mixService := service.NewMixService(store, mixer, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	if store != nil {
		healthHandler.Register("storage", func(ctx context.Context) error {
			return store.Ping(ctx)
		})
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSOrigins
	corsCfg.Environment = cfg.Environment
	router := handler.NewRouter(mixService, healthHandler, corsCfg, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
		// Uploads and renders are long requests; the write deadline has to
		// outlast the pipeline timeout.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: cfg.RenderTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	// Close Kafka producer.
	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
	return nil
}
