package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/analytics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/auth"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/cache"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/config"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/crypto"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/handlers"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/phi"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/pipeline"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/producer"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/server"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/stream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the event ingestion API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("api"))
	logging.SetDefault(logger)

	logger.Info("starting ingestion API",
		"port", cfg.Server.Port,
		"stream", cfg.Kinesis.StreamName,
		"backend", cfg.Kinesis.Backend,
	)

	// Redis backs ingestion status, dynamic API keys, and the analytics
	// cache. The API degrades rather than refusing to start without it.
	var store *cache.Cache
	if cfg.Redis.Enabled {
		store, err = cache.New(cfg.Redis.URL)
		if err != nil {
			log.Printf("WARNING: redis unavailable, status tracking disabled: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	} else {
		log.Println("Redis disabled - status tracking and dynamic API keys unavailable")
	}

	encryptor, err := crypto.NewService(cfg.Encryption.Secret, cfg.Encryption.Salt, cfg.Encryption.KeyID)
	if err != nil {
		return fmt.Errorf("init encryption: %w", err)
	}
	redactor := phi.New(encryptor)

	var status pipeline.StatusStore
	if store != nil {
		status = store
	}
	pipe := pipeline.New(redactor, status, logger)

	transport, err := newTransport(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("init stream transport: %w", err)
	}

	prod := producer.New(transport, producer.Config{
		StreamName:    cfg.Kinesis.StreamName,
		DLQStreamName: cfg.Kinesis.DLQStreamName,
		MaxAttempts:   cfg.Producer.MaxAttempts,
		BaseDelay:     cfg.Producer.BaseDelay,
	}, logger)

	dispatcher := producer.NewDispatcher(prod, cfg.Ingestion.QueueSize, cfg.Ingestion.PublishWorkers, logger)
	defer dispatcher.Close()

	// Analytics read API is optional: it needs Postgres.
	var analyticsHandler *handlers.AnalyticsHandler
	if cfg.Database.Enabled {
		if cfg.Database.RunMigrations {
			if err := analytics.Migrate(cfg.Database.URL); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		repo, err := analytics.NewRepository(context.Background(), cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect analytics db: %w", err)
		}
		defer repo.Close()

		svc := analytics.NewService(repo, store, logger)
		analyticsHandler = handlers.NewAnalyticsHandler(svc, logger)
	} else {
		log.Println("Database disabled - analytics API not registered")
	}

	staticKeys := make(map[string]auth.KeyInfo, len(cfg.Auth.Keys))
	for _, k := range cfg.Auth.Keys {
		staticKeys[k.Key] = auth.KeyInfo{
			Name:       k.Name,
			ProviderID: k.ProviderID,
			Scopes:     k.Scopes,
		}
	}
	verifier := auth.NewVerifier(staticKeys, store, logger)

	eventHandler := handlers.NewEventHandler(pipe, dispatcher, logger)
	healthHandler := handlers.NewHealthHandler(transport, cfg.Kinesis.StreamName, pingerFor(store))
	router := server.NewRouter(eventHandler, analyticsHandler, healthHandler, verifier)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("ingestion API listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newTransport selects the stream backend. The memory backend keeps the
// whole pipeline runnable locally with no AWS account.
func newTransport(ctx context.Context, cfg *config.Config) (stream.Transport, error) {
	switch cfg.Kinesis.Backend {
	case "memory":
		return stream.NewMemoryTransport(cfg.Kinesis.MemoryShards), nil
	case "kinesis", "":
		return stream.NewKinesisTransport(ctx, cfg.AWS.Region)
	default:
		return nil, fmt.Errorf("unknown stream backend %q (supported: kinesis, memory)", cfg.Kinesis.Backend)
	}
}

// pingerFor avoids handing a typed nil to the readiness probe.
func pingerFor(store *cache.Cache) interface {
	Ping(ctx context.Context) error
} {
	if store == nil {
		return nil
	}
	return store
}
