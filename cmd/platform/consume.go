package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/analytics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/config"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/consumer"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/crypto"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Run the stream shard consumer",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConsume()
	},
}

func runConsume() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("consumer"))
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	transport, err := newTransport(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init stream transport: %w", err)
	}

	// Checkpoints must outlive the process; Redis is required outside
	// development mode.
	var checkpoints consumer.CheckpointStore
	if cfg.Redis.Enabled {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("invalid redis URL: %w", err)
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer client.Close()
		checkpoints = consumer.NewRedisCheckpointStore(client, cfg.Kinesis.StreamName)
	} else {
		log.Println("Redis disabled - checkpoints will not survive restarts")
		checkpoints = consumer.NewMemoryCheckpointStore()
	}

	handler, cleanup, err := newHandler(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	c, err := consumer.New(transport, checkpoints, handler, consumer.Config{
		StreamName: cfg.Kinesis.StreamName,
		BatchLimit: cfg.Consumer.BatchLimit,
		IdleDelay:  cfg.Consumer.IdleDelay,
		ErrorDelay: cfg.Consumer.ErrorDelay,
	}, logger)
	if err != nil {
		return err
	}

	return c.Run(ctx)
}

// newHandler picks the record sink. With Postgres enabled, consumed records
// land in the analytics store under a hashed patient reference; otherwise
// they are only logged.
func newHandler(ctx context.Context, cfg *config.Config, logger *logging.Logger) (consumer.Handler, func(), error) {
	if !cfg.Database.Enabled {
		log.Println("Database disabled - consumed records are logged, not stored")
		handler := func(ctx context.Context, record *models.StreamRecord, meta consumer.Meta) error {
			logger.InfoContext(ctx, "record consumed",
				logging.EventID(record.EventID),
				logging.EventType(string(record.EventType)),
				logging.ShardID(meta.ShardID),
				logging.Sequence(meta.SequenceNumber),
			)
			return nil
		}
		return handler, func() {}, nil
	}

	if cfg.Database.RunMigrations {
		if err := analytics.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	repo, err := analytics.NewRepository(ctx, cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect analytics db: %w", err)
	}

	encryptor, err := crypto.NewService(cfg.Encryption.Secret, cfg.Encryption.Salt, cfg.Encryption.KeyID)
	if err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("init encryption: %w", err)
	}

	handler := func(ctx context.Context, record *models.StreamRecord, meta consumer.Meta) error {
		// Records carry the encrypted patient id; the analytics store only
		// ever sees its hash.
		patientID, err := encryptor.Decrypt(record.PatientID)
		if err != nil {
			return fmt.Errorf("decrypt patient id: %w", err)
		}
		return repo.InsertEvent(ctx, record, analytics.HashPatientID(patientID), meta.ShardID, meta.SequenceNumber)
	}
	return handler, repo.Close, nil
}
