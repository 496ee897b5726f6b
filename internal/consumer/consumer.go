// Package consumer reads every shard of the primary stream concurrently,
// preserving per-shard order, and checkpoints progress so consumption
// survives restarts.
//
// Consumption is at-least-once: a crash between "record handled" and
// "checkpoint persisted" replays that record on restart. Publish and
// checkpoint are different services in different processes, so no
// cross-service atomicity is attempted.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/metrics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/stream"
)

// Meta carries the stream provenance of a consumed record.
type Meta struct {
	ShardID        string
	SequenceNumber string
}

// Handler is the pluggable downstream function invoked once per consumed
// record, in shard order. Its failures are logged by the consumer, never
// propagated: a poison record does not block its shard.
type Handler func(ctx context.Context, record *models.StreamRecord, meta Meta) error

// shardState models the per-shard consumption loop.
type shardState int

const (
	stateInitializing shardState = iota
	stateIterating
	stateReacquiring
	stateStopped
)

// Config holds consumer tuning.
type Config struct {
	StreamName string
	BatchLimit int           // records per GetRecords call
	IdleDelay  time.Duration // sleep when a poll returns no records
	ErrorDelay time.Duration // sleep after a transient transport failure
}

// Consumer runs one independent consumption loop per shard. Loops share no
// mutable state except the CheckpointStore, whose per-shard writes are
// atomic and monotonic.
type Consumer struct {
	transport   stream.Transport
	checkpoints CheckpointStore
	handler     Handler
	cfg         Config
	logger      *logging.Logger
}

// New builds a consumer. The handler is required: there is no implicit
// default processor.
func New(t stream.Transport, cp CheckpointStore, handler Handler, cfg Config, logger *logging.Logger) (*Consumer, error) {
	if handler == nil {
		return nil, errors.New("consumer: handler is required")
	}
	if cfg.StreamName == "" {
		return nil, errors.New("consumer: stream name is required")
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 100
	}
	if cfg.IdleDelay <= 0 {
		cfg.IdleDelay = time.Second
	}
	if cfg.ErrorDelay <= 0 {
		cfg.ErrorDelay = 5 * time.Second
	}
	return &Consumer{
		transport:   t,
		checkpoints: cp,
		handler:     handler,
		cfg:         cfg,
		logger:      logger,
	}, nil
}

// Run enumerates shards and consumes each until ctx is cancelled. A shard
// loop exits at the next loop boundary, never mid-record.
func (c *Consumer) Run(ctx context.Context) error {
	shards, err := c.transport.ListShards(ctx, c.cfg.StreamName)
	if err != nil {
		return fmt.Errorf("list shards: %w", err)
	}

	c.logger.InfoContext(ctx, "consumer starting",
		logging.Stream(c.cfg.StreamName),
		"shards", len(shards),
	)

	var wg sync.WaitGroup
	wg.Add(len(shards))
	for _, shardID := range shards {
		go func(shardID string) {
			defer wg.Done()
			c.consumeShard(ctx, shardID)
		}(shardID)
	}
	wg.Wait()

	c.logger.InfoContext(ctx, "consumer stopped", logging.Stream(c.cfg.StreamName))
	return nil
}

func (c *Consumer) consumeShard(ctx context.Context, shardID string) {
	log := c.logger.With(logging.ShardID(shardID))

	state := stateInitializing
	var iterator string

	for {
		if ctx.Err() != nil {
			state = stateStopped
		}

		switch state {
		case stateInitializing, stateReacquiring:
			iter, err := c.acquireIterator(ctx, shardID)
			if err != nil {
				log.Warn("iterator acquisition failed", logging.Error(err))
				if !c.sleep(ctx, c.cfg.ErrorDelay) {
					return
				}
				continue
			}
			if state == stateReacquiring {
				metrics.IteratorReacquisitions.Inc()
			}
			iterator = iter
			state = stateIterating

		case stateIterating:
			out, err := c.transport.GetRecords(ctx, iterator, c.cfg.BatchLimit)
			if err != nil {
				if errors.Is(err, stream.ErrExpiredIterator) {
					state = stateReacquiring
					continue
				}
				// Transient: back off and retry indefinitely; shard
				// consumption is never abandoned.
				log.Warn("get records failed", logging.Error(err))
				if !c.sleep(ctx, c.cfg.ErrorDelay) {
					return
				}
				continue
			}

			interrupted := false
			for _, rec := range out.Records {
				// A stop signal is honored between records only. Records
				// not yet handled are not checkpointed either, so a
				// restart replays them from the last checkpoint.
				if ctx.Err() != nil {
					interrupted = true
					break
				}
				c.handleRecord(ctx, log, shardID, rec)
			}
			if interrupted {
				state = stateStopped
				continue
			}

			iterator = out.NextIterator
			if iterator == "" {
				// Terminal boundary. Idle, then reacquire from the
				// checkpoint: boundaries can still produce future records.
				if !c.sleep(ctx, c.cfg.IdleDelay) {
					return
				}
				state = stateReacquiring
				continue
			}

			if len(out.Records) == 0 {
				if !c.sleep(ctx, c.cfg.IdleDelay) {
					return
				}
			}

		case stateStopped:
			log.Info("shard loop stopped")
			return
		}
	}
}

// acquireIterator resumes after the shard's last checkpoint, or starts from
// the newest record for shards that were never consumed: new shards do not
// replay history.
func (c *Consumer) acquireIterator(ctx context.Context, shardID string) (string, error) {
	seq, err := c.checkpoints.Get(ctx, shardID)
	if err != nil {
		return "", err
	}

	pos := stream.Latest()
	if seq != "" {
		pos = stream.AfterSequence(seq)
	}
	return c.transport.GetShardIterator(ctx, c.cfg.StreamName, shardID, pos)
}

// handleRecord delivers one record to the handler and advances the
// checkpoint. Handler and decode failures are logged and the checkpoint
// still advances, so one poison record cannot wedge the shard.
func (c *Consumer) handleRecord(ctx context.Context, log *logging.Logger, shardID string, rec stream.Record) {
	metrics.RecordsConsumed.WithLabelValues(shardID).Inc()

	// A record that started handling finishes handling. Detaching from the
	// run context keeps a stop signal from failing the in-flight handler
	// (and its checkpoint write) and then losing the record to the poison
	// policy below.
	ctx = context.WithoutCancel(ctx)

	var record models.StreamRecord
	if err := json.Unmarshal(rec.Data, &record); err != nil {
		metrics.HandlerErrors.Inc()
		log.Error("record decode failed",
			logging.Sequence(rec.SequenceNumber),
			logging.Error(err),
		)
	} else if err := c.handler(ctx, &record, Meta{ShardID: shardID, SequenceNumber: rec.SequenceNumber}); err != nil {
		metrics.HandlerErrors.Inc()
		log.Error("record handler failed",
			logging.EventID(record.EventID),
			logging.Sequence(rec.SequenceNumber),
			logging.Error(err),
		)
	}

	if err := c.checkpoints.Set(ctx, shardID, rec.SequenceNumber); err != nil {
		log.Warn("checkpoint write failed",
			logging.Sequence(rec.SequenceNumber),
			logging.Error(err),
		)
		return
	}
	metrics.CheckpointWrites.Inc()
}

// sleep waits for d or until ctx is cancelled; false means cancelled.
func (c *Consumer) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
