package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics
	EventsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hap_ingest_events_total",
			Help: "Total number of events received by the ingestion API",
		},
		[]string{"endpoint", "status"},
	)

	ProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hap_pipeline_processing_duration_seconds",
			Help:    "Duration of event pipeline processing in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	EncryptionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_pipeline_encryption_errors_total",
			Help: "Total number of PHI redaction failures",
		},
	)

	// Producer metrics
	PublishAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_producer_publish_attempts_total",
			Help: "Total number of put attempts against the primary stream",
		},
	)

	PublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_producer_publish_retries_total",
			Help: "Total number of throttled attempts that were retried",
		},
	)

	EventsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_producer_events_published_total",
			Help: "Total number of records delivered to the primary stream",
		},
	)

	EventsDeadLettered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_producer_events_dead_lettered_total",
			Help: "Total number of records diverted to the dead-letter stream",
		},
	)

	PublishQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hap_producer_queue_depth",
			Help: "Current depth of the async publish queue",
		},
	)

	PublishQueueRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_producer_queue_rejections_total",
			Help: "Total number of records rejected because the publish queue was full",
		},
	)

	// Consumer metrics
	RecordsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hap_consumer_records_total",
			Help: "Total number of records delivered to the downstream handler",
		},
		[]string{"shard"},
	)

	HandlerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_consumer_handler_errors_total",
			Help: "Total number of downstream handler failures",
		},
	)

	IteratorReacquisitions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_consumer_iterator_reacquisitions_total",
			Help: "Total number of expired position tokens that were reacquired",
		},
	)

	CheckpointWrites = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hap_consumer_checkpoint_writes_total",
			Help: "Total number of checkpoint updates persisted",
		},
	)
)
