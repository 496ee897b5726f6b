package analytics

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Repository runs analytics queries against Postgres.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository connects to Postgres and verifies the connection.
func NewRepository(ctx context.Context, connString string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() { r.pool.Close() }

// Migrate applies the embedded schema migrations.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		return srcErr
	}
	return dbErr
}

// InsertEvent stores a consumed stream record for analytics. Replayed
// records (at-least-once consumption) upsert idempotently by event id.
func (r *Repository) InsertEvent(ctx context.Context, rec *models.StreamRecord, patientIDHash, shardID, sequence string) error {
	q := `INSERT INTO events (
            event_id, event_type, timestamp, provider_id, patient_id_hash,
            facility_id, department, partition_key, checksum,
            shard_id, sequence_number, processed_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (event_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, q,
		rec.EventID, string(rec.EventType), rec.Timestamp, rec.ProviderID, patientIDHash,
		rec.FacilityID, rec.Department, rec.PartitionKey, rec.Checksum,
		shardID, sequence, rec.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// RealtimeMetrics computes platform throughput over the last hour.
func (r *Repository) RealtimeMetrics(ctx context.Context) (*models.RealtimeMetrics, error) {
	q := `SELECT
            COUNT(*) FILTER (WHERE timestamp > NOW() - INTERVAL '1 minute') AS events_per_minute,
            COUNT(*) AS events_per_hour,
            COUNT(DISTINCT provider_id) AS active_providers,
            COUNT(DISTINCT patient_id_hash) AS active_patients,
            COALESCE(AVG(EXTRACT(EPOCH FROM (consumed_at - processed_at)) * 1000), 0) AS avg_latency_ms,
            COALESCE(PERCENTILE_CONT(0.99) WITHIN GROUP (ORDER BY EXTRACT(EPOCH FROM (consumed_at - processed_at)) * 1000), 0) AS p99_latency_ms
        FROM events
        WHERE timestamp > NOW() - INTERVAL '1 hour'`

	var m models.RealtimeMetrics
	err := r.pool.QueryRow(ctx, q).Scan(
		&m.EventsPerMinute, &m.EventsPerHour,
		&m.ActiveProviders, &m.ActivePatients,
		&m.AvgLatencyMS, &m.P99LatencyMS,
	)
	if err != nil {
		return nil, fmt.Errorf("realtime metrics: %w", err)
	}
	m.CurrentThroughput = float64(m.EventsPerMinute) / 60.0
	return &m, nil
}

// PatientStats aggregates a patient's events (by identifier hash) since the
// given time.
func (r *Repository) PatientStats(ctx context.Context, patientIDHash string, since time.Time) (*models.PatientAnalytics, error) {
	q := `SELECT
            COUNT(*) AS total_events,
            ` + distributionColumns + `,
            COALESCE(MIN(timestamp), NOW()) AS first_event,
            COALESCE(MAX(timestamp), NOW()) AS last_event,
            COUNT(DISTINCT provider_id) AS providers_count,
            COUNT(DISTINCT facility_id) FILTER (WHERE facility_id <> '') AS facilities_count
        FROM events
        WHERE patient_id_hash = $1 AND timestamp > $2`

	var a models.PatientAnalytics
	a.PatientIDHash = patientIDHash
	err := r.pool.QueryRow(ctx, q, patientIDHash, since).Scan(
		&a.TotalEvents,
		&a.EventDistribution.PatientVisit, &a.EventDistribution.LabResult,
		&a.EventDistribution.Prescription, &a.EventDistribution.Vitals,
		&a.EventDistribution.Diagnosis, &a.EventDistribution.Procedure,
		&a.EventDistribution.Discharge, &a.EventDistribution.Admission,
		&a.FirstEvent, &a.LastEvent,
		&a.ProvidersCount, &a.FacilitiesCount,
	)
	if err != nil {
		return nil, fmt.Errorf("patient stats: %w", err)
	}
	return &a, nil
}

// ProviderStats aggregates a provider's events since the given time.
func (r *Repository) ProviderStats(ctx context.Context, providerID string, since time.Time) (*models.ProviderAnalytics, error) {
	q := `SELECT
            COUNT(*) AS total_events,
            COUNT(DISTINCT patient_id_hash) AS unique_patients,
            ` + distributionColumns + `,
            COALESCE(MIN(timestamp), NOW()) AS first_event,
            COALESCE(MAX(timestamp), NOW()) AS last_event
        FROM events
        WHERE provider_id = $1 AND timestamp > $2`

	var a models.ProviderAnalytics
	a.ProviderID = providerID
	err := r.pool.QueryRow(ctx, q, providerID, since).Scan(
		&a.TotalEvents, &a.UniquePatients,
		&a.EventDistribution.PatientVisit, &a.EventDistribution.LabResult,
		&a.EventDistribution.Prescription, &a.EventDistribution.Vitals,
		&a.EventDistribution.Diagnosis, &a.EventDistribution.Procedure,
		&a.EventDistribution.Discharge, &a.EventDistribution.Admission,
		&a.FirstEvent, &a.LastEvent,
	)
	if err != nil {
		return nil, fmt.Errorf("provider stats: %w", err)
	}
	return &a, nil
}

const distributionColumns = `
            COUNT(*) FILTER (WHERE event_type = 'patient_visit') AS visits,
            COUNT(*) FILTER (WHERE event_type = 'lab_result') AS lab_results,
            COUNT(*) FILTER (WHERE event_type = 'prescription') AS prescriptions,
            COUNT(*) FILTER (WHERE event_type = 'vitals') AS vitals,
            COUNT(*) FILTER (WHERE event_type = 'diagnosis') AS diagnoses,
            COUNT(*) FILTER (WHERE event_type = 'procedure') AS procedures,
            COUNT(*) FILTER (WHERE event_type = 'discharge') AS discharges,
            COUNT(*) FILTER (WHERE event_type = 'admission') AS admissions`
