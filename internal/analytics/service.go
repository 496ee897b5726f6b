// Package analytics computes and serves de-identified platform, patient,
// and provider analytics from the events consumed off the stream.
package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/cache"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
)

const realtimeCacheTTL = 10 * time.Second

// ErrInvalidTimeRange reports a time range label the API does not accept.
// Callers match it with errors.Is to map it to a client error.
var ErrInvalidTimeRange = errors.New("invalid time range")

// StatsSource is the query surface the service needs; Repository implements
// it.
type StatsSource interface {
	RealtimeMetrics(ctx context.Context) (*models.RealtimeMetrics, error)
	PatientStats(ctx context.Context, patientIDHash string, since time.Time) (*models.PatientAnalytics, error)
	ProviderStats(ctx context.Context, providerID string, since time.Time) (*models.ProviderAnalytics, error)
}

// Service answers analytics queries, caching hot reads.
type Service struct {
	source StatsSource
	cache  *cache.Cache
	logger *logging.Logger
}

// NewService builds a service. cache may be nil to disable caching.
func NewService(source StatsSource, c *cache.Cache, logger *logging.Logger) *Service {
	return &Service{source: source, cache: c, logger: logger}
}

// GetRealtimeMetrics returns current platform metrics, cached for 10s.
func (s *Service) GetRealtimeMetrics(ctx context.Context) (*models.RealtimeMetrics, error) {
	const key = "metrics:realtime"

	if s.cache != nil {
		var cached models.RealtimeMetrics
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.logger.WarnContext(ctx, "metrics cache read failed", logging.Error(err))
		}
		if found {
			return &cached, nil
		}
	}

	m, err := s.source.RealtimeMetrics(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, m, realtimeCacheTTL); err != nil {
			s.logger.WarnContext(ctx, "metrics cache write failed", logging.Error(err))
		}
	}
	return m, nil
}

// GetPatientAnalytics returns a de-identified summary for one patient over
// the given time range. The patient identifier never reaches the database:
// queries use its SHA-256 hash.
func (s *Service) GetPatientAnalytics(ctx context.Context, patientID, timeRange string) (*models.PatientAnalytics, error) {
	d, err := ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}

	a, err := s.source.PatientStats(ctx, HashPatientID(patientID), time.Now().Add(-d))
	if err != nil {
		return nil, err
	}
	if a.TotalEvents == 0 {
		return nil, nil
	}
	a.TimeRange = timeRange
	return a, nil
}

// GetProviderAnalytics returns a summary for one provider over the given
// time range.
func (s *Service) GetProviderAnalytics(ctx context.Context, providerID, timeRange string) (*models.ProviderAnalytics, error) {
	d, err := ParseTimeRange(timeRange)
	if err != nil {
		return nil, err
	}

	a, err := s.source.ProviderStats(ctx, providerID, time.Now().Add(-d))
	if err != nil {
		return nil, err
	}
	if a.TotalEvents == 0 {
		return nil, nil
	}
	a.TimeRange = timeRange
	return a, nil
}

// HashPatientID returns the de-identified reference for a patient.
func HashPatientID(patientID string) string {
	sum := sha256.Sum256([]byte(patientID))
	return hex.EncodeToString(sum[:])
}

// ParseTimeRange converts the API's time range labels into durations.
func ParseTimeRange(timeRange string) (time.Duration, error) {
	switch timeRange {
	case "1h":
		return time.Hour, nil
	case "24h", "":
		return 24 * time.Hour, nil
	case "7d":
		return 7 * 24 * time.Hour, nil
	case "30d":
		return 30 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w %q (valid: 1h, 24h, 7d, 30d)", ErrInvalidTimeRange, timeRange)
	}
}
