package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/metrics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/pipeline"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/producer"
)

// EventHandler serves the event ingestion API.
type EventHandler struct {
	pipeline   *pipeline.Pipeline
	dispatcher *producer.Dispatcher
	logger     *logging.Logger
}

// NewEventHandler builds the ingestion handler.
func NewEventHandler(p *pipeline.Pipeline, d *producer.Dispatcher, logger *logging.Logger) *EventHandler {
	return &EventHandler{pipeline: p, dispatcher: d, logger: logger}
}

// Ingest accepts a single healthcare event: validates, redacts PHI, and
// hands the record to the async publisher. The stream publish happens after
// the response; callers track delivery via the returned event id.
func (h *EventHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var event models.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		metrics.EventsIngested.WithLabelValues("ingest", "rejected").Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.pipeline.Process(r.Context(), &event)
	if err != nil {
		h.writeProcessError(w, r, "ingest", err)
		return
	}

	if err := h.dispatcher.Enqueue(record); err != nil {
		metrics.EventsIngested.WithLabelValues("ingest", "rejected").Inc()
		h.logger.WarnContext(r.Context(), "publish queue rejected event",
			logging.EventID(record.EventID),
			logging.Error(err),
		)
		writeError(w, http.StatusServiceUnavailable, "ingestion temporarily unavailable")
		return
	}

	metrics.EventsIngested.WithLabelValues("ingest", "accepted").Inc()
	h.logger.InfoContext(r.Context(), "event ingested",
		logging.EventID(record.EventID),
		logging.EventType(string(record.EventType)),
	)

	writeJSON(w, http.StatusAccepted, models.EventResponse{
		EventID:   record.EventID,
		Status:    "accepted",
		Timestamp: time.Now().UTC(),
	})
}

// IngestBatch accepts up to MaxBatchEvents events and returns one status
// per event: a rejected event does not fail the batch.
func (h *EventHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req models.BatchEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Events) > models.MaxBatchEvents {
		writeError(w, http.StatusBadRequest, "batch size exceeds maximum of 500 events")
		return
	}

	responses := make([]models.EventResponse, 0, len(req.Events))
	accepted := 0
	for i := range req.Events {
		event := &req.Events[i]

		record, err := h.pipeline.Process(r.Context(), event)
		if err == nil {
			err = h.dispatcher.Enqueue(record)
		}
		if err != nil {
			metrics.EventsIngested.WithLabelValues("ingest_batch", "rejected").Inc()
			responses = append(responses, models.EventResponse{
				EventID:   event.EventID,
				Status:    "rejected",
				Error:     err.Error(),
				Timestamp: time.Now().UTC(),
			})
			continue
		}

		metrics.EventsIngested.WithLabelValues("ingest_batch", "accepted").Inc()
		accepted++
		responses = append(responses, models.EventResponse{
			EventID:   record.EventID,
			Status:    "accepted",
			Timestamp: time.Now().UTC(),
		})
	}

	h.logger.InfoContext(r.Context(), "batch ingested",
		"total", len(req.Events),
		"accepted", accepted,
	)
	writeJSON(w, http.StatusAccepted, responses)
}

// Status returns the recorded processing status of an event.
func (h *EventHandler) Status(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "missing event id")
		return
	}

	status, found, err := h.pipeline.Status(r.Context(), eventID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "status lookup failed",
			logging.EventID(eventID),
			logging.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "status lookup failed")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (h *EventHandler) writeProcessError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	metrics.EventsIngested.WithLabelValues(endpoint, "rejected").Inc()

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		h.logger.WarnContext(r.Context(), "event validation failed", logging.Error(err))
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}

	h.logger.ErrorContext(r.Context(), "event processing failed", logging.Error(err))
	writeError(w, http.StatusInternalServerError, "event processing failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
