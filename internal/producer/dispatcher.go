package producer

import (
	"context"
	"errors"
	"sync"

	"github.com/Jayanth7416/healthcare-analytics-platform/internal/logging"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/metrics"
	"github.com/Jayanth7416/healthcare-analytics-platform/internal/models"
)

// ErrQueueFull is returned by Enqueue when the publish queue is saturated.
// Callers surface this as backpressure instead of growing without bound.
var ErrQueueFull = errors.New("producer: publish queue full")

// ErrDispatcherClosed is returned by Enqueue after Close.
var ErrDispatcherClosed = errors.New("producer: dispatcher closed")

// Dispatcher feeds a bounded queue of processed records to a pool of
// publisher workers, decoupling the ingestion request path from stream
// publishing.
type Dispatcher struct {
	producer *Producer
	queue    chan *models.StreamRecord
	logger   *logging.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers goroutines draining a queue of the given
// size.
func NewDispatcher(p *Producer, queueSize, workers int, logger *logging.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1000
	}
	if workers <= 0 {
		workers = 1
	}

	d := &Dispatcher{
		producer: p,
		queue:    make(chan *models.StreamRecord, queueSize),
		logger:   logger,
	}

	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for record := range d.queue {
		metrics.PublishQueueDepth.Set(float64(len(d.queue)))
		// Publish owns retries and dead-lettering; an error here means the
		// record could not even be serialized.
		if _, err := d.producer.Publish(context.Background(), record); err != nil {
			d.logger.Error("async publish failed",
				logging.EventID(record.EventID),
				logging.Error(err),
			)
		}
	}
}

// Enqueue submits a record for asynchronous publishing. Fails fast with
// ErrQueueFull when the queue is saturated.
func (d *Dispatcher) Enqueue(record *models.StreamRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- record:
		metrics.PublishQueueDepth.Set(float64(len(d.queue)))
		return nil
	default:
		metrics.PublishQueueRejections.Inc()
		return ErrQueueFull
	}
}

// Close stops accepting records, drains the queue, and waits for workers to
// finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}
