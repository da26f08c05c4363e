package usecase

import (
	"context"
	"fmt"
	"time"

	"EarnPulse/internal/domain/models"
	drepo "EarnPulse/internal/domain/repository"
)

// Recorder backends.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// PredictionRecorder routes prediction events to the configured backend.
type PredictionRecorder struct {
	pub     drepo.Publisher
	store   drepo.Storage
	metrics drepo.Metrics
	backend string
}

func NewPredictionRecorder(pub drepo.Publisher, store drepo.Storage, metrics drepo.Metrics, backend string) *PredictionRecorder {
	if backend == "" {
		backend = BackendNone
	}
	return &PredictionRecorder{pub: pub, store: store, metrics: metrics, backend: backend}
}

func (r *PredictionRecorder) Backend() string { return r.backend }

// Process records a single event.
func (r *PredictionRecorder) Process(ctx context.Context, e *models.PredictionEvent) error {
	if e == nil {
		return fmt.Errorf("prediction event is nil")
	}
	return r.ProcessBatch(ctx, []*models.PredictionEvent{e})
}

func (r *PredictionRecorder) ProcessBatch(ctx context.Context, events []*models.PredictionEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch r.backend {
	case BackendNone:
		return nil
	case BackendKafka:
		if r.pub == nil {
			return fmt.Errorf("kafka backend without publisher")
		}
		err = r.pub.PublishBatch(ctx, events)
	case BackendClickHouse:
		if r.store == nil {
			return fmt.Errorf("clickhouse backend without storage")
		}
		err = r.store.StoreBatch(ctx, events)
	default:
		err = fmt.Errorf("unknown backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("record")
		return fmt.Errorf("record predictions: %w", err)
	}

	for range events {
		r.metrics.RecordEventSent(r.backend)
	}
	r.metrics.RecordLatency("record", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (r *PredictionRecorder) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}
