package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"EarnPulse/internal/domain/models"
	domrepo "EarnPulse/internal/domain/repository"
	pkgkafka "EarnPulse/pkg/kafka"
)

// KafkaPredictionsHandler consumes prediction events and writes them to storage.
type KafkaPredictionsHandler struct {
	topic   string
	storage domrepo.Storage
	metrics domrepo.Metrics
}

func NewKafkaPredictionsHandler(topic string, storage domrepo.Storage, metrics domrepo.Metrics) *KafkaPredictionsHandler {
	return &KafkaPredictionsHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaPredictionsHandler) Topic() string { return h.topic }

func (h *KafkaPredictionsHandler) Handle(ctx context.Context, b []byte) error {
	var e models.PredictionEvent
	if err := json.Unmarshal(b, &e); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if e.EventID == "" || e.Ticker == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("prediction event missing id or ticker")
	}
	if !e.CreatedAt.IsZero() {
		h.metrics.RecordLatency("ingest_e2e", time.Since(e.CreatedAt).Seconds())
	}

	start := time.Now()
	err := h.storage.Store(ctx, &e)
	h.metrics.RecordLatency("ch_insert", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordEventSent("clickhouse")
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaPredictionsHandler)(nil)
