package usecase

import (
	"context"
	"errors"
	"testing"

	"EarnPulse/internal/domain/models"
)

type memStorage struct {
	events []*models.PredictionEvent
	err    error
}

func (s *memStorage) Store(ctx context.Context, e *models.PredictionEvent) error {
	return s.StoreBatch(ctx, []*models.PredictionEvent{e})
}

func (s *memStorage) StoreBatch(_ context.Context, events []*models.PredictionEvent) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, events...)
	return nil
}

func (s *memStorage) Query(_ context.Context, ticker string, limit int) ([]*models.PredictionEvent, error) {
	var out []*models.PredictionEvent
	for i := len(s.events) - 1; i >= 0 && len(out) < limit; i-- {
		if s.events[i].Ticker == ticker {
			out = append(out, s.events[i])
		}
	}
	return out, nil
}

func (s *memStorage) Health(context.Context) error { return nil }
func (s *memStorage) Close() error                 { return nil }

type memPublisher struct {
	events []*models.PredictionEvent
}

func (p *memPublisher) Publish(ctx context.Context, e *models.PredictionEvent) error {
	return p.PublishBatch(ctx, []*models.PredictionEvent{e})
}

func (p *memPublisher) PublishBatch(_ context.Context, events []*models.PredictionEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *memPublisher) Close() error { return nil }

func TestPredictionRecorderRouting(t *testing.T) {
	e := &models.PredictionEvent{EventID: "1", Ticker: "NKE", Outcome: models.OutcomeWaiting}

	t.Run("kafka", func(t *testing.T) {
		pub, store, m := &memPublisher{}, &memStorage{}, &fakeMetrics{}
		r := NewPredictionRecorder(pub, store, m, BackendKafka)
		if err := r.Process(context.Background(), e); err != nil {
			t.Fatal(err)
		}
		if len(pub.events) != 1 || len(store.events) != 0 {
			t.Errorf("published %d, stored %d", len(pub.events), len(store.events))
		}
		if len(m.sent) != 1 || m.sent[0] != BackendKafka {
			t.Errorf("sent = %v", m.sent)
		}
	})

	t.Run("clickhouse", func(t *testing.T) {
		pub, store := &memPublisher{}, &memStorage{}
		r := NewPredictionRecorder(pub, store, &fakeMetrics{}, BackendClickHouse)
		if err := r.ProcessBatch(context.Background(), []*models.PredictionEvent{e, e}); err != nil {
			t.Fatal(err)
		}
		if len(store.events) != 2 || len(pub.events) != 0 {
			t.Errorf("published %d, stored %d", len(pub.events), len(store.events))
		}
	})

	t.Run("none", func(t *testing.T) {
		m := &fakeMetrics{}
		r := NewPredictionRecorder(nil, nil, m, "")
		if err := r.Process(context.Background(), e); err != nil {
			t.Fatal(err)
		}
		if len(m.sent) != 0 {
			t.Errorf("sent = %v", m.sent)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		r := NewPredictionRecorder(nil, nil, &fakeMetrics{}, "s3")
		if err := r.Process(context.Background(), e); err == nil {
			t.Error("expected error for unknown backend")
		}
	})

	t.Run("store failure", func(t *testing.T) {
		boom := errors.New("boom")
		m := &fakeMetrics{}
		r := NewPredictionRecorder(nil, &memStorage{err: boom}, m, BackendClickHouse)
		if err := r.Process(context.Background(), e); !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
		if len(m.errs) != 1 || m.errs[0] != "record" {
			t.Errorf("errors = %v", m.errs)
		}
	})
}

func TestKafkaPredictionsHandler(t *testing.T) {
	store, m := &memStorage{}, &fakeMetrics{}
	h := NewKafkaPredictionsHandler("earnpulse.predictions", store, m)
	if h.Topic() != "earnpulse.predictions" {
		t.Errorf("topic = %s", h.Topic())
	}

	msg := []byte(`{"event_id":"abc","ticker":"NKE","outcome":"prediction","earnings_date":"2025-06-26","days_until":3,"raw_pct":64,"scaled_pct":58.14,"model_version":"v1","created_at":"2025-06-23T15:30:00Z"}`)
	if err := h.Handle(context.Background(), msg); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if len(store.events) != 1 {
		t.Fatalf("stored %d events", len(store.events))
	}
	got := store.events[0]
	if got.Outcome != models.OutcomePrediction || got.DaysUntil == nil || *got.DaysUntil != 3 || *got.ScaledPct != 58.14 {
		t.Errorf("stored %+v", got)
	}

	if err := h.Handle(context.Background(), []byte(`{not json`)); err == nil {
		t.Error("expected unmarshal error")
	}
	if err := h.Handle(context.Background(), []byte(`{"ticker":"NKE"}`)); err == nil {
		t.Error("expected error for event without id")
	}
}
