package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"EarnPulse/internal/domain/models"
)

type countingProc struct {
	mu      sync.Mutex
	batches [][]*models.PredictionEvent
	fails   int
}

func (c *countingProc) ProcessBatch(_ context.Context, events []*models.PredictionEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fails > 0 {
		c.fails--
		return errors.New("backend down")
	}
	c.batches = append(c.batches, events)
	return nil
}

func (c *countingProc) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, b := range c.batches {
		n += len(b)
	}
	return n
}

type nopMetrics struct {
	mu   sync.Mutex
	errs map[string]int
}

func (m *nopMetrics) RecordPrediction(models.Outcome)         {}
func (m *nopMetrics) RecordNullFeature(string)                {}
func (m *nopMetrics) RecordScaledProbability(string, float64) {}
func (m *nopMetrics) RecordEventSent(string)                  {}
func (m *nopMetrics) RecordLatency(string, float64)           {}

func (m *nopMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errs == nil {
		m.errs = map[string]int{}
	}
	m.errs[kind]++
}

func (m *nopMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errs[kind]
}

func event(id string) *models.PredictionEvent {
	return &models.PredictionEvent{EventID: id, Ticker: "NKE", Outcome: models.OutcomeWaiting}
}

func TestRecordingPipelineFlushesOnStop(t *testing.T) {
	proc := &countingProc{}
	p := NewRecordingPipeline(proc, &nopMetrics{}, nil, WithBatching(4, time.Hour))
	p.Start(context.Background())

	for i := 0; i < 10; i++ {
		if !p.Submit(event(string(rune('a' + i)))) {
			t.Fatalf("submit %d rejected", i)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := proc.total(); got != 10 {
		t.Errorf("flushed %d events, want 10", got)
	}
	for _, b := range proc.batches {
		if len(b) > 4 {
			t.Errorf("batch of %d exceeds size 4", len(b))
		}
	}
}

func TestRecordingPipelineSubmitNeverBlocks(t *testing.T) {
	m := &nopMetrics{}
	p := NewRecordingPipeline(&countingProc{}, m, nil, WithBufferSize(2))

	accepted := 0
	for i := 0; i < 5; i++ {
		if p.Submit(event("x")) {
			accepted++
		}
	}
	if accepted != 2 {
		t.Errorf("accepted = %d, want 2", accepted)
	}
	if m.count("pipeline_buffer_full") != 3 {
		t.Errorf("buffer_full = %d, want 3", m.count("pipeline_buffer_full"))
	}
}

func TestRecordingPipelineRetries(t *testing.T) {
	proc := &countingProc{fails: 1}
	m := &nopMetrics{}
	p := NewRecordingPipeline(proc, m, nil, WithBatching(1, time.Hour), WithFlushAttempts(3))
	p.Start(context.Background())
	p.Submit(event("r"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if proc.total() != 1 {
		t.Errorf("flushed %d, want 1 after retry", proc.total())
	}
	if m.count("pipeline_flush") != 1 || m.count("pipeline_drop") != 0 {
		t.Errorf("errors = %v", m.errs)
	}
}

func TestRecordingPipelineDropsAfterAttempts(t *testing.T) {
	proc := &countingProc{fails: 10}
	m := &nopMetrics{}
	p := NewRecordingPipeline(proc, m, nil, WithBatching(1, time.Hour), WithFlushAttempts(2))
	p.Start(context.Background())
	p.Submit(event("d"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	if m.count("pipeline_drop") != 1 {
		t.Errorf("drop = %d, want 1", m.count("pipeline_drop"))
	}
}

func TestRecordingPipelineRestart(t *testing.T) {
	proc := &countingProc{}
	p := NewRecordingPipeline(proc, &nopMetrics{}, nil, WithBatching(4, time.Hour))

	for round := 0; round < 2; round++ {
		p.Start(context.Background())
		p.Submit(event("r"))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := p.Stop(ctx)
		cancel()
		if err != nil {
			t.Fatalf("round %d Stop() error = %v", round, err)
		}
		if got := proc.total(); got != round+1 {
			t.Errorf("round %d flushed %d events, want %d", round, got, round+1)
		}
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop() on stopped pipeline = %v", err)
	}
}
