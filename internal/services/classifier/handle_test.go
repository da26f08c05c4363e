package classifier

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"EarnPulse/internal/domain/models"
	domsvc "EarnPulse/internal/domain/service"
)

type constClassifier struct{ p float64 }

func (c constClassifier) PredictProba(context.Context, models.FeatureRecord, []string) (float64, error) {
	return c.p, nil
}
func (c constClassifier) Version() string { return "const" }

func TestModelHandleLoadsOnce(t *testing.T) {
	var loads int32
	h := NewModelHandle(func(context.Context) (domsvc.Classifier, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(10 * time.Millisecond)
		return constClassifier{p: 0.6}, nil
	})

	if h.Version() != "" {
		t.Errorf("Version() before load = %q", h.Version())
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := h.PredictProba(context.Background(), models.FeatureRecord{}, models.CategoricalFeatures)
			if err != nil || p != 0.6 {
				t.Errorf("PredictProba() = %v, %v", p, err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&loads); n != 1 {
		t.Errorf("loader ran %d times, want 1", n)
	}
	if h.Version() != "const" {
		t.Errorf("Version() = %q", h.Version())
	}
}

func TestModelHandleRetriesFailedLoad(t *testing.T) {
	calls := 0
	h := NewModelHandle(func(context.Context) (domsvc.Classifier, error) {
		calls++
		if calls == 1 {
			return nil, models.ErrModelLoad
		}
		return constClassifier{p: 0.3}, nil
	})

	if _, err := h.Get(context.Background()); !errors.Is(err, models.ErrModelLoad) {
		t.Fatalf("first Get() error = %v", err)
	}
	if _, err := h.Get(context.Background()); err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
}
