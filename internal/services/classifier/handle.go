package classifier

import (
	"context"
	"sync"

	"EarnPulse/internal/domain/models"
	domsvc "EarnPulse/internal/domain/service"
)

// Loader builds the underlying classifier.
type Loader func(ctx context.Context) (domsvc.Classifier, error)

// ModelHandle lazily loads a classifier exactly once and shares it across requests.
// A failed load is retried on the next call.
type ModelHandle struct {
	mu     sync.Mutex
	load   Loader
	loaded domsvc.Classifier
}

func NewModelHandle(load Loader) *ModelHandle {
	return &ModelHandle{load: load}
}

// Get returns the loaded classifier, loading it on first use.
func (h *ModelHandle) Get(ctx context.Context) (domsvc.Classifier, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded != nil {
		return h.loaded, nil
	}
	c, err := h.load(ctx)
	if err != nil {
		return nil, err
	}
	h.loaded = c
	return c, nil
}

func (h *ModelHandle) PredictProba(ctx context.Context, rec models.FeatureRecord, categorical []string) (float64, error) {
	c, err := h.Get(ctx)
	if err != nil {
		return 0, err
	}
	return c.PredictProba(ctx, rec, categorical)
}

// Version is empty until the model has been loaded.
func (h *ModelHandle) Version() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.loaded == nil {
		return ""
	}
	return h.loaded.Version()
}

var _ domsvc.Classifier = (*ModelHandle)(nil)
