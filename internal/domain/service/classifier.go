package service

import (
	"context"

	"EarnPulse/internal/domain/models"
)

// Classifier returns the probability of the positive class (an EPS beat).
// categorical must match the column set the model was trained with.
type Classifier interface {
	PredictProba(ctx context.Context, rec models.FeatureRecord, categorical []string) (float64, error)
	Version() string
}
