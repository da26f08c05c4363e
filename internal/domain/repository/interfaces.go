package repository

import (
	"context"
	"time"

	"EarnPulse/internal/domain/models"
)

// PriceHistory serves adjusted daily bars in [start, endInclusive].
type PriceHistory interface {
	FetchDaily(ctx context.Context, symbol string, start, endInclusive time.Time) (models.PriceSeries, error)
}

type CompanyInfo interface {
	CompanyProfile(ctx context.Context, symbol string) (models.CompanyProfile, error)
}

type EarningsCalendar interface {
	RawCalendar(ctx context.Context, symbol string) (models.RawCalendar, error)
}

// EarningsHistory returns up to limit events, most recent first.
type EarningsHistory interface {
	EarningsHistory(ctx context.Context, symbol string, limit int) ([]models.EarningsEvent, error)
}

type Publisher interface {
	Publish(ctx context.Context, e *models.PredictionEvent) error
	PublishBatch(ctx context.Context, events []*models.PredictionEvent) error
	Close() error
}

type Storage interface {
	Store(ctx context.Context, e *models.PredictionEvent) error
	StoreBatch(ctx context.Context, events []*models.PredictionEvent) error
	Query(ctx context.Context, ticker string, limit int) ([]*models.PredictionEvent, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordPrediction(outcome models.Outcome)
	RecordNullFeature(name string)
	RecordScaledProbability(ticker string, pct float64)
	RecordEventSent(backend string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
