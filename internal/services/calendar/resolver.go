package calendar

import (
	"context"
	"fmt"
	"time"

	"EarnPulse/internal/domain/models"
	"EarnPulse/internal/domain/repository"
)

const (
	DefaultHistoryLimit = 40
	SurpriseEvents      = 4
)

// Resolver builds the canonical earnings calendar view for a ticker.
type Resolver struct {
	calendar repository.EarningsCalendar
	history  repository.EarningsHistory
	limit    int
}

func NewResolver(cal repository.EarningsCalendar, hist repository.EarningsHistory, limit int) *Resolver {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &Resolver{calendar: cal, history: hist, limit: limit}
}

// Resolve fetches the raw calendar and picks the next event on or after asOf.
// RecentEvents is left empty; fill it with Recent once a prediction is needed.
func (r *Resolver) Resolve(ctx context.Context, symbol string, asOf time.Time) (models.EarningsCalendarView, error) {
	raw, err := r.calendar.RawCalendar(ctx, symbol)
	if err != nil {
		return models.EarningsCalendarView{}, fmt.Errorf("fetch calendar: %w", err)
	}
	return Resolve(raw, asOf)
}

// Recent fetches the reported history and keeps the last four events before next.
func (r *Resolver) Recent(ctx context.Context, symbol string, next time.Time) ([]models.EarningsEvent, error) {
	hist, err := r.history.EarningsHistory(ctx, symbol, r.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch earnings history: %w", err)
	}
	return RecentEvents(hist, next, SurpriseEvents), nil
}
