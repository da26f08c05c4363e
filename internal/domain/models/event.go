package models

import "time"

// PredictionEvent is the audit record of one served payload.
type PredictionEvent struct {
	EventID      string         `json:"event_id"`
	Ticker       string         `json:"ticker"`
	Outcome      Outcome        `json:"outcome"`
	EarningsDate string         `json:"earnings_date"`
	DaysUntil    *int           `json:"days_until,omitempty"`
	RawPct       *float64       `json:"raw_pct,omitempty"`
	ScaledPct    *float64       `json:"scaled_pct,omitempty"`
	ModelVersion string         `json:"model_version,omitempty"`
	Features     *FeatureRecord `json:"features,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
