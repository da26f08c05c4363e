package models

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"

	"EarnPulse/pkg/util"
)

// Outcome tags which shape a ResponsePayload carries.
type Outcome string

const (
	OutcomeWaiting      Outcome = "waiting"
	OutcomePrediction   Outcome = "prediction"
	OutcomeUndetermined Outcome = "undetermined"
)

const TBD = "TBD"

// CompanySummary is the metadata block present on every payload shape.
type CompanySummary struct {
	CompanyName string      `json:"company_name"`
	Ticker      string      `json:"ticker"`
	Description string      `json:"description"`
	Beta        null.Float  `json:"beta"`
	PERatio     null.Float  `json:"pe_ratio"`
	Sector      null.String `json:"sector"`
	Industry    null.String `json:"industry"`
	MarketCap   null.Float  `json:"market_cap"`
	Website     null.String `json:"website"`
	Logo        null.String `json:"logo"`
}

// NewCompanySummary projects a profile into the payload metadata block.
func NewCompanySummary(ticker string, p CompanyProfile) CompanySummary {
	s := CompanySummary{
		CompanyName: p.DisplayName(ticker),
		Ticker:      ticker,
		Description: p.Description.ValueOrZero(),
		Sector:      p.Sector,
		Industry:    p.Industry,
		MarketCap:   p.MarketCap,
		Website:     p.Website,
	}
	if p.Beta.Valid {
		s.Beta = null.FloatFrom(util.Round2(p.Beta.Float64))
	}
	if p.TrailingPE.Valid {
		s.PERatio = null.FloatFrom(util.Round2(p.TrailingPE.Float64))
	}
	if logo := p.LogoURL(); logo != "" {
		s.Logo = null.StringFrom(logo)
	}
	return s
}

// EPSValue marshals as a number, or "TBD" when unknown.
type EPSValue struct{ null.Float }

func (v EPSValue) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return json.Marshal(TBD)
	}
	return json.Marshal(v.Float64)
}

// PredictionResult holds the raw and calibrated probabilities as percentages.
type PredictionResult struct {
	RawProbabilityPct    float64
	ScaledProbabilityPct float64
}

// ResponsePayload is the result of one prediction request. Build it with the
// New*Payload constructors; it is not modified afterwards.
type ResponsePayload struct {
	Outcome Outcome `json:"outcome"`
	CompanySummary
	EarningsDate  string   `json:"earnings_date"`
	ExpectedEPS   EPSValue `json:"expected_eps"`
	DaysUntil     *int     `json:"days_until"`
	Message       string   `json:"message,omitempty"`
	RawBeatPct    *float64 `json:"raw_beat_pct,omitempty"`
	ScaledBeatPct *float64 `json:"scaled_beat_pct,omitempty"`
}

func NewWaitingPayload(summary CompanySummary, next time.Time, days int, eps null.Float, message string) *ResponsePayload {
	return &ResponsePayload{
		Outcome:        OutcomeWaiting,
		CompanySummary: summary,
		EarningsDate:   next.Format(DateLayout),
		ExpectedEPS:    EPSValue{eps},
		DaysUntil:      &days,
		Message:        message,
	}
}

func NewPredictionPayload(summary CompanySummary, next time.Time, days int, eps null.Float, res PredictionResult) *ResponsePayload {
	raw, scaled := res.RawProbabilityPct, res.ScaledProbabilityPct
	return &ResponsePayload{
		Outcome:        OutcomePrediction,
		CompanySummary: summary,
		EarningsDate:   next.Format(DateLayout),
		ExpectedEPS:    EPSValue{eps},
		DaysUntil:      &days,
		RawBeatPct:     &raw,
		ScaledBeatPct:  &scaled,
	}
}

func NewUndeterminedPayload(summary CompanySummary) *ResponsePayload {
	return &ResponsePayload{
		Outcome:        OutcomeUndetermined,
		CompanySummary: summary,
		EarningsDate:   TBD,
	}
}
