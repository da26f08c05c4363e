package features

import (
	"time"

	"github.com/guregu/null/v6"

	"EarnPulse/internal/domain/models"
)

// Input gathers everything the assembler needs. It performs no I/O.
type Input struct {
	Indicators    Indicators
	Profile       models.CompanyProfile
	EPSEstimate   null.Float
	NextEventDate time.Time
	RecentEvents  []models.EarningsEvent
}

// Assemble builds the 16-field record, with nulls wherever an input is unknown.
func Assemble(in Input) models.FeatureRecord {
	ind := in.Indicators

	relative := null.Float{}
	if ind.PriceReturn30d.Valid && ind.SPYReturn.Valid {
		relative = models.FiniteOrNull(ind.PriceReturn30d.Float64 - ind.SPYReturn.Float64)
	}

	sector := in.Profile.Sector
	if sector.Valid && sector.String == "" {
		sector = null.String{}
	}

	return models.FeatureRecord{
		Sector:                    sector,
		Beta:                      finite(in.Profile.Beta),
		EPSEstimate:               finite(in.EPSEstimate),
		PriceToAvg30d:             ind.PriceToAvg30d,
		EPSSurpriseAvg:            EPSSurpriseAvg(in.RecentEvents),
		PriceReturn30d:            ind.PriceReturn30d,
		PriceReturn7dBeforeCutoff: ind.PriceReturn7d,
		RSI14:                     ind.RSI14,
		MACDDiff:                  ind.MACDDiff,
		SMARatio2050:              ind.SMARatio2050,
		Volatility30d:             ind.Volatility30d,
		VolumeAvg30d:              ind.VolumeNorm30d,
		SPYReturn:                 ind.SPYReturn,
		RelativeReturn30d:         relative,
		Quarter:                   Quarter(in.NextEventDate),
		DayOfWeek:                 DayOfWeek(in.NextEventDate),
	}
}

// Quarter is the calendar quarter 1-4 of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// DayOfWeek counts from Monday=0 to Sunday=6.
func DayOfWeek(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func finite(f null.Float) null.Float {
	if !f.Valid {
		return f
	}
	return models.FiniteOrNull(f.Float64)
}
