package features

import (
	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	"EarnPulse/internal/domain/models"
)

// EPSSurpriseAvg averages (reported - estimated)/estimated over the given events.
// Events missing either figure, or with a zero estimate, are skipped.
func EPSSurpriseAvg(events []models.EarningsEvent) null.Float {
	surprises := make([]float64, 0, len(events))
	for _, e := range events {
		if !e.ReportedEPS.Valid || !e.EstimatedEPS.Valid || e.EstimatedEPS.Float64 == 0 {
			continue
		}
		surprises = append(surprises, (e.ReportedEPS.Float64-e.EstimatedEPS.Float64)/e.EstimatedEPS.Float64)
	}
	if len(surprises) == 0 {
		return null.Float{}
	}
	return models.FiniteOrNull(stat.Mean(surprises, nil))
}
