package features

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"EarnPulse/internal/domain/models"
)

func TestEPSSurpriseAvg(t *testing.T) {
	events := []models.EarningsEvent{
		{ReportedEPS: null.FloatFrom(1.1), EstimatedEPS: null.FloatFrom(1.0)},
		{ReportedEPS: null.FloatFrom(0.9), EstimatedEPS: null.FloatFrom(1.0)},
		{ReportedEPS: null.FloatFrom(2.0), EstimatedEPS: null.FloatFrom(0)},
		{EstimatedEPS: null.FloatFrom(1.0)},
	}
	got := EPSSurpriseAvg(events)
	if !got.Valid || !near(got.Float64, 0) {
		t.Errorf("EPSSurpriseAvg() = %v, want 0", got)
	}

	if got := EPSSurpriseAvg(events[2:]); got.Valid {
		t.Errorf("EPSSurpriseAvg(no qualifying) = %v, want null", got.Float64)
	}
	if got := EPSSurpriseAvg(nil); got.Valid {
		t.Errorf("EPSSurpriseAvg(nil) should be null")
	}
}

func TestAssembleAlwaysHasSixteenFields(t *testing.T) {
	next := time.Date(2025, 6, 26, 0, 0, 0, 0, time.UTC) // Thursday
	rec := Assemble(Input{NextEventDate: next})

	m := rec.Map()
	if len(m) != len(models.FeatureNames) || len(m) != 16 {
		t.Fatalf("Map() has %d fields, want 16", len(m))
	}
	for _, name := range models.FeatureNames {
		if _, ok := m[name]; !ok {
			t.Errorf("field %s missing", name)
		}
	}
	if rec.Quarter != 2 {
		t.Errorf("Quarter = %d, want 2", rec.Quarter)
	}
	if rec.DayOfWeek != 3 {
		t.Errorf("DayOfWeek = %d, want 3", rec.DayOfWeek)
	}
	if len(rec.Nulls()) != 13 {
		t.Errorf("Nulls() = %v, want all 13 numeric fields", rec.Nulls())
	}
}

func TestAssembleRelativeReturn(t *testing.T) {
	in := Input{
		Indicators: Indicators{
			PriceReturn30d: null.FloatFrom(0.08),
			SPYReturn:      null.FloatFrom(0.03),
		},
		Profile: models.CompanyProfile{
			Sector: null.StringFrom("Consumer Cyclical"),
			Beta:   null.FloatFrom(1.234),
		},
		EPSEstimate:   null.FloatFrom(0.12),
		NextEventDate: time.Date(2025, 12, 18, 0, 0, 0, 0, time.UTC),
	}
	rec := Assemble(in)
	if !rec.RelativeReturn30d.Valid || !near(rec.RelativeReturn30d.Float64, 0.05) {
		t.Errorf("RelativeReturn30d = %v, want 0.05", rec.RelativeReturn30d)
	}
	if rec.Beta.Float64 != 1.234 {
		t.Errorf("Beta = %v, want unrounded 1.234", rec.Beta.Float64)
	}
	if rec.Sector.String != "Consumer Cyclical" || rec.Quarter != 4 {
		t.Errorf("unexpected categorical values %+v", rec)
	}

	in.Indicators.PriceReturn30d = null.Float{}
	if rec := Assemble(in); rec.RelativeReturn30d.Valid {
		t.Errorf("RelativeReturn30d should be null when the 30d return is null")
	}
}

func TestDayOfWeekMondayFirst(t *testing.T) {
	monday := time.Date(2025, 10, 13, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if got := DayOfWeek(monday.AddDate(0, 0, i)); got != i {
			t.Errorf("DayOfWeek(%s) = %d, want %d", monday.AddDate(0, 0, i).Weekday(), got, i)
		}
	}
}
