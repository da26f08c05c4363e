package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/guregu/null/v6"

	"EarnPulse/internal/domain/models"
)

func TestEventArgs(t *testing.T) {
	days := 3
	raw, scaled := 61.2, 55.81
	e := &models.PredictionEvent{
		EventID:      "e-1",
		Ticker:       "NKE",
		Outcome:      models.OutcomePrediction,
		EarningsDate: "2025-06-26",
		DaysUntil:    &days,
		RawPct:       &raw,
		ScaledPct:    &scaled,
		ModelVersion: "v1",
		Features:     &models.FeatureRecord{Beta: null.FloatFrom(1.2), Quarter: 2},
		CreatedAt:    time.Date(2025, 6, 23, 14, 0, 0, 0, time.FixedZone("EDT", -4*3600)),
	}

	args, err := eventArgs(e)
	if err != nil {
		t.Fatalf("eventArgs() error = %v", err)
	}
	if len(args) != strings.Count(insertColumns, ",")+1 {
		t.Fatalf("got %d args for %d columns", len(args), strings.Count(insertColumns, ",")+1)
	}
	if ts := args[1].(time.Time); ts.Location() != time.UTC || ts.Hour() != 18 {
		t.Errorf("created_at = %v, want UTC 18:00", ts)
	}
	if args[5].(int32) != 3 || args[6].(float64) != 61.2 {
		t.Errorf("nullable columns = %v, %v", args[5], args[6])
	}
	if f := args[9].(string); !strings.Contains(f, `"beta":1.2`) || !strings.Contains(f, `"rsi_14":null`) {
		t.Errorf("features json = %s", f)
	}
}

func TestEventArgsNulls(t *testing.T) {
	args, err := eventArgs(&models.PredictionEvent{EventID: "e-2", Ticker: "XYZ", Outcome: models.OutcomeUndetermined})
	if err != nil {
		t.Fatal(err)
	}
	if args[5] != nil || args[6] != nil || args[7] != nil || args[9] != "" {
		t.Errorf("undetermined event should carry nulls, got %v", args)
	}

	if _, err := eventArgs(&models.PredictionEvent{Ticker: "NKE"}); err == nil {
		t.Error("event without id should be rejected")
	}
}

func TestPredictionSchemaUsesTable(t *testing.T) {
	ddl := PredictionSchema("ep.prediction_events")
	if len(ddl) != 1 || !strings.Contains(ddl[0], "CREATE TABLE IF NOT EXISTS ep.prediction_events") {
		t.Errorf("ddl = %v", ddl)
	}
}
