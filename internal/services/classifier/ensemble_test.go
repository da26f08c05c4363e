package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/guregu/null/v6"

	"EarnPulse/internal/domain/models"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func testArtifact() Artifact {
	return Artifact{
		Version:             "test-1",
		FeatureNames:        models.FeatureNames,
		CategoricalFeatures: []string{models.FeatureDayOfWeek, models.FeatureSector, models.FeatureQuarter},
		Bias:                0,
		Scale:               1,
		Trees: []Tree{
			{
				Splits:     []Split{{Feature: models.FeatureBeta, Border: f(1.0)}},
				LeafValues: []float64{-0.5, 0.5},
			},
			{
				Splits: []Split{
					{Feature: models.FeatureSector, Category: s("Technology")},
					{Feature: models.FeatureQuarter, Category: s("2")},
				},
				LeafValues: []float64{0, 0.2, 0.1, 0.3},
			},
		},
	}
}

func TestEnsemblePredictProba(t *testing.T) {
	e, err := NewEnsemble(testArtifact())
	if err != nil {
		t.Fatalf("NewEnsemble() error = %v", err)
	}

	tests := []struct {
		name string
		rec  models.FeatureRecord
		want float64
	}{
		{
			name: "all splits taken",
			rec:  models.FeatureRecord{Beta: null.FloatFrom(1.2), Sector: null.StringFrom("Technology"), Quarter: 2},
			want: 1 / (1 + math.Exp(-0.8)),
		},
		{
			name: "nulls take the low branch",
			rec:  models.FeatureRecord{Quarter: 3},
			want: 1 / (1 + math.Exp(0.5)),
		},
		{
			name: "border is exclusive",
			rec:  models.FeatureRecord{Beta: null.FloatFrom(1.0), Quarter: 2},
			want: 1 / (1 + math.Exp(-(-0.5 + 0.1))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.PredictProba(context.Background(), tt.rec, models.CategoricalFeatures)
			if err != nil {
				t.Fatalf("PredictProba() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("PredictProba() = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("PredictProba() = %v outside [0,1]", got)
			}
		})
	}

	if e.Version() != "test-1" {
		t.Errorf("Version() = %q", e.Version())
	}
}

func TestEnsembleCategoricalMismatch(t *testing.T) {
	e, err := NewEnsemble(testArtifact())
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.PredictProba(context.Background(), models.FeatureRecord{}, []string{models.FeatureSector})
	if !errors.Is(err, models.ErrSchemaMismatch) {
		t.Errorf("error = %v, want ErrSchemaMismatch", err)
	}
}

func TestNewEnsembleValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifact)
	}{
		{"feature order", func(a *Artifact) {
			names := append([]string{}, models.FeatureNames...)
			names[0], names[1] = names[1], names[0]
			a.FeatureNames = names
		}},
		{"categorical set", func(a *Artifact) { a.CategoricalFeatures = []string{models.FeatureSector} }},
		{"leaf count", func(a *Artifact) { a.Trees[0].LeafValues = []float64{1} }},
		{"category on numeric", func(a *Artifact) {
			a.Trees[0].Splits[0] = Split{Feature: models.FeatureBeta, Category: s("x")}
		}},
		{"border on categorical", func(a *Artifact) {
			a.Trees[1].Splits[0] = Split{Feature: models.FeatureSector, Border: f(0)}
		}},
		{"unknown feature", func(a *Artifact) { a.Trees[0].Splits[0].Feature = "alpha" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			art := testArtifact()
			tt.mutate(&art)
			if _, err := NewEnsemble(art); !errors.Is(err, models.ErrModelLoad) {
				t.Errorf("NewEnsemble() error = %v, want ErrModelLoad", err)
			}
		})
	}
}

func TestLoadEnsemble(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	b, _ := json.Marshal(testArtifact())
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatal(err)
	}

	e, err := LoadEnsemble(path)
	if err != nil {
		t.Fatalf("LoadEnsemble() error = %v", err)
	}
	if len(e.art.Trees) != 2 {
		t.Errorf("loaded %d trees, want 2", len(e.art.Trees))
	}

	if _, err := LoadEnsemble(filepath.Join(dir, "missing.json")); !errors.Is(err, models.ErrModelLoad) {
		t.Errorf("missing file error = %v, want ErrModelLoad", err)
	}
}

func TestBundledArtifactLoads(t *testing.T) {
	e, err := LoadEnsemble(filepath.Join("..", "..", "..", "models", "earnings_beat.json"))
	if err != nil {
		t.Fatalf("LoadEnsemble() error = %v", err)
	}
	p, err := e.PredictProba(context.Background(), models.FeatureRecord{Quarter: 1}, models.CategoricalFeatures)
	if err != nil || p <= 0 || p >= 1 {
		t.Errorf("PredictProba() = %v, %v", p, err)
	}
}
