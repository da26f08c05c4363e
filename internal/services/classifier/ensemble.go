package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"

	"EarnPulse/internal/domain/models"
	domsvc "EarnPulse/internal/domain/service"
)

// Split is one level of an oblivious tree. Exactly one of Border or Category is set.
type Split struct {
	Feature  string   `json:"feature"`
	Border   *float64 `json:"border,omitempty"`
	Category *string  `json:"category,omitempty"`
}

type Tree struct {
	Splits     []Split   `json:"splits"`
	LeafValues []float64 `json:"leaf_values"`
}

// Artifact is the serialized gradient-boosted ensemble.
type Artifact struct {
	Version             string   `json:"version"`
	FeatureNames        []string `json:"feature_names"`
	CategoricalFeatures []string `json:"categorical_features"`
	Bias                float64  `json:"bias"`
	Scale               float64  `json:"scale"`
	Trees               []Tree   `json:"trees"`
}

// Ensemble scores feature records with an oblivious-tree artifact loaded from disk.
type Ensemble struct {
	art         Artifact
	categorical map[string]bool
}

// LoadEnsemble reads and validates an artifact file.
func LoadEnsemble(path string) (*Ensemble, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", models.ErrModelLoad, path, err)
	}
	var art Artifact
	if err := json.Unmarshal(b, &art); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", models.ErrModelLoad, path, err)
	}
	return NewEnsemble(art)
}

// NewEnsemble validates art against the feature schema.
func NewEnsemble(art Artifact) (*Ensemble, error) {
	if !slices.Equal(art.FeatureNames, models.FeatureNames) {
		return nil, fmt.Errorf("%w: feature names %v do not match %v", models.ErrModelLoad, art.FeatureNames, models.FeatureNames)
	}
	if !sameSet(art.CategoricalFeatures, models.CategoricalFeatures) {
		return nil, fmt.Errorf("%w: categorical features %v do not match %v", models.ErrModelLoad, art.CategoricalFeatures, models.CategoricalFeatures)
	}
	if art.Scale == 0 {
		art.Scale = 1
	}

	cat := make(map[string]bool, len(art.CategoricalFeatures))
	for _, name := range art.CategoricalFeatures {
		cat[name] = true
	}
	for i, tree := range art.Trees {
		if want := 1 << len(tree.Splits); len(tree.LeafValues) != want {
			return nil, fmt.Errorf("%w: tree %d has %d leaves, want %d", models.ErrModelLoad, i, len(tree.LeafValues), want)
		}
		for _, s := range tree.Splits {
			if !slices.Contains(art.FeatureNames, s.Feature) {
				return nil, fmt.Errorf("%w: tree %d splits on unknown feature %q", models.ErrModelLoad, i, s.Feature)
			}
			switch {
			case cat[s.Feature] && (s.Category == nil || s.Border != nil):
				return nil, fmt.Errorf("%w: tree %d: categorical feature %q needs a category split", models.ErrModelLoad, i, s.Feature)
			case !cat[s.Feature] && (s.Border == nil || s.Category != nil):
				return nil, fmt.Errorf("%w: tree %d: numeric feature %q needs a border split", models.ErrModelLoad, i, s.Feature)
			}
		}
	}
	return &Ensemble{art: art, categorical: cat}, nil
}

func (e *Ensemble) Version() string { return e.art.Version }

// PredictProba returns sigmoid(bias + scale * sum of leaf values).
func (e *Ensemble) PredictProba(_ context.Context, rec models.FeatureRecord, categorical []string) (float64, error) {
	if !sameSet(categorical, e.art.CategoricalFeatures) {
		return 0, fmt.Errorf("%w: categorical columns %v, model expects %v", models.ErrSchemaMismatch, categorical, e.art.CategoricalFeatures)
	}

	sum := 0.0
	for _, tree := range e.art.Trees {
		idx := 0
		for depth, s := range tree.Splits {
			if e.bit(rec, s) {
				idx |= 1 << depth
			}
		}
		sum += tree.LeafValues[idx]
	}

	p := sigmoid(e.art.Bias + e.art.Scale*sum)
	if math.IsNaN(p) {
		return 0, fmt.Errorf("ensemble produced NaN for version %s", e.art.Version)
	}
	return p, nil
}

// bit evaluates one split. Unknown numeric values never exceed a border.
func (e *Ensemble) bit(rec models.FeatureRecord, s Split) bool {
	if s.Category != nil {
		v, _ := rec.Category(s.Feature)
		return v.Valid && v.String == *s.Category
	}
	v, _ := rec.Numeric(s.Feature)
	return v.Valid && v.Float64 > *s.Border
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

var _ domsvc.Classifier = (*Ensemble)(nil)
