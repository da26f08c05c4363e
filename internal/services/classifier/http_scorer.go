package classifier

import (
	"context"
	"fmt"
	"slices"
	"time"

	"EarnPulse/internal/domain/models"
	domsvc "EarnPulse/internal/domain/service"
)

// HTTPScorer delegates scoring to a model-serving sidecar.
type HTTPScorer struct {
	base     *HTTPServiceBase
	attempts int
	version  string
	cats     []string
}

type modelInfo struct {
	Version             string   `json:"version"`
	FeatureNames        []string `json:"feature_names"`
	CategoricalFeatures []string `json:"categorical_features"`
}

type probaReq struct {
	Features    map[string]interface{} `json:"features"`
	CatFeatures []string               `json:"cat_features"`
}

type probaResp struct {
	Proba *float64 `json:"proba"`
}

// LoadHTTPScorer fetches /model and checks the served schema.
func LoadHTTPScorer(ctx context.Context, baseURL string, timeout time.Duration, attempts int) (*HTTPScorer, error) {
	base := NewHTTPServiceBase(baseURL, timeout)
	var info modelInfo
	if err := base.GetJSON(ctx, "/model", &info); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelLoad, err)
	}
	if !slices.Equal(info.FeatureNames, models.FeatureNames) {
		return nil, fmt.Errorf("%w: served features %v do not match %v", models.ErrModelLoad, info.FeatureNames, models.FeatureNames)
	}
	if !sameSet(info.CategoricalFeatures, models.CategoricalFeatures) {
		return nil, fmt.Errorf("%w: served categorical features %v", models.ErrModelLoad, info.CategoricalFeatures)
	}
	return &HTTPScorer{base: base, attempts: attempts, version: info.Version, cats: info.CategoricalFeatures}, nil
}

func (s *HTTPScorer) Version() string { return s.version }

func (s *HTTPScorer) PredictProba(ctx context.Context, rec models.FeatureRecord, categorical []string) (float64, error) {
	if !sameSet(categorical, s.cats) {
		return 0, fmt.Errorf("%w: categorical columns %v, model expects %v", models.ErrSchemaMismatch, categorical, s.cats)
	}
	var resp probaResp
	err := s.base.PostJSONWithRetry(ctx, "/predict_proba", probaReq{Features: rec.Map(), CatFeatures: categorical}, &resp, s.attempts)
	if err != nil {
		return 0, models.Unavailable("model-service", err)
	}
	if resp.Proba == nil || *resp.Proba < 0 || *resp.Proba > 1 {
		return 0, fmt.Errorf("%w: model service returned no probability in [0,1]", models.ErrSchemaMismatch)
	}
	return *resp.Proba, nil
}

var _ domsvc.Classifier = (*HTTPScorer)(nil)
