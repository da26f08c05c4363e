package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	models "EarnPulse/internal/domain/models"
	"EarnPulse/internal/service/ratelimit"
	xlogger "EarnPulse/pkg/logger"
)

type stubPredictor struct {
	got string
	err error
}

func (s *stubPredictor) GetPrediction(_ context.Context, ticker string) (*models.ResponsePayload, error) {
	s.got = ticker
	if s.err != nil {
		return nil, s.err
	}
	return models.NewUndeterminedPayload(models.CompanySummary{Ticker: ticker, CompanyName: ticker}), nil
}

type stubStorage struct {
	rows []*models.PredictionEvent
}

func (s *stubStorage) Store(context.Context, *models.PredictionEvent) error        { return nil }
func (s *stubStorage) StoreBatch(context.Context, []*models.PredictionEvent) error { return nil }
func (s *stubStorage) Health(context.Context) error                                { return nil }
func (s *stubStorage) Close() error                                                { return nil }

func (s *stubStorage) Query(_ context.Context, ticker string, limit int) ([]*models.PredictionEvent, error) {
	var out []*models.PredictionEvent
	for _, r := range s.rows {
		if r.Ticker == ticker && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

type envelope struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *PredictEchoHandler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %s: %v (%s)", target, err, rec.Body.String())
	}
	return rec, env
}

func TestPredictDefaultsTicker(t *testing.T) {
	p := &stubPredictor{}
	h := NewPredictEchoHandler(xlogger.Nop(), p, nil, nil, "NKE", nil)

	rec, env := serve(t, h, "/predict")
	if rec.Code != http.StatusOK || env.Status != http.StatusOK {
		t.Fatalf("status = %d/%d", rec.Code, env.Status)
	}
	if p.got != "NKE" {
		t.Errorf("predictor got %q, want NKE", p.got)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatal(err)
	}
	if payload["outcome"] != "undetermined" || payload["earnings_date"] != "TBD" || payload["expected_eps"] != "TBD" {
		t.Errorf("payload = %v", payload)
	}
}

func TestPredictUsesQueryTicker(t *testing.T) {
	p := &stubPredictor{}
	h := NewPredictEchoHandler(xlogger.Nop(), p, nil, nil, "NKE", nil)
	if rec, _ := serve(t, h, "/api/predict?ticker=aapl"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if p.got != "aapl" {
		t.Errorf("predictor got %q", p.got)
	}
}

func TestPredictErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"upstream down", models.Unavailable("yahoo", errors.New("timeout")), http.StatusBadGateway},
		{"model missing", models.ErrModelLoad, http.StatusServiceUnavailable},
		{"blank ticker", fmt.Errorf("%w: ticker is required", models.ErrInvalidTicker), http.StatusBadRequest},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPredictEchoHandler(xlogger.Nop(), &stubPredictor{err: tt.err}, nil, nil, "NKE", nil)
			rec, env := serve(t, h, "/predict?ticker=NKE")
			if rec.Code != tt.want || env.Status != tt.want {
				t.Errorf("status = %d/%d, want %d", rec.Code, env.Status, tt.want)
			}
		})
	}
}

func TestPredictBlankTicker(t *testing.T) {
	p := &stubPredictor{err: fmt.Errorf("%w: ticker is required", models.ErrInvalidTicker)}
	h := NewPredictEchoHandler(xlogger.Nop(), p, nil, nil, "NKE", nil)

	rec, env := serve(t, h, "/predict?ticker=%20%20")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errs []struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	if err := json.Unmarshal(env.Data, &errs); err != nil {
		t.Fatal(err)
	}
	if len(errs) != 1 || errs[0].Code != "ERR_BAD_REQUEST" || errs[0].Field != "ticker" {
		t.Errorf("errors = %+v", errs)
	}
}

func TestPredictRateLimited(t *testing.T) {
	h := NewPredictEchoHandler(xlogger.Nop(), &stubPredictor{}, nil, ratelimit.New(0.001, 1), "NKE", nil)
	if rec, _ := serve(t, h, "/predict"); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	if rec, _ := serve(t, h, "/predict"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
}

func TestHistory(t *testing.T) {
	store := &stubStorage{rows: []*models.PredictionEvent{
		{EventID: "1", Ticker: "NKE", Outcome: models.OutcomeWaiting},
		{EventID: "2", Ticker: "NKE", Outcome: models.OutcomePrediction},
		{EventID: "3", Ticker: "AAPL", Outcome: models.OutcomeWaiting},
	}}
	h := NewPredictEchoHandler(xlogger.Nop(), &stubPredictor{}, store, nil, "NKE", nil)

	rec, env := serve(t, h, "/api/predictions?ticker=nke&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list struct {
		Rows  []models.PredictionEvent `json:"rows"`
		Total int64                    `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || len(list.Rows) != 2 {
		t.Errorf("got %d rows, total %d", len(list.Rows), list.Total)
	}

	if rec, _ := serve(t, h, "/api/predictions"); rec.Code != http.StatusBadRequest {
		t.Errorf("missing ticker status = %d, want 400", rec.Code)
	}
}

func TestHistoryDisabled(t *testing.T) {
	h := NewPredictEchoHandler(xlogger.Nop(), &stubPredictor{}, nil, nil, "NKE", nil)
	rec, env := serve(t, h, "/api/predictions?ticker=NKE")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(string(env.Data), "ERR_NOT_FOUND") {
		t.Errorf("body = %s", env.Data)
	}
}

func TestHealth(t *testing.T) {
	h := NewPredictEchoHandler(xlogger.Nop(), &stubPredictor{}, nil, nil, "NKE", func() string { return "v9" })
	rec, env := serve(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(env.Data, &body); err != nil {
		t.Fatal(err)
	}
	if body["model_version"] != "v9" {
		t.Errorf("health = %v", body)
	}
}
