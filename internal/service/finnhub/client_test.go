package finnhub

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"EarnPulse/internal/domain/models"
)

func TestEarningsHistory(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = map[string]string{
			"symbol": r.URL.Query().Get("symbol"),
			"from":   r.URL.Query().Get("from"),
			"to":     r.URL.Query().Get("to"),
			"token":  r.URL.Query().Get("token"),
		}
		_, _ = w.Write([]byte(`{"earningsCalendar":[
			{"date":"2024-12-19","epsActual":0.78,"epsEstimate":0.63,"symbol":"NKE"},
			{"date":"2025-03-20","epsActual":0.54,"epsEstimate":0.29,"symbol":"NKE"},
			{"date":"2025-06-26","epsActual":null,"epsEstimate":0.13,"symbol":"NKE"},
			{"date":"bad","epsActual":1,"epsEstimate":1,"symbol":"NKE"}
		]}`))
	}))
	defer srv.Close()

	c := New("k", srv.URL, time.Second, 365)
	c.now = func() time.Time { return time.Date(2025, 6, 20, 15, 0, 0, 0, time.UTC) }

	events, err := c.EarningsHistory(context.Background(), "NKE", 2)
	if err != nil {
		t.Fatalf("EarningsHistory() error = %v", err)
	}
	if query["symbol"] != "NKE" || query["token"] != "k" || query["to"] != "2025-06-20" || query["from"] != "2024-06-20" {
		t.Errorf("query = %v", query)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Date.Format(models.DateLayout) != "2025-06-26" || events[0].ReportedEPS.Valid {
		t.Errorf("first event = %+v", events[0])
	}
	if events[1].EstimatedEPS.Float64 != 0.29 {
		t.Errorf("second event = %+v", events[1])
	}
}

func TestEarningsHistoryUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New("k", srv.URL, time.Second, 0)
	if _, err := c.EarningsHistory(context.Background(), "NKE", 4); !errors.Is(err, models.ErrDataUnavailable) {
		t.Errorf("error = %v, want ErrDataUnavailable", err)
	}
}
