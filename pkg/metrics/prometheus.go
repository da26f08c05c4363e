package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"EarnPulse/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions  *prometheus.CounterVec
	nullFeatures *prometheus.CounterVec
	scaledProb   *prometheus.GaugeVec
	eventsSent   *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New registers the recorder's collectors with the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		predictions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnpulse_predictions_total",
				Help: "Prediction requests served, by outcome",
			},
			[]string{"outcome"},
		),
		nullFeatures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnpulse_null_features_total",
				Help: "Features left null at assembly time",
			},
			[]string{"feature"},
		),
		scaledProb: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "earnpulse_scaled_beat_pct",
				Help: "Last scaled beat probability served for a ticker",
			},
			[]string{"ticker"},
		),
		eventsSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnpulse_events_sent_total",
				Help: "Prediction events written to a recorder backend",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earnpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earnpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPrediction(outcome models.Outcome) {
	r.predictions.WithLabelValues(string(outcome)).Inc()
}

func (r *Recorder) RecordNullFeature(name string) {
	r.nullFeatures.WithLabelValues(name).Inc()
}

// RecordScaledProbability records the last scaled probability for a ticker.
func (r *Recorder) RecordScaledProbability(ticker string, pct float64) {
	r.scaledProb.WithLabelValues(ticker).Set(pct)
}

// RecordEventSent records an event written to a backend.
func (r *Recorder) RecordEventSent(backend string) {
	r.eventsSent.WithLabelValues(backend).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards everything. Used by the CLI and tests.
type Nop struct{}

func (Nop) RecordPrediction(models.Outcome)         {}
func (Nop) RecordNullFeature(string)                {}
func (Nop) RecordScaledProbability(string, float64) {}
func (Nop) RecordEventSent(string)                  {}
func (Nop) RecordError(string)                      {}
func (Nop) RecordLatency(string, float64)           {}
