package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v6"

	"EarnPulse/internal/domain/models"
	drepo "EarnPulse/internal/domain/repository"
	domsvc "EarnPulse/internal/domain/service"
	"EarnPulse/internal/services/calendar"
	"EarnPulse/internal/services/calibration"
	"EarnPulse/internal/services/features"
	"EarnPulse/pkg/logger"
	"EarnPulse/pkg/util"
)

// EventSink accepts served predictions without blocking the request.
type EventSink interface {
	Submit(e *models.PredictionEvent) bool
}

// PredictorOptions carries the tunables of the prediction flow.
type PredictorOptions struct {
	Benchmark    string
	HistoryStart time.Time
	BlackoutDays int
	Threshold    float64
	Location     *time.Location
}

// BeatPredictor runs the per-ticker prediction flow end to end.
type BeatPredictor struct {
	profiles   drepo.CompanyInfo
	prices     drepo.PriceHistory
	resolver   *calendar.Resolver
	classifier domsvc.Classifier
	sink       EventSink
	metrics    drepo.Metrics
	log        *logger.Logger
	opts       PredictorOptions
	now        func() time.Time
}

func NewBeatPredictor(
	profiles drepo.CompanyInfo,
	prices drepo.PriceHistory,
	resolver *calendar.Resolver,
	classifier domsvc.Classifier,
	sink EventSink,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts PredictorOptions,
) *BeatPredictor {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Benchmark == "" {
		opts.Benchmark = "SPY"
	}
	if opts.Threshold <= 0 || opts.Threshold >= 1 {
		opts.Threshold = calibration.DefaultThreshold
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BeatPredictor{
		profiles:   profiles,
		prices:     prices,
		resolver:   resolver,
		classifier: classifier,
		sink:       sink,
		metrics:    metrics,
		log:        log,
		opts:       opts,
		now:        time.Now,
	}
}

// Today is the current calendar date in the configured timezone.
func (p *BeatPredictor) Today() time.Time {
	return models.LocalDay(p.now().In(p.opts.Location))
}

// GetPrediction builds the payload for ticker. Only transport failures of the
// metadata, price or history sources are returned as errors.
func (p *BeatPredictor) GetPrediction(ctx context.Context, ticker string) (*models.ResponsePayload, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", models.ErrInvalidTicker)
	}
	start := time.Now()
	log := p.log.With(logger.String("ticker", ticker))

	profile, err := p.profiles.CompanyProfile(ctx, ticker)
	if err != nil {
		p.metrics.RecordError("profile")
		return nil, fmt.Errorf("company profile %s: %w", ticker, err)
	}
	summary := models.NewCompanySummary(ticker, profile)
	eps := null.Float{}
	if profile.ForwardEPS.Valid {
		eps = null.FloatFrom(util.Round2(profile.ForwardEPS.Float64))
	}

	today := p.Today()
	view, err := p.resolver.Resolve(ctx, ticker, today)
	switch {
	case errors.Is(err, models.ErrSchemaMismatch):
		p.metrics.RecordError("calendar_schema")
		log.Warn("calendar shape not recognized", logger.Error(err))
		view = models.EarningsCalendarView{}
	case err != nil:
		p.metrics.RecordError("calendar")
		return nil, fmt.Errorf("earnings calendar %s: %w", ticker, err)
	}

	var (
		payload *models.ResponsePayload
		rec     *models.FeatureRecord
	)
	state, days := SelectState(view.NextEventDate, today, p.opts.BlackoutDays)
	switch state {
	case StateWaiting:
		next := *view.NextEventDate
		payload = models.NewWaitingPayload(summary, next, days, eps, WaitingMessage(ticker, next, today, days, p.opts.BlackoutDays))
	case StatePredicting:
		next := *view.NextEventDate
		res, record, err := p.predict(ctx, log, ticker, profile, eps, next)
		if err != nil {
			return nil, err
		}
		rec = &record
		payload = models.NewPredictionPayload(summary, next, days, eps, res)
	default:
		payload = models.NewUndeterminedPayload(summary)
	}

	p.metrics.RecordPrediction(payload.Outcome)
	p.metrics.RecordLatency("get_prediction", time.Since(start).Seconds())
	log.Info("prediction served",
		logger.String("outcome", string(payload.Outcome)),
		logger.String("earnings_date", payload.EarningsDate),
		logger.Duration("took_ms", time.Since(start)),
	)
	p.record(ticker, payload, rec)
	return payload, nil
}

// WaitingMessage tells the user when the blackout window opens.
func WaitingMessage(ticker string, next, today time.Time, days, blackoutDays int) string {
	wait := days - blackoutDays
	check := today.AddDate(0, 0, wait)
	return fmt.Sprintf("%s's next earnings (%s) are in %d days. Check back in %d day(s), on %s for a prediction.",
		ticker, next.Format(models.DateLayout), days, wait, check.Format(models.DateLayout))
}

type fetched struct {
	name   string
	series models.PriceSeries
	events []models.EarningsEvent
	err    error
}

func (p *BeatPredictor) predict(
	ctx context.Context,
	log *logger.Logger,
	ticker string,
	profile models.CompanyProfile,
	eps null.Float,
	next time.Time,
) (models.PredictionResult, models.FeatureRecord, error) {
	var res models.PredictionResult
	cutoff := next.AddDate(0, 0, -p.opts.BlackoutDays)

	ch := make(chan fetched, 3)
	go func() {
		s, err := p.prices.FetchDaily(ctx, ticker, p.opts.HistoryStart, cutoff)
		ch <- fetched{name: "prices", series: s, err: err}
	}()
	go func() {
		s, err := p.prices.FetchDaily(ctx, p.opts.Benchmark, p.opts.HistoryStart, cutoff)
		ch <- fetched{name: "benchmark", series: s, err: err}
	}()
	go func() {
		ev, err := p.resolver.Recent(ctx, ticker, next)
		ch <- fetched{name: "history", events: ev, err: err}
	}()

	var series, bench models.PriceSeries
	var recent []models.EarningsEvent
	var firstErr error
	for i := 0; i < 3; i++ {
		f := <-ch
		if f.err != nil {
			p.metrics.RecordError(f.name)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s for %s: %w", f.name, ticker, f.err)
			}
			continue
		}
		switch f.name {
		case "prices":
			series = f.series
		case "benchmark":
			bench = f.series
		case "history":
			recent = f.events
		}
	}
	if firstErr != nil {
		return res, models.FeatureRecord{}, firstErr
	}

	series = series.TruncateAfter(cutoff)
	bench = bench.TruncateAfter(cutoff)
	rec := features.Assemble(features.Input{
		Indicators:    features.ComputeIndicators(series, bench),
		Profile:       profile,
		EPSEstimate:   eps,
		NextEventDate: next,
		RecentEvents:  recent,
	})

	if nulls := rec.Nulls(); len(nulls) > 0 {
		for _, name := range nulls {
			p.metrics.RecordNullFeature(name)
		}
		log.Warn("features unavailable",
			logger.Error(models.ErrInsufficientHistory),
			logger.Strings("features", nulls),
			logger.Int("bars", series.Len()),
		)
	}

	prob, err := p.classifier.PredictProba(ctx, rec, models.CategoricalFeatures)
	if err != nil {
		p.metrics.RecordError("classifier")
		return res, rec, fmt.Errorf("classify %s: %w", ticker, err)
	}

	res.RawProbabilityPct = calibration.ToPercent(prob)
	res.ScaledProbabilityPct = calibration.ToPercent(calibration.Calibrate(prob, p.opts.Threshold))
	p.metrics.RecordScaledProbability(ticker, res.ScaledProbabilityPct)
	return res, rec, nil
}

func (p *BeatPredictor) record(ticker string, payload *models.ResponsePayload, rec *models.FeatureRecord) {
	if p.sink == nil {
		return
	}
	e := &models.PredictionEvent{
		EventID:      uuid.NewString(),
		Ticker:       ticker,
		Outcome:      payload.Outcome,
		EarningsDate: payload.EarningsDate,
		DaysUntil:    payload.DaysUntil,
		RawPct:       payload.RawBeatPct,
		ScaledPct:    payload.ScaledBeatPct,
		Features:     rec,
		CreatedAt:    p.now().UTC(),
	}
	if rec != nil {
		e.ModelVersion = p.classifier.Version()
	}
	if !p.sink.Submit(e) {
		p.metrics.RecordError("recorder_full")
	}
}
