package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"EarnPulse/internal/domain/models"
	"EarnPulse/internal/domain/repository"
	pkgch "EarnPulse/pkg/clickhouse"
	"EarnPulse/pkg/logger"
)

const insertColumns = "event_id, created_at, ticker, outcome, earnings_date, days_until, raw_pct, scaled_pct, model_version, features"

// PredictionSchema returns the DDL for the prediction event table.
func PredictionSchema(table string) []string {
	return []string{fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            event_id      String,
            created_at    DateTime64(3, 'UTC'),
            ticker        LowCardinality(String),
            outcome       LowCardinality(String),
            earnings_date String,
            days_until    Nullable(Int32),
            raw_pct       Nullable(Float64),
            scaled_pct    Nullable(Float64),
            model_version String,
            features      String
        )
        ENGINE = ReplacingMergeTree
        ORDER BY (ticker, created_at, event_id)`, table)}
}

// ClickHouseStorage persists prediction events in ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
	log   *logger.Logger
}

func NewClickHouseStorage(ch *pkgch.Client, table string, log *logger.Logger) *ClickHouseStorage {
	if log == nil {
		log = logger.Nop()
	}
	return &ClickHouseStorage{db: ch.DB(), table: table, log: log}
}

// Init creates the table if missing.
func (s *ClickHouseStorage) Init(ctx context.Context, ch *pkgch.Client) error {
	return ch.InitSchema(ctx, PredictionSchema(s.table))
}

func (s *ClickHouseStorage) Store(ctx context.Context, e *models.PredictionEvent) error {
	return s.StoreBatch(ctx, []*models.PredictionEvent{e})
}

// StoreBatch inserts events with a multi-row VALUES statement in chunks.
func (s *ClickHouseStorage) StoreBatch(ctx context.Context, events []*models.PredictionEvent) error {
	const chunkSize = 1000
	for start := 0; start < len(events); start += chunkSize {
		end := min(start+chunkSize, len(events))

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*10)
		for _, e := range events[start:end] {
			row, err := eventArgs(e)
			if err != nil {
				s.log.Warn("skipping prediction event", logger.Error(err))
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, row...)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, insertColumns, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert prediction events: %w", err)
		}
	}
	return nil
}

func eventArgs(e *models.PredictionEvent) ([]interface{}, error) {
	if e == nil || e.EventID == "" || e.Ticker == "" {
		return nil, fmt.Errorf("event missing id or ticker")
	}
	features := ""
	if e.Features != nil {
		b, err := json.Marshal(e.Features)
		if err != nil {
			return nil, fmt.Errorf("encode features: %w", err)
		}
		features = string(b)
	}

	var days, raw, scaled interface{}
	if e.DaysUntil != nil {
		days = int32(*e.DaysUntil)
	}
	if e.RawPct != nil {
		raw = *e.RawPct
	}
	if e.ScaledPct != nil {
		scaled = *e.ScaledPct
	}
	return []interface{}{
		e.EventID,
		e.CreatedAt.UTC(),
		e.Ticker,
		string(e.Outcome),
		e.EarningsDate,
		days,
		raw,
		scaled,
		e.ModelVersion,
		features,
	}, nil
}

// Query returns the latest events for ticker, newest first.
func (s *ClickHouseStorage) Query(ctx context.Context, ticker string, limit int) ([]*models.PredictionEvent, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE ticker = ? ORDER BY created_at DESC LIMIT ?", insertColumns, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []*models.PredictionEvent
	for rows.Next() {
		var (
			e           models.PredictionEvent
			outcome     string
			created     time.Time
			days        sql.NullInt32
			raw, scaled sql.NullFloat64
			features    string
		)
		if err := rows.Scan(&e.EventID, &created, &e.Ticker, &outcome, &e.EarningsDate,
			&days, &raw, &scaled, &e.ModelVersion, &features); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		e.CreatedAt = created.UTC()
		e.Outcome = models.Outcome(outcome)
		if days.Valid {
			d := int(days.Int32)
			e.DaysUntil = &d
		}
		if raw.Valid {
			e.RawPct = &raw.Float64
		}
		if scaled.Valid {
			e.ScaledPct = &scaled.Float64
		}
		if features != "" {
			var rec models.FeatureRecord
			if err := json.Unmarshal([]byte(features), &rec); err == nil {
				e.Features = &rec
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseStorage) Close() error { return nil }

var _ repository.Storage = (*ClickHouseStorage)(nil)
