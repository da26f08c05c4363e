package calendar

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"EarnPulse/internal/domain/models"
	"EarnPulse/pkg/util"
)

const earningsDateLabel = "Earnings Date"

type shape int

const (
	shapeKeyed shape = iota + 1
	shapeTabular
)

// payload is a detected calendar shape with its raw date values.
// Downstream code only sees the values, never the shape.
type payload struct {
	kind   shape
	values []gjson.Result
}

// detect classifies a raw calendar as a keyed map or a "split" table.
func detect(raw models.RawCalendar) (payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return payload{kind: shapeKeyed}, nil
	}
	if !gjson.ValidBytes(trimmed) {
		return payload{}, fmt.Errorf("calendar: invalid json: %w", models.ErrSchemaMismatch)
	}
	root := gjson.ParseBytes(trimmed)
	if !root.IsObject() {
		return payload{}, fmt.Errorf("calendar: unexpected %s payload: %w", root.Type, models.ErrSchemaMismatch)
	}

	index, data := root.Get("index"), root.Get("data")
	if index.IsArray() && data.IsArray() {
		p := payload{kind: shapeTabular}
		rows := data.Array()
		for i, label := range index.Array() {
			if label.String() != earningsDateLabel || i >= len(rows) {
				continue
			}
			if row := rows[i]; row.IsArray() {
				if cells := row.Array(); len(cells) > 0 {
					p.values = append(p.values, cells[0])
				}
			} else {
				p.values = append(p.values, row)
			}
			break
		}
		return p, nil
	}

	var candidate gjson.Result
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == earningsDateLabel {
			candidate = value
			return false
		}
		return true
	})
	if empty(candidate) {
		candidate = root.Get("earningsDate")
	}
	p := payload{kind: shapeKeyed}
	if empty(candidate) {
		return p, nil
	}
	if candidate.IsArray() {
		p.values = candidate.Array()
	} else {
		p.values = []gjson.Result{candidate}
	}
	return p, nil
}

func empty(r gjson.Result) bool {
	if !r.Exists() || r.Type == gjson.Null {
		return true
	}
	return r.IsArray() && len(r.Array()) == 0
}

// ParseDateValue reads a unix timestamp, a date string or a {raw, fmt} object.
func ParseDateValue(v gjson.Result) (time.Time, bool) {
	switch {
	case v.Type == gjson.Number:
		return util.FromUnix(v.Int()), v.Int() > 0
	case v.Type == gjson.String:
		return util.ParseTime(v.String())
	case v.IsObject():
		if raw := v.Get("raw"); raw.Type == gjson.Number {
			return ParseDateValue(raw)
		}
		if f := v.Get("fmt"); f.Exists() {
			return ParseDateValue(f)
		}
	}
	return time.Time{}, false
}

// NormalizeDates parses each value, converts to a UTC calendar day and
// returns the distinct days ascending. Unparseable values are dropped.
func NormalizeDates(values []gjson.Result) []time.Time {
	seen := make(map[time.Time]struct{}, len(values))
	out := make([]time.Time, 0, len(values))
	for _, v := range values {
		t, ok := ParseDateValue(v)
		if !ok {
			continue
		}
		d := models.Day(t)
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// NextEventDate resolves the earliest calendar date on or after asOf, or nil.
func NextEventDate(raw models.RawCalendar, asOf time.Time) (*time.Time, error) {
	p, err := detect(raw)
	if err != nil {
		return nil, err
	}
	today := models.Day(asOf)
	for _, d := range NormalizeDates(p.values) {
		if !d.Before(today) {
			next := d
			return &next, nil
		}
	}
	return nil, nil
}

// Resolve builds a calendar view with the next event date only.
func Resolve(raw models.RawCalendar, asOf time.Time) (models.EarningsCalendarView, error) {
	next, err := NextEventDate(raw, asOf)
	if err != nil {
		return models.EarningsCalendarView{}, err
	}
	return models.EarningsCalendarView{NextEventDate: next}, nil
}

// RecentEvents keeps events strictly before next, most recent first, at most max.
func RecentEvents(history []models.EarningsEvent, next time.Time, max int) []models.EarningsEvent {
	cutoff := models.Day(next)
	out := make([]models.EarningsEvent, 0, len(history))
	for _, e := range history {
		e.Date = models.Day(e.Date)
		if e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if len(out) > max {
		out = out[:max]
	}
	return out
}
