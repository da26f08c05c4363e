package models

import "time"

// PriceBar is one adjusted daily OHLCV record. Date is a calendar day at UTC midnight.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds bars for one symbol ordered ascending by date, no duplicate dates.
type PriceSeries struct {
	Symbol string
	Bars   []PriceBar
}

func (s PriceSeries) Len() int { return len(s.Bars) }

func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// TruncateAfter returns the series restricted to bars dated on or before cutoff.
func (s PriceSeries) TruncateAfter(cutoff time.Time) PriceSeries {
	n := len(s.Bars)
	for n > 0 && s.Bars[n-1].Date.After(cutoff) {
		n--
	}
	return PriceSeries{Symbol: s.Symbol, Bars: s.Bars[:n]}
}

// Day truncates t to its calendar date, expressed as UTC midnight.
// Offset-aware instants are converted to UTC first.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// LocalDay takes the wall-clock date of t in its own location.
func LocalDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

const DateLayout = "2006-01-02"
