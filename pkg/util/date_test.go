package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeUnixMillis(t *testing.T) {
	want := time.Date(2025, 1, 30, 21, 0, 0, 0, time.UTC)
	got, ok := ParseTime(strconv.FormatInt(want.UnixMilli(), 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseTimeNaiveKeepsWallClock(t *testing.T) {
	for _, s := range []string{"2025-04-24", "2025-04-24 16:30:00", "2025-04-24T16:30:00"} {
		got, ok := ParseTime(s)
		if !ok {
			t.Fatalf("%q: expected ok", s)
		}
		if got.Year() != 2025 || got.Month() != time.April || got.Day() != 24 {
			t.Fatalf("%q: unexpected date %v", s, got)
		}
	}
}

func TestParseTimeWithOffset(t *testing.T) {
	got, ok := ParseTime("2025-04-24 20:00:00-04:00")
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Day() != 25 {
		t.Fatalf("expected UTC day 25, got %v", got.UTC())
	}
}

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		50:        50,
		61.23456:  61.23,
		0.125:     0.13,
		-1.005001: -1.01,
	}
	for in, want := range cases {
		if got := Round2(in); got != want {
			t.Errorf("Round2(%v) = %v, want %v", in, got, want)
		}
	}
}
