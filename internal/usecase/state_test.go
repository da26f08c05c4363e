package usecase

import (
	"testing"
	"time"
)

func TestSelectState(t *testing.T) {
	today := time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)
	at := func(d int) *time.Time {
		v := today.AddDate(0, 0, d)
		return &v
	}

	tests := []struct {
		name      string
		next      *time.Time
		wantState State
		wantDays  int
	}{
		{"no date", nil, StateUndetermined, 0},
		{"past", at(-1), StateUndetermined, -1},
		{"today", at(0), StatePredicting, 0},
		{"inside blackout", at(3), StatePredicting, 3},
		{"blackout edge", at(7), StatePredicting, 7},
		{"just outside", at(8), StateWaiting, 8},
		{"far", at(60), StateWaiting, 60},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, days := SelectState(tt.next, today, 7)
			if state != tt.wantState {
				t.Errorf("state = %s, want %s", state, tt.wantState)
			}
			if tt.next != nil && days != tt.wantDays {
				t.Errorf("days = %d, want %d", days, tt.wantDays)
			}
		})
	}
}

func TestWaitingMessage(t *testing.T) {
	today := time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)
	next := today.AddDate(0, 0, 10)
	want := "NKE's next earnings (2025-07-03) are in 10 days. Check back in 3 day(s), on 2025-06-26 for a prediction."
	if got := WaitingMessage("NKE", next, today, 10, 7); got != want {
		t.Errorf("WaitingMessage() = %q\nwant %q", got, want)
	}
}
