package usecase

import (
	"time"

	"EarnPulse/internal/domain/models"
)

// State is the orchestrator's decision for one request.
type State int

const (
	StateUndetermined State = iota
	StateWaiting
	StatePredicting
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StatePredicting:
		return "predicting"
	default:
		return "undetermined"
	}
}

// SelectState maps (next, today) to exactly one state. days is the calendar
// distance from today to next and is only meaningful when next is set.
func SelectState(next *time.Time, today time.Time, blackoutDays int) (state State, days int) {
	if next == nil {
		return StateUndetermined, 0
	}
	days = models.DaysBetween(today, *next)
	switch {
	case days < 0:
		return StateUndetermined, days
	case days > blackoutDays:
		return StateWaiting, days
	default:
		return StatePredicting, days
	}
}
