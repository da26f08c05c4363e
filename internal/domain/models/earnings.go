package models

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

// EarningsEvent is one reported (or scheduled) earnings release.
type EarningsEvent struct {
	Date         time.Time
	ReportedEPS  null.Float
	EstimatedEPS null.Float
}

// EarningsCalendarView is the per-request canonical view of a ticker's earnings calendar.
type EarningsCalendarView struct {
	NextEventDate *time.Time
	RecentEvents  []EarningsEvent // descending, at most 4
}

// RawCalendar is the provider calendar payload before normalization.
// Its shape is not known until the resolver inspects it.
type RawCalendar json.RawMessage
