package yahoo

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"github.com/tidwall/gjson"

	"EarnPulse/internal/domain/models"
	"EarnPulse/pkg/util"
)

// num reads a bare number or a {raw, fmt} object.
func num(r gjson.Result) null.Float {
	if r.IsObject() {
		r = r.Get("raw")
	}
	if r.Type != gjson.Number {
		return null.Float{}
	}
	return models.FiniteOrNull(r.Float())
}

func str(r gjson.Result) null.String {
	if r.Type != gjson.String || r.String() == "" {
		return null.String{}
	}
	return null.StringFrom(r.String())
}

func first(vals ...null.Float) null.Float {
	for _, v := range vals {
		if v.Valid {
			return v
		}
	}
	return null.Float{}
}

func parseDate(s string) (time.Time, bool) { return util.ParseTime(s) }

func sortDesc(events []models.EarningsEvent) {
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.After(events[j].Date) })
}
