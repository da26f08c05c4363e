package finnhub

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"EarnPulse/internal/domain/models"
	drepo "EarnPulse/internal/domain/repository"
	xhttp "EarnPulse/pkg/http"
	"EarnPulse/pkg/util"
)

const provider = "finnhub"

// Client reads reported earnings from the Finnhub REST calendar.
type Client struct {
	apiKey   string
	baseURL  string
	lookback time.Duration
	http     *xhttp.Client
	now      func() time.Time
}

// New creates an EarningsHistory source. lookbackDays bounds the calendar query.
func New(apiKey, baseURL string, timeout time.Duration, lookbackDays int) *Client {
	if lookbackDays <= 0 {
		lookbackDays = 3650
	}
	return &Client{
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		now:      time.Now,
	}
}

type fhEarning struct {
	Date        string   `json:"date"`
	EPSActual   *float64 `json:"epsActual"`
	EPSEstimate *float64 `json:"epsEstimate"`
	Quarter     int      `json:"quarter"`
	Year        int      `json:"year"`
	Symbol      string   `json:"symbol"`
}

type fhCalendar struct {
	EarningsCalendar []fhEarning `json:"earningsCalendar"`
}

// EarningsHistory returns up to limit events, most recent first.
func (c *Client) EarningsHistory(ctx context.Context, symbol string, limit int) ([]models.EarningsEvent, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("finnhub: api key not configured")
	}
	to := c.now().UTC()
	from := to.Add(-c.lookback)

	var cal fhCalendar
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/calendar/earnings",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {from.Format(models.DateLayout)},
			"to":     {to.Format(models.DateLayout)},
			"token":  {c.apiKey},
		},
	}, &cal)
	if err != nil {
		return nil, models.Unavailable(provider, err)
	}

	out := make([]models.EarningsEvent, 0, len(cal.EarningsCalendar))
	for _, e := range cal.EarningsCalendar {
		d, ok := util.ParseTime(e.Date)
		if !ok {
			continue
		}
		out = append(out, models.EarningsEvent{
			Date:         models.Day(d),
			ReportedEPS:  null.FloatFromPtr(e.EPSActual),
			EstimatedEPS: null.FloatFromPtr(e.EPSEstimate),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ drepo.EarningsHistory = (*Client)(nil)
