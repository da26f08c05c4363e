package yahoo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"EarnPulse/internal/domain/models"
	drepo "EarnPulse/internal/domain/repository"
	"EarnPulse/internal/service/ratelimit"
	xhttp "EarnPulse/pkg/http"
	"EarnPulse/pkg/logger"
)

const provider = "yahoo"

// quoteSummary modules read by each lookup.
var (
	profileModules  = []string{"price", "assetProfile", "summaryDetail", "defaultKeyStatistics"}
	calendarModules = []string{"calendarEvents"}
	historyModules  = []string{"earningsHistory"}
)

// Options configures Client.
type Options struct {
	ChartURL   string
	SummaryURL string
	UserAgent  string
	Timeout    time.Duration
	Limiter    *ratelimit.Limiter
}

// Client reads daily bars and quoteSummary modules from Yahoo Finance.
type Client struct {
	chartURL   string
	summaryURL string
	userAgent  string
	http       *xhttp.Client
	limiter    *ratelimit.Limiter
	log        *logger.Logger
}

func New(opts Options, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(0, 1)
	}
	return &Client{
		chartURL:   strings.TrimRight(opts.ChartURL, "/"),
		summaryURL: strings.TrimRight(opts.SummaryURL, "/"),
		userAgent:  opts.UserAgent,
		http:       xhttp.NewClient(xhttp.WithTimeout(opts.Timeout)),
		limiter:    opts.Limiter,
		log:        log.With(logger.String("provider", provider)),
	}
}

// get performs a rate-limited GET. found is false on 404.
func (c *Client) get(ctx context.Context, url string, query map[string][]string) (body []byte, found bool, err error) {
	if err := c.limiter.Wait(ctx, provider); err != nil {
		return nil, false, models.Unavailable(provider, err)
	}

	start := time.Now()
	resp, err := c.http.SendRequest(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		Headers:     map[string]string{"User-Agent": c.userAgent, "Accept": "application/json"},
		QueryParams: query,
	})
	if err != nil {
		return nil, false, models.Unavailable(provider, err)
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, models.Unavailable(provider, fmt.Errorf("read body: %w", err))
	}
	c.log.Debug("yahoo request",
		logger.String("url", url),
		logger.Int("status", resp.StatusCode),
		logger.Duration("took_ms", time.Since(start)),
	)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return body, false, nil
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, false, models.Unavailable(provider, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return body, true, nil
}

// FetchDaily returns adjusted daily bars in [start, endInclusive].
// An unknown symbol yields an empty series.
func (c *Client) FetchDaily(ctx context.Context, symbol string, start, endInclusive time.Time) (models.PriceSeries, error) {
	series := models.PriceSeries{Symbol: symbol}
	if symbol == "" {
		return series, fmt.Errorf("yahoo: symbol is required")
	}
	from, to := models.Day(start), models.Day(endInclusive)
	if to.Before(from) {
		return series, fmt.Errorf("yahoo: end %s before start %s", to.Format(models.DateLayout), from.Format(models.DateLayout))
	}

	body, found, err := c.get(ctx, c.chartURL+"/"+symbol, map[string][]string{
		"period1":  {strconv.FormatInt(from.Unix(), 10)},
		"period2":  {strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10)},
		"interval": {"1d"},
		"events":   {"div,split"},
	})
	if err != nil || !found {
		return series, err
	}
	if !gjson.ValidBytes(body) {
		return series, fmt.Errorf("yahoo chart: %w", models.ErrSchemaMismatch)
	}

	root := gjson.ParseBytes(body)
	if code := root.Get("chart.error.code").String(); code != "" {
		if code == "Not Found" {
			return series, nil
		}
		return series, models.Unavailable(provider, fmt.Errorf("chart error %s: %s", code, root.Get("chart.error.description").String()))
	}
	result := root.Get("chart.result.0")
	if !result.Exists() {
		return series, nil
	}

	series.Bars = parseBars(result, from, to)
	return series, nil
}

func parseBars(result gjson.Result, from, to time.Time) []models.PriceBar {
	offset := result.Get("meta.gmtoffset").Int()
	stamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()
	adj := result.Get("indicators.adjclose.0.adjclose").Array()

	at := func(xs []gjson.Result, i int) (float64, bool) {
		if i >= len(xs) || xs[i].Type != gjson.Number {
			return 0, false
		}
		return xs[i].Float(), true
	}

	bars := make([]models.PriceBar, 0, len(stamps))
	for i, ts := range stamps {
		closeV, ok := at(closes, i)
		if !ok {
			continue
		}
		date := models.Day(time.Unix(ts.Int()+offset, 0))
		if date.Before(from) || date.After(to) {
			continue
		}

		ratio := 1.0
		if a, ok := at(adj, i); ok && closeV != 0 {
			ratio = a / closeV
		}
		open, _ := at(opens, i)
		high, _ := at(highs, i)
		low, _ := at(lows, i)
		vol, _ := at(volumes, i)
		bar := models.PriceBar{
			Date:   date,
			Open:   open * ratio,
			High:   high * ratio,
			Low:    low * ratio,
			Close:  closeV * ratio,
			Volume: vol,
		}

		if n := len(bars); n > 0 && bars[n-1].Date.Equal(date) {
			bars[n-1] = bar
			continue
		}
		bars = append(bars, bar)
	}
	return bars
}

// summary fetches the named quoteSummary modules. A missing symbol yields a
// non-existent result.
func (c *Client) summary(ctx context.Context, symbol string, modules []string) (gjson.Result, error) {
	if symbol == "" {
		return gjson.Result{}, fmt.Errorf("yahoo: symbol is required")
	}
	body, found, err := c.get(ctx, c.summaryURL+"/"+symbol, map[string][]string{
		"modules": {strings.Join(modules, ",")},
	})
	if err != nil || !found {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("yahoo quoteSummary: %w", models.ErrSchemaMismatch)
	}
	root := gjson.ParseBytes(body)
	if code := root.Get("quoteSummary.error.code").String(); code != "" && code != "Not Found" {
		return gjson.Result{}, models.Unavailable(provider, fmt.Errorf("quoteSummary error %s", code))
	}
	return root.Get("quoteSummary.result.0"), nil
}

// CompanyProfile maps the price, assetProfile, summaryDetail and
// defaultKeyStatistics modules onto a profile. Absent fields stay null.
func (c *Client) CompanyProfile(ctx context.Context, symbol string) (models.CompanyProfile, error) {
	res, err := c.summary(ctx, symbol, profileModules)
	if err != nil {
		return models.CompanyProfile{}, err
	}
	return parseProfile(res), nil
}

func parseProfile(res gjson.Result) models.CompanyProfile {
	return models.CompanyProfile{
		LongName:    str(res.Get("price.longName")),
		ShortName:   str(res.Get("price.shortName")),
		Website:     str(res.Get("assetProfile.website")),
		Description: str(res.Get("assetProfile.longBusinessSummary")),
		Sector:      str(res.Get("assetProfile.sector")),
		Industry:    str(res.Get("assetProfile.industry")),
		Beta:        first(num(res.Get("summaryDetail.beta")), num(res.Get("defaultKeyStatistics.beta"))),
		TrailingPE:  num(res.Get("summaryDetail.trailingPE")),
		MarketCap:   first(num(res.Get("price.marketCap")), num(res.Get("summaryDetail.marketCap"))),
		ForwardEPS:  num(res.Get("defaultKeyStatistics.forwardEps")),
	}
}

// RawCalendar returns the calendarEvents.earnings object untouched.
func (c *Client) RawCalendar(ctx context.Context, symbol string) (models.RawCalendar, error) {
	res, err := c.summary(ctx, symbol, calendarModules)
	if err != nil {
		return nil, err
	}
	earnings := res.Get("calendarEvents.earnings")
	if !earnings.Exists() {
		return nil, nil
	}
	return models.RawCalendar(earnings.Raw), nil
}

// EarningsHistory reads the earningsHistory module, most recent first.
func (c *Client) EarningsHistory(ctx context.Context, symbol string, limit int) ([]models.EarningsEvent, error) {
	res, err := c.summary(ctx, symbol, historyModules)
	if err != nil {
		return nil, err
	}
	return parseHistory(res.Get("earningsHistory.history"), limit), nil
}

func parseHistory(history gjson.Result, limit int) []models.EarningsEvent {
	var out []models.EarningsEvent
	for _, h := range history.Array() {
		var date time.Time
		if raw := h.Get("quarter.raw"); raw.Type == gjson.Number {
			date = time.Unix(raw.Int(), 0)
		} else if t, ok := parseDate(h.Get("quarter.fmt").String()); ok {
			date = t
		} else {
			continue
		}
		out = append(out, models.EarningsEvent{
			Date:         models.Day(date),
			ReportedEPS:  num(h.Get("epsActual")),
			EstimatedEPS: num(h.Get("epsEstimate")),
		})
	}
	sortDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var (
	_ drepo.PriceHistory     = (*Client)(nil)
	_ drepo.CompanyInfo      = (*Client)(nil)
	_ drepo.EarningsCalendar = (*Client)(nil)
	_ drepo.EarningsHistory  = (*Client)(nil)
)
