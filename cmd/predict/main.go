package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"EarnPulse/internal/di"
	"EarnPulse/internal/domain/models"
	"EarnPulse/internal/usecase"
	"EarnPulse/pkg/config"
	"EarnPulse/pkg/logger"
)

var (
	cfgFile string
	format  string
	workers int
	timeout time.Duration
	verbose bool
)

type result struct {
	Ticker  string                  `json:"ticker"`
	Payload *models.ResponsePayload `json:"payload,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "predict [TICKER...]",
		Short: "Estimate the probability that a company beats its next EPS estimate",
		Long: `predict runs the earnings-beat pipeline once per ticker and prints the result.

Examples:
  predict NKE
  predict AAPL MSFT --format json`,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "config/config.yaml", "config file path")
	rootCmd.Flags().StringVar(&format, "format", "table", "output format: table, json")
	rootCmd.Flags().IntVar(&workers, "workers", 4, "tickers processed in parallel")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "log pipeline progress to stderr")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q", format)
	}

	_ = godotenv.Load()
	cfg, err := config.LoadWithEnv(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	l, err := logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}

	predictor, err := di.InitializePredictor(cfg, l)
	if err != nil {
		return fmt.Errorf("initializing predictor: %w", err)
	}

	tickers := args
	if len(tickers) == 0 {
		tickers = []string{cfg.Prediction.DefaultTicker}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
	defer cancelTimeout()

	results := predictAll(ctx, predictor, tickers, workers)

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printTable(results)
	return nil
}

// predictAll keeps results in input order.
func predictAll(ctx context.Context, p *usecase.BeatPredictor, tickers []string, n int) []result {
	if n < 1 {
		n = 1
	}
	results := make([]result, len(tickers))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				ticker := strings.ToUpper(tickers[i])
				payload, err := p.GetPrediction(ctx, ticker)
				results[i] = result{Ticker: ticker, Payload: payload}
				if err != nil {
					results[i].Error = err.Error()
				}
			}
		}()
	}
	for i := range tickers {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

func printTable(results []result) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Ticker", "Company", "Earnings", "Days", "EPS Est", "Beat", "Note"}),
	)

	for _, r := range results {
		if r.Payload == nil {
			table.Append([]string{r.Ticker, "", "", "", "", "", truncate(r.Error, 50)})
			continue
		}
		p := r.Payload

		days := ""
		if p.DaysUntil != nil {
			days = fmt.Sprintf("%d", *p.DaysUntil)
		}
		eps := models.TBD
		if p.ExpectedEPS.Valid {
			eps = fmt.Sprintf("%.2f", p.ExpectedEPS.Float64)
		}
		beat := ""
		note := ""
		switch p.Outcome {
		case models.OutcomePrediction:
			beat = fmt.Sprintf("%.2f%%", *p.ScaledBeatPct)
			note = fmt.Sprintf("raw %.2f%%", *p.RawBeatPct)
		case models.OutcomeWaiting:
			note = truncate(p.Message, 50)
		default:
			note = "no upcoming earnings date"
		}

		table.Append([]string{p.Ticker, truncate(p.CompanyName, 24), p.EarningsDate, days, eps, beat, note})
	}

	table.Render()
}

// truncate shortens s to n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
