package features

import (
	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"EarnPulse/internal/domain/models"
)

const (
	RSIWindow    = 14
	MACDFast     = 12
	MACDSlow     = 26
	MACDSignal   = 9
	SMAShort     = 20
	SMALong      = 50
	TrailingDays = 30
	LagNear      = 7
	LagFar       = 14
)

// Indicators are the price-derived inputs of a FeatureRecord, all computed on
// bars dated on or before the cutoff.
type Indicators struct {
	RSI14          null.Float
	MACDDiff       null.Float
	SMARatio2050   null.Float
	PriceReturn30d null.Float
	Volatility30d  null.Float
	PriceReturn7d  null.Float
	VolumeNorm30d  null.Float
	PriceToAvg30d  null.Float
	SPYReturn      null.Float
}

// ComputeIndicators evaluates every indicator on series and the benchmark return on benchmark.
// A short benchmark yields a 0.0 return, unlike the ticker's own returns which become null.
func ComputeIndicators(series, benchmark models.PriceSeries) Indicators {
	closes := series.Closes()
	volumes := series.Volumes()

	spy := null.FloatFrom(0)
	if benchmark.Len() >= TrailingDays {
		spy = PeriodReturn(benchmark.Closes(), 1, TrailingDays)
	}

	return Indicators{
		RSI14:          RSI(closes, RSIWindow),
		MACDDiff:       MACDHistogram(closes, MACDFast, MACDSlow, MACDSignal),
		SMARatio2050:   SMARatio(closes, SMAShort, SMALong),
		PriceReturn30d: PeriodReturn(closes, 1, TrailingDays),
		Volatility30d:  Volatility(closes, TrailingDays),
		PriceReturn7d:  PeriodReturn(closes, LagNear, LagFar),
		VolumeNorm30d:  VolumeNorm(volumes, TrailingDays),
		PriceToAvg30d:  PriceToAverage(closes, TrailingDays),
		SPYReturn:      spy,
	}
}

// ewm is an exponentially weighted mean seeded with the first value:
// y_0 = x_0, y_t = a*x_t + (1-a)*y_{t-1}.
func ewm(xs []float64, alpha float64) []float64 {
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	out[0] = xs[0]
	for i := 1; i < len(xs); i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSI is Wilder's relative strength index (smoothing a = 1/window) at the last bar.
// Null until window bars exist; 100 when the average loss is zero.
func RSI(closes []float64, window int) null.Float {
	n := len(closes)
	if window <= 0 || n < window {
		return null.Float{}
	}
	up := make([]float64, n)
	down := make([]float64, n)
	for i := 1; i < n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			up[i] = d
		} else if d < 0 {
			down[i] = -d
		}
	}
	alpha := 1 / float64(window)
	avgUp := ewm(up, alpha)[n-1]
	avgDown := ewm(down, alpha)[n-1]
	if avgDown == 0 {
		return null.FloatFrom(100)
	}
	return models.FiniteOrNull(100 - 100/(1+avgUp/avgDown))
}

// MACDHistogram is (EMA_fast - EMA_slow) minus its EMA_signal, at the last bar.
// The signal line starts at the first bar where the slow EMA is defined,
// so the histogram needs slow+signal-1 bars.
func MACDHistogram(closes []float64, fast, slow, signal int) null.Float {
	n := len(closes)
	if n < slow+signal-1 {
		return null.Float{}
	}
	emaFast := ewm(closes, 2/float64(fast+1))
	emaSlow := ewm(closes, 2/float64(slow+1))
	macd := make([]float64, 0, n-slow+1)
	for i := slow - 1; i < n; i++ {
		macd = append(macd, emaFast[i]-emaSlow[i])
	}
	sig := ewm(macd, 2/float64(signal+1))
	last := len(macd) - 1
	return models.FiniteOrNull(macd[last] - sig[last])
}

// SMARatio is SMA(short)/SMA(long) at the last bar; null below long bars or when SMA(long) is zero.
func SMARatio(closes []float64, short, long int) null.Float {
	n := len(closes)
	if n < long || n < short {
		return null.Float{}
	}
	smaLong := stat.Mean(closes[n-long:], nil)
	if smaLong == 0 {
		return null.Float{}
	}
	return models.FiniteOrNull(stat.Mean(closes[n-short:], nil) / smaLong)
}

// PeriodReturn is close[n-num]/close[n-den] - 1, counting positions from the end
// (num=1 is the last bar). Null when fewer than den bars exist.
func PeriodReturn(closes []float64, num, den int) null.Float {
	n := len(closes)
	if n < den || n < num {
		return null.Float{}
	}
	base := closes[n-den]
	if base == 0 {
		return null.Float{}
	}
	return models.FiniteOrNull(closes[n-num]/base - 1)
}

// Volatility is the sample standard deviation of daily percent changes over the trailing window.
func Volatility(closes []float64, window int) null.Float {
	n := len(closes)
	if window < 3 || n < window {
		return null.Float{}
	}
	tail := closes[n-window:]
	changes := make([]float64, 0, window-1)
	for i := 1; i < len(tail); i++ {
		if tail[i-1] == 0 {
			return null.Float{}
		}
		changes = append(changes, tail[i]/tail[i-1]-1)
	}
	return models.FiniteOrNull(stat.StdDev(changes, nil))
}

// VolumeNorm is mean/max of the trailing window volumes.
func VolumeNorm(volumes []float64, window int) null.Float {
	n := len(volumes)
	if window <= 0 || n < window {
		return null.Float{}
	}
	tail := volumes[n-window:]
	peak := floats.Max(tail)
	if peak == 0 {
		return null.Float{}
	}
	return models.FiniteOrNull(stat.Mean(tail, nil) / peak)
}

// PriceToAverage is the last close over the trailing window mean close.
func PriceToAverage(closes []float64, window int) null.Float {
	n := len(closes)
	if window <= 0 || n < window {
		return null.Float{}
	}
	mean := stat.Mean(closes[n-window:], nil)
	if mean == 0 {
		return null.Float{}
	}
	return models.FiniteOrNull(closes[n-1] / mean)
}
