package models

import (
	"math"
	"strconv"

	"github.com/guregu/null/v6"
)

const (
	FeatureSector         = "sector"
	FeatureBeta           = "beta"
	FeatureEPSEstimate    = "eps_estimate"
	FeaturePriceToAvg30d  = "price_to_avg_30d"
	FeatureEPSSurpriseAvg = "eps_surprise_avg"
	FeaturePriceReturn30d = "price_return_30d"
	FeaturePriceReturn7d  = "price_return_7d_before_cutoff"
	FeatureRSI14          = "rsi_14"
	FeatureMACDDiff       = "macd_diff"
	FeatureSMARatio2050   = "sma_ratio_20_50"
	FeatureVolatility30d  = "volatility_30d"
	FeatureVolumeAvg30d   = "volume_avg_30d"
	FeatureSPYReturn      = "spy_return"
	FeatureRelativeReturn = "relative_return_30d"
	FeatureQuarter        = "quarter"
	FeatureDayOfWeek      = "day_of_week"
)

// FeatureNames is the fixed training-time column order.
var FeatureNames = []string{
	FeatureSector,
	FeatureBeta,
	FeatureEPSEstimate,
	FeaturePriceToAvg30d,
	FeatureEPSSurpriseAvg,
	FeaturePriceReturn30d,
	FeaturePriceReturn7d,
	FeatureRSI14,
	FeatureMACDDiff,
	FeatureSMARatio2050,
	FeatureVolatility30d,
	FeatureVolumeAvg30d,
	FeatureSPYReturn,
	FeatureRelativeReturn,
	FeatureQuarter,
	FeatureDayOfWeek,
}

// CategoricalFeatures are the columns the classifier treats as categories.
var CategoricalFeatures = []string{FeatureSector, FeatureQuarter, FeatureDayOfWeek}

// FeatureRecord is the fixed 16-field classifier input. Numeric fields are never NaN.
type FeatureRecord struct {
	Sector                    null.String `json:"sector"`
	Beta                      null.Float  `json:"beta"`
	EPSEstimate               null.Float  `json:"eps_estimate"`
	PriceToAvg30d             null.Float  `json:"price_to_avg_30d"`
	EPSSurpriseAvg            null.Float  `json:"eps_surprise_avg"`
	PriceReturn30d            null.Float  `json:"price_return_30d"`
	PriceReturn7dBeforeCutoff null.Float  `json:"price_return_7d_before_cutoff"`
	RSI14                     null.Float  `json:"rsi_14"`
	MACDDiff                  null.Float  `json:"macd_diff"`
	SMARatio2050              null.Float  `json:"sma_ratio_20_50"`
	Volatility30d             null.Float  `json:"volatility_30d"`
	VolumeAvg30d              null.Float  `json:"volume_avg_30d"`
	SPYReturn                 null.Float  `json:"spy_return"`
	RelativeReturn30d         null.Float  `json:"relative_return_30d"`
	Quarter                   int         `json:"quarter"`
	DayOfWeek                 int         `json:"day_of_week"`
}

// Numeric returns a numeric field by name. ok is false for unknown or categorical names.
func (r FeatureRecord) Numeric(name string) (v null.Float, ok bool) {
	switch name {
	case FeatureBeta:
		return r.Beta, true
	case FeatureEPSEstimate:
		return r.EPSEstimate, true
	case FeaturePriceToAvg30d:
		return r.PriceToAvg30d, true
	case FeatureEPSSurpriseAvg:
		return r.EPSSurpriseAvg, true
	case FeaturePriceReturn30d:
		return r.PriceReturn30d, true
	case FeaturePriceReturn7d:
		return r.PriceReturn7dBeforeCutoff, true
	case FeatureRSI14:
		return r.RSI14, true
	case FeatureMACDDiff:
		return r.MACDDiff, true
	case FeatureSMARatio2050:
		return r.SMARatio2050, true
	case FeatureVolatility30d:
		return r.Volatility30d, true
	case FeatureVolumeAvg30d:
		return r.VolumeAvg30d, true
	case FeatureSPYReturn:
		return r.SPYReturn, true
	case FeatureRelativeReturn:
		return r.RelativeReturn30d, true
	}
	return null.Float{}, false
}

// Category returns a categorical field rendered as a string.
// A missing sector yields ok=true with an empty, invalid value.
func (r FeatureRecord) Category(name string) (v null.String, ok bool) {
	switch name {
	case FeatureSector:
		return r.Sector, true
	case FeatureQuarter:
		return null.StringFrom(strconv.Itoa(r.Quarter)), true
	case FeatureDayOfWeek:
		return null.StringFrom(strconv.Itoa(r.DayOfWeek)), true
	}
	return null.String{}, false
}

// Map renders the record as name -> value with nil for nulls.
func (r FeatureRecord) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(FeatureNames))
	for _, name := range FeatureNames {
		if v, ok := r.Numeric(name); ok {
			if v.Valid {
				out[name] = v.Float64
			} else {
				out[name] = nil
			}
			continue
		}
		switch name {
		case FeatureQuarter:
			out[name] = r.Quarter
		case FeatureDayOfWeek:
			out[name] = r.DayOfWeek
		case FeatureSector:
			if r.Sector.Valid {
				out[name] = r.Sector.String
			} else {
				out[name] = nil
			}
		}
	}
	return out
}

// Nulls lists the numeric fields that are unknown.
func (r FeatureRecord) Nulls() []string {
	var out []string
	for _, name := range FeatureNames {
		if v, ok := r.Numeric(name); ok && !v.Valid {
			out = append(out, name)
		}
	}
	return out
}

// FiniteOrNull maps NaN and Inf to null.
func FiniteOrNull(f float64) null.Float {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}
