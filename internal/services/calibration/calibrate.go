// Package calibration rescales raw classifier probabilities so the model's
// decision threshold reads as a 50% likelihood.
package calibration

import "EarnPulse/pkg/util"

const DefaultThreshold = 0.57

// Calibrate maps p through a piecewise-linear transform anchored at threshold:
// [0, t] -> [0, 0.5] and [t, 1] -> [0.5, 1].
func Calibrate(p, threshold float64) float64 {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	if p >= threshold {
		return 0.5 + (p-threshold)/(1-threshold)*0.5
	}
	return p / threshold * 0.5
}

// ToPercent expresses a probability in percent, rounded to two decimals.
func ToPercent(p float64) float64 {
	return util.Round2(p * 100)
}
