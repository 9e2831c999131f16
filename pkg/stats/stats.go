package stats

import "math"

// Returns computes simple period-over-period percent returns
// r_t = (p_t - p_{t-1}) / p_{t-1}. The result has the same length as
// prices, with r_0 = 0. A zero prior price yields 0 rather than an error.
func Returns(prices []float64) []float64 {
	out := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (prices[i] - prev) / prev
	}
	return out
}

// RollingMean computes the trailing mean over `window` observations.
// Positions before a full window are NaN so that partially-filled windows
// never masquerade as real statistics.
func RollingMean(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RollingStdDev computes the trailing sample standard deviation over
// `window` observations. Positions before a full window are NaN.
func RollingStdDev(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += values[j]
		}
		mean := sum / float64(window)
		sum2 := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := values[j] - mean
			sum2 += d * d
		}
		variance := sum2 / float64(window-1)
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// ZScore standardizes value against mean and stddev. Undefined inputs
// (NaN mean/stddev) or a flat window (stddev 0) return 0 so that a
// degenerate window can never flag significance.
func ZScore(value, mean, stddev float64) float64 {
	if math.IsNaN(mean) || math.IsNaN(stddev) || stddev == 0 {
		return 0
	}
	return (value - mean) / stddev
}
