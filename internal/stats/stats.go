// Package stats provides the pure statistical primitives shared by the
// analysis pipelines: z-scores and anomaly masks, per-1000 velocity rates,
// moving averages, OLS trend detection and demographic cohort summaries.
// All functions are deterministic and allocation-light; none touch I/O.
package stats

import (
	"fmt"
	"math"

	"github.com/YashwanthKamireddi/project-prerana/pkg/contracts/domain"
)

// Trend classification thresholds. A series only counts as directional when
// the fitted slope clears the magnitude bar and the fit explains most of the
// variance, otherwise noisy flat series would oscillate between directions.
const (
	trendSlopeThreshold = 0.1
	trendR2Threshold    = 0.5
)

// Cohort summarises one demographic group (gender x age bucket).
type Cohort struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Mean returns the arithmetic mean of values, skipping NaN entries.
// Returns 0 for an empty or all-NaN slice.
func Mean(values []float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// StdDev returns the population standard deviation of values, skipping NaN
// entries. Returns 0 for an empty or all-NaN slice.
func StdDev(values []float64) float64 {
	mean := Mean(values)
	sumSq := 0.0
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		d := v - mean
		sumSq += d * d
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sumSq / float64(n))
}

// ZScores returns (x-mean)/sigma for every element. NaN inputs are excluded
// from the moments and score 0 in the output. A zero standard deviation
// yields all zeros, so constant series never flag.
func ZScores(values []float64) []float64 {
	scores := make([]float64, len(values))
	sigma := StdDev(values)
	if sigma == 0 {
		return scores
	}
	mean := Mean(values)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		scores[i] = (v - mean) / sigma
	}
	return scores
}

// DetectAnomalies returns a mask marking every element whose absolute
// z-score exceeds threshold, together with the underlying scores.
func DetectAnomalies(values []float64, threshold float64) ([]bool, []float64) {
	scores := ZScores(values)
	mask := make([]bool, len(values))
	for i, z := range scores {
		mask[i] = math.Abs(z) > threshold
	}
	return mask, scores
}

// Velocity converts an event count into a per-1000-population daily rate:
// (count/population) * 1000 / periodDays. A non-positive population or
// period returns 0 rather than dividing by zero.
func Velocity(count, population, periodDays int) float64 {
	if population <= 0 || periodDays <= 0 {
		return 0
	}
	return float64(count) / float64(population) * 1000 / float64(periodDays)
}

// MovingAverage returns the sliding-window mean of values. The output has
// len(values)-window+1 elements. A window below 1 or longer than the input
// returns nil.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 || window > len(values) {
		return nil
	}
	out := make([]float64, 0, len(values)-window+1)
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out = append(out, sum/float64(window))
		}
	}
	return out
}

// LinearRegression fits y = intercept + slope*x over the series with x as
// the element index. Fewer than two points yield a zero slope with the
// single value (or 0) as intercept.
func LinearRegression(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	if len(values) < 2 {
		if len(values) == 1 {
			return 0, values[0]
		}
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// DetectTrend classifies the direction of a series from its OLS fit. The
// raw slope is always returned; the direction is INCREASING only when
// slope > 0.1 with R-squared > 0.5, DECREASING for the mirror case, and
// STABLE otherwise. Fewer than two points report (0, STABLE).
func DetectTrend(values []float64) (float64, domain.TrendDirection) {
	if len(values) < 2 {
		return 0, domain.TrendStable
	}

	slope, intercept := LinearRegression(values)

	mean := Mean(values)
	var ssRes, ssTot float64
	for i, y := range values {
		fit := intercept + slope*float64(i)
		ssRes += (y - fit) * (y - fit)
		ssTot += (y - mean) * (y - mean)
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - ssRes/ssTot
	}

	switch {
	case slope > trendSlopeThreshold && r2 > trendR2Threshold:
		return slope, domain.TrendIncreasing
	case slope < -trendSlopeThreshold && r2 > trendR2Threshold:
		return slope, domain.TrendDecreasing
	default:
		return slope, domain.TrendStable
	}
}

// AgeBucket maps an age in years to its cohort bucket label.
func AgeBucket(age int) string {
	switch {
	case age <= 17:
		return "0-17"
	case age <= 24:
		return "18-24"
	case age <= 34:
		return "25-34"
	case age <= 49:
		return "35-49"
	default:
		return "50+"
	}
}

// CohortKey builds the map key for a (gender, age) pair.
func CohortKey(gender string, age int) string {
	return gender + "_" + AgeBucket(age)
}

// CohortAnalysis groups the paired observations by gender and age bucket
// and summarises each group. The three slices must have equal lengths.
func CohortAnalysis(ages []int, genders []string, values []float64) (map[string]Cohort, error) {
	if len(ages) != len(genders) || len(ages) != len(values) {
		return nil, fmt.Errorf("cohort inputs must have equal lengths: ages=%d genders=%d values=%d",
			len(ages), len(genders), len(values))
	}

	groups := make(map[string][]float64)
	for i := range ages {
		key := CohortKey(genders[i], ages[i])
		groups[key] = append(groups[key], values[i])
	}

	cohorts := make(map[string]Cohort, len(groups))
	for key, vs := range groups {
		cohorts[key] = Cohort{
			Count:  len(vs),
			Mean:   Mean(vs),
			StdDev: StdDev(vs),
		}
	}
	return cohorts, nil
}
