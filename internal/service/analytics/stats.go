package analytics

import (
	"math"
	"sort"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

// distribution summarizes a sample of millisecond durations. The input is
// sorted in place. All fields except Count are nil for an empty sample.
func distribution(values []int64) domain.DistributionStats {
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return domain.DistributionStats{
		Count: len(values),
		AvgMs: mean(values),
		P50Ms: percentile(values, 0.5),
		P90Ms: percentile(values, 0.9),
	}
}

// mean returns the arithmetic mean rounded to the nearest integer
// millisecond, or nil for an empty sample.
func mean(values []int64) *int64 {
	if len(values) == 0 {
		return nil
	}

	var sum int64
	for _, v := range values {
		sum += v
	}

	avg := int64(math.Round(float64(sum) / float64(len(values))))
	return &avg
}

// percentile returns the nearest-rank percentile of a sorted sample:
// the element at index floor((n-1)*q), with no interpolation.
// Returns nil for an empty sample.
func percentile(sorted []int64, q float64) *int64 {
	if len(sorted) == 0 {
		return nil
	}

	idx := int(math.Floor(float64(len(sorted)-1) * q))
	v := sorted[idx]
	return &v
}

// clampMs guards against clock skew and corrupted timestamps:
// negative durations are reported as 0, never negative.
func clampMs(ms int64) int64 {
	if ms < 0 {
		return 0
	}
	return ms
}
