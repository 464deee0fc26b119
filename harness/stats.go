package harness

import (
	"sort"
	"time"
)

// Stats summarizes the time-to-exposure measurements of a trial set.
// Durations are in seconds. Mean, Median, Min, and Max cover exposed
// trials only.
type Stats struct {
	Trials int
	Passes int // trials that exposed the authorization gap
	Fails  int // trials that exhausted their op budget without exposure

	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// ComputeStats aggregates a trial set into TTE statistics.
func ComputeStats(results []TrialResult) Stats {
	stats := Stats{Trials: len(results)}

	durations := make([]float64, 0, len(results))
	for _, result := range results {
		if !result.Exposed {
			stats.Fails++
			continue
		}
		stats.Passes++
		durations = append(durations, result.TTE.Seconds())
	}

	if len(durations) == 0 {
		return stats
	}

	sort.Float64s(durations)
	stats.Min = durations[0]
	stats.Max = durations[len(durations)-1]

	var sum float64
	for _, d := range durations {
		sum += d
	}
	stats.Mean = sum / float64(len(durations))

	mid := len(durations) / 2
	if len(durations)%2 == 1 {
		stats.Median = durations[mid]
	} else {
		stats.Median = (durations[mid-1] + durations[mid]) / 2
	}

	return stats
}

// MeanOps returns the average number of operations needed for exposure.
func MeanOps(results []TrialResult) float64 {
	var sum, n float64
	for _, result := range results {
		if result.Exposed {
			sum += float64(result.Ops)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// TotalDuration sums the TTE of all exposed trials.
func TotalDuration(results []TrialResult) time.Duration {
	var total time.Duration
	for _, result := range results {
		if result.Exposed {
			total += result.TTE
		}
	}
	return total
}
