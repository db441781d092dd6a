// Package filter reduces the sorted, trimmed samples of one field to the
// single value reported in a result.
package filter

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/ericogr/yadl/pkg/config"
)

// Func reduces a non-empty list sorted in ascending order.
type Func func(sorted []float64) (float64, error)

var registry = map[string]Func{
	"median": Median,
	"mean":   Mean,
	"mode":   Mode,
	"sum":    Sum,
	"min":    Min,
	"max":    Max,
	"range":  Range,
}

// Names lists the supported filters.
func Names() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the filter called name (case-insensitive). An empty name
// selects the median.
func Lookup(name string) (Func, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Median, nil
	}
	f, ok := registry[name]
	if !ok {
		return nil, config.Errorf("filter", "unknown filter %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f, nil
}

var errEmpty = errors.New("no samples to filter")

// Median is the lower middle value: index (n-1)/2.
func Median(sorted []float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, errEmpty
	}
	return sorted[(len(sorted)-1)/2], nil
}

func Mean(sorted []float64) (float64, error) {
	return stats.Mean(sorted)
}

// Mode returns the value of the longest run of equal values. Of runs with the
// same length, the lowest value wins.
func Mode(sorted []float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, errEmpty
	}
	best, bestLen := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestLen {
			best, bestLen = sorted[i], j-i
		}
		i = j
	}
	return best, nil
}

func Sum(sorted []float64) (float64, error) {
	return stats.Sum(sorted)
}

func Min(sorted []float64) (float64, error) {
	return stats.Min(sorted)
}

func Max(sorted []float64) (float64, error) {
	return stats.Max(sorted)
}

// Range is max - min.
func Range(sorted []float64) (float64, error) {
	lo, err := stats.Min(sorted)
	if err != nil {
		return 0, err
	}
	hi, err := stats.Max(sorted)
	if err != nil {
		return 0, err
	}
	return hi - lo, nil
}
