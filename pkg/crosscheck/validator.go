// Package crosscheck validates sampler readings against independent sources.
package crosscheck

import (
	"math"
	"sort"
)

// ValidationStatus indicates the confidence level of a cross-checked metric.
type ValidationStatus string

const (
	StatusValid    ValidationStatus = "valid"
	StatusSuspect  ValidationStatus = "suspect"
	StatusConflict ValidationStatus = "conflict"
	// StatusSkipped means fewer than two sources answered.
	StatusSkipped ValidationStatus = "skipped"
)

// Source represents a single metric value from a specific source.
type Source struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// ValidationResult holds the cross-check outcome for a metric.
type ValidationResult struct {
	Metric       string           `json:"metric"`
	Sources      []Source         `json:"sources"`
	Consensus    float64          `json:"consensus"`
	MaxDeviation float64          `json:"max_deviation"`
	Status       ValidationStatus `json:"status"`
}

// Validator cross-checks metrics from multiple sources.
type Validator struct {
	SuspectThreshold  float64 // deviation % to mark suspect (default 5%)
	ConflictThreshold float64 // deviation % to mark conflict (default 20%)
	// Floor is added to the consensus before computing relative deviation,
	// so near-zero percentages do not flap between valid and conflict.
	Floor float64
}

// NewValidator creates a validator with default thresholds.
func NewValidator() *Validator {
	return &Validator{
		SuspectThreshold:  5.0,
		ConflictThreshold: 20.0,
	}
}

// CrossCheck compares values of one metric from several sources. The
// consensus is the median; deviation is relative to it.
func (v *Validator) CrossCheck(metric string, sources []Source) ValidationResult {
	result := ValidationResult{
		Metric:  metric,
		Sources: sources,
		Status:  StatusSkipped,
	}
	if len(sources) == 0 {
		return result
	}

	values := make([]float64, len(sources))
	for i, s := range sources {
		values[i] = s.Value
	}
	result.Consensus = median(values)
	if len(sources) == 1 {
		return result
	}

	base := result.Consensus + v.Floor
	for _, val := range values {
		if base == 0 {
			if val != 0 {
				result.MaxDeviation = 100.0
			}
			continue
		}
		result.MaxDeviation = max(result.MaxDeviation, math.Abs(val-result.Consensus)/base*100)
	}

	switch {
	case result.MaxDeviation >= v.ConflictThreshold:
		result.Status = StatusConflict
	case result.MaxDeviation >= v.SuspectThreshold:
		result.Status = StatusSuspect
	default:
		result.Status = StatusValid
	}
	return result
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
