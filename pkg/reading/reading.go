// Package reading provides the result types returned by the sampler.
package reading

import "time"

// Status records where a reading came from.
type Status string

const (
	// StatusOK means the primary source answered.
	StatusOK Status = "ok"
	// StatusFallback means the primary source was absent and the secondary answered.
	StatusFallback Status = "fallback"
	// StatusUnavailable means no source answered; the value is zero.
	StatusUnavailable Status = "unavailable"
)

// Bytes is a byte-count reading.
type Bytes struct {
	Value  uint64 `json:"value"`
	Source string `json:"source"`
	Status Status `json:"status"`
}

// Available reports whether any source produced the value.
func (b Bytes) Available() bool {
	return b.Status != StatusUnavailable
}

// Percent is a percentage reading.
type Percent struct {
	Value  float64 `json:"value"`
	Source string  `json:"source"`
	Status Status  `json:"status"`
	// Window is the sampling interval; zero for since-boot readings.
	Window time.Duration `json:"window,omitempty"`
}

// Available reports whether any source produced the value.
func (p Percent) Available() bool {
	return p.Status != StatusUnavailable
}

// UnavailableBytes returns a zero reading tagged with the failing source.
func UnavailableBytes(source string) Bytes {
	return Bytes{Source: source, Status: StatusUnavailable}
}

// UnavailablePercent returns a zero reading tagged with the failing source.
func UnavailablePercent(source string) Percent {
	return Percent{Source: source, Status: StatusUnavailable}
}

// Memory summarises system memory.
type Memory struct {
	Total       Bytes   `json:"total"`
	Available   Bytes   `json:"available"`
	Used        Bytes   `json:"used"`
	PercentUsed Percent `json:"percent_used"`
}

// Level is the health level of a reading against thresholds.
type Level string

const (
	LevelOK      Level = "ok"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelUnknown Level = "unknown"
)

// Thresholds defines warning and critical thresholds for percentages.
type Thresholds struct {
	WarnUtil float64
	CritUtil float64
}

// DefaultThresholds returns the default threshold values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		WarnUtil: 70.0,
		CritUtil: 90.0,
	}
}

// EvaluateUtilization returns the level for a utilization percentage.
func (t Thresholds) EvaluateUtilization(percent float64) Level {
	if percent >= t.CritUtil {
		return LevelError
	}
	if percent >= t.WarnUtil {
		return LevelWarning
	}
	return LevelOK
}

// Evaluate returns the level of p, LevelUnknown when it is unavailable.
func (t Thresholds) Evaluate(p Percent) Level {
	if !p.Available() {
		return LevelUnknown
	}
	return t.EvaluateUtilization(p.Value)
}
