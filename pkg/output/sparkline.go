package output

import (
	"strings"
	"sync"
)

// SparklineTracker keeps a rolling window of row values for watch mode.
type SparklineTracker struct {
	mu     sync.Mutex
	data   map[string][]float64
	bounds map[string][2]float64
	maxLen int
}

// NewSparklineTracker creates a tracker with a fixed window size.
func NewSparklineTracker(maxLen int) *SparklineTracker {
	if maxLen < 1 {
		maxLen = 20
	}
	return &SparklineTracker{
		data:   make(map[string][]float64),
		bounds: make(map[string][2]float64),
		maxLen: maxLen,
	}
}

// SetBounds pins the scale of key to [lo, hi] instead of the window's own
// min and max. Percent rows use 0..100 so a flat line stays low.
func (s *SparklineTracker) SetBounds(key string, lo, hi float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bounds[key] = [2]float64{lo, hi}
}

// Record adds a new value for key.
func (s *SparklineTracker) Record(key string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := append(s.data[key], value)
	if len(values) > s.maxLen {
		values = values[len(values)-s.maxLen:]
	}
	s.data[key] = values
}

// Values returns a copy of the window for key.
func (s *SparklineTracker) Values(key string) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.data[key]...)
}

// Sparkline returns a Unicode sparkline for key.
func (s *SparklineTracker) Sparkline(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := s.data[key]
	if len(values) == 0 {
		return ""
	}
	if b, ok := s.bounds[key]; ok {
		return renderSparkline(values, b[0], b[1])
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return renderSparkline(values, lo, hi)
}

// ▁ through █
var sparkBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func renderSparkline(values []float64, lo, hi float64) string {
	var b strings.Builder
	span := hi - lo
	top := len(sparkBlocks) - 1
	for _, v := range values {
		idx := 0
		if span > 0 {
			idx = int((v - lo) / span * float64(top))
		}
		b.WriteRune(sparkBlocks[max(0, min(idx, top))])
	}
	return b.String()
}
