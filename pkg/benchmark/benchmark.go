// Package benchmark measures the latency and allocation cost of polling
// channel methods.
package benchmark

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/perfmon/pkg/channel"
	"github.com/danpilch/perfmon/pkg/reading"
)

// Options configures a benchmark run.
type Options struct {
	Iterations int
	Warmup     int
}

// DefaultOptions returns sensible benchmark defaults.
func DefaultOptions() Options {
	return Options{
		Iterations: 200,
		Warmup:     5,
	}
}

// Result holds benchmark results for a single method.
type Result struct {
	Method      string          `json:"method"`
	Latencies   []time.Duration `json:"-"`
	P50         time.Duration   `json:"p50"`
	P95         time.Duration   `json:"p95"`
	P99         time.Duration   `json:"p99"`
	Errors      int             `json:"errors"`
	AllocsPerOp float64         `json:"allocs_per_op"`
	BytesPerOp  float64         `json:"bytes_per_op"`
	// ValueStdDev is the spread of scalar results. Cumulative CPU readings
	// barely move; interval readings do.
	ValueStdDev float64 `json:"value_stddev"`
}

// Overhead holds the tool's own resource usage.
type Overhead struct {
	AllocBytes uint64 `json:"alloc_bytes"`
	AllocCount uint64 `json:"alloc_count"`
	GCPauses   uint32 `json:"gc_pauses"`
}

var (
	bmTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	bmHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	bmDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Run invokes each method on ch repeatedly. It stops early when ctx is done
// and reports the iterations completed so far.
func Run(ctx context.Context, ch *channel.Channel, methods []string, opts Options) []Result {
	var results []Result

	for _, method := range methods {
		call := channel.Call{Method: method}
		for i := 0; i < opts.Warmup; i++ {
			ch.Invoke(ctx, call)
		}

		latencies := make([]time.Duration, 0, opts.Iterations)
		var values []float64
		errs := 0

		var before, after runtime.MemStats
		runtime.ReadMemStats(&before)
		for i := 0; i < opts.Iterations && ctx.Err() == nil; i++ {
			start := time.Now()
			res := ch.Invoke(ctx, call)
			latencies = append(latencies, time.Since(start))

			if res.Outcome != channel.OutcomeSuccess {
				errs++
				continue
			}
			if v, ok := scalar(res.Value); ok {
				values = append(values, v)
			}
		}
		runtime.ReadMemStats(&after)

		sort.Slice(latencies, func(i, j int) bool {
			return latencies[i] < latencies[j]
		})

		r := Result{
			Method:      method,
			Latencies:   latencies,
			P50:         percentile(latencies, 0.50),
			P95:         percentile(latencies, 0.95),
			P99:         percentile(latencies, 0.99),
			Errors:      errs,
			ValueStdDev: stddev(values),
		}
		if n := float64(len(latencies)); n > 0 {
			r.AllocsPerOp = float64(after.Mallocs-before.Mallocs) / n
			r.BytesPerOp = float64(after.TotalAlloc-before.TotalAlloc) / n
		}
		results = append(results, r)
	}

	return results
}

func scalar(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case map[string]any:
		if t, ok := x["totalUsage"].(float64); ok {
			return t, true
		}
		if t, ok := x["percentUsed"].(float64); ok {
			return t, true
		}
	}
	return 0, false
}

// MeasureOverhead returns the process's cumulative allocation counters.
func MeasureOverhead() Overhead {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Overhead{
		AllocBytes: m.TotalAlloc,
		AllocCount: m.Mallocs,
		GCPauses:   m.NumGC,
	}
}

// RenderResults outputs styled benchmark results.
func RenderResults(w io.Writer, results []Result, overhead Overhead) {
	fmt.Fprintln(w, bmTitle.Render("Method Benchmark Results"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("═", 90)))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s %s %s %s %s %s\n",
		bmHeader.Render("METHOD                 "),
		bmHeader.Render("P50       "),
		bmHeader.Render("P95       "),
		bmHeader.Render("P99       "),
		bmHeader.Render("ALLOCS/OP"),
		bmHeader.Render("ERRORS"),
		bmHeader.Render("VALUE STDDEV"))
	fmt.Fprintln(w, "  "+bmDim.Render(strings.Repeat("─", 90)))

	for _, r := range results {
		fmt.Fprintf(w, "  %-24s %-11v %-11v %-11v %-10.1f %-7d %.4f\n",
			r.Method, r.P50, r.P95, r.P99, r.AllocsPerOp, r.Errors, r.ValueStdDev)
	}

	bold := lipgloss.NewStyle().Bold(true)
	fmt.Fprintln(w)
	fmt.Fprintln(w, bmTitle.Render("Tool Overhead"))
	fmt.Fprintln(w, bmDim.Render(strings.Repeat("─", 40)))
	fmt.Fprintf(w, "  Memory allocated: %s\n", bold.Render(reading.FormatBytes(overhead.AllocBytes)))
	fmt.Fprintf(w, "  Allocations:      %s\n", bold.Render(fmt.Sprintf("%d", overhead.AllocCount)))
	fmt.Fprintf(w, "  GC pauses:        %s\n", bold.Render(fmt.Sprintf("%d", overhead.GCPauses)))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	return sorted[max(0, min(idx, len(sorted)-1))]
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum, sumSq float64
	for _, v := range values {
		sum += v
		sumSq += v * v
	}
	n := float64(len(values))
	mean := sum / n
	return math.Sqrt(max(0, sumSq/n-mean*mean))
}
