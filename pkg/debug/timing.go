// Package debug provides call timing, tracing and raw counter dumps.
package debug

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/perfmon/pkg/channel"
)

var (
	debugTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	debugHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	debugDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// CallTiming records the duration of one method call.
type CallTiming struct {
	Method   string
	Duration time.Duration
	Err      bool
}

// Recorder collects call timings. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	timings []CallTiming
}

// Timings returns a copy of the recorded timings.
func (r *Recorder) Timings() []CallTiming {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]CallTiming(nil), r.timings...)
}

func (r *Recorder) add(t CallTiming) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timings = append(r.timings, t)
}

// Timed wraps h so every call is recorded under method.
func Timed(method string, h channel.Handler, rec *Recorder) channel.Handler {
	return func(ctx context.Context, call channel.Call) (v any, err error) {
		start := time.Now()
		defer func() {
			rec.add(CallTiming{Method: method, Duration: time.Since(start), Err: err != nil})
		}()
		return h(ctx, call)
	}
}

// Instrument wraps every handler currently registered on ch.
func Instrument(ch *channel.Channel, rec *Recorder) {
	for _, method := range ch.Methods() {
		h, err := ch.Lookup(method)
		if err != nil {
			continue
		}
		ch.Register(method, Timed(method, h, rec))
	}
}

// TimingReport prints a styled timing summary.
func TimingReport(w io.Writer, timings []CallTiming) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, debugTitle.Render("Call Timing Report"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 50)))
	fmt.Fprintf(w, "  %s  %s\n",
		debugHeader.Render("METHOD                   "),
		debugHeader.Render("DURATION    "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 50)))

	var total time.Duration
	for _, t := range timings {
		suffix := ""
		if t.Err {
			suffix = debugDim.Render(" (error)")
		}
		fmt.Fprintf(w, "  %-26s %v%s\n", t.Method, t.Duration, suffix)
		total += t.Duration
	}
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 50)))
	fmt.Fprintf(w, "  %-26s %v\n",
		lipgloss.NewStyle().Bold(true).Render("TOTAL"), total)
}
