package debug

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// TraceLogger writes one line per log entry in a compact trace format. It is
// a logrus hook, so every component logging through the shared logger shows
// up in the trace.
type TraceLogger struct {
	mu     sync.Mutex
	writer io.Writer
	now    func() time.Time
}

// NewTraceLogger creates a trace logger writing to w.
func NewTraceLogger(w io.Writer) *TraceLogger {
	return &TraceLogger{writer: w, now: time.Now}
}

// Attach adds the trace hook to logger and lowers it to trace level. The
// logger's own output is discarded so entries are not printed twice.
func (t *TraceLogger) Attach(logger *logrus.Logger) {
	logger.AddHook(t)
	logger.SetLevel(logrus.TraceLevel)
	logger.SetOutput(io.Discard)
}

// Levels implements logrus.Hook.
func (t *TraceLogger) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (t *TraceLogger) Fire(e *logrus.Entry) error {
	op := "-"
	if v, ok := e.Data["op"]; ok {
		op = fmt.Sprint(v)
	} else if v, ok := e.Data["method"]; ok {
		op = fmt.Sprint(v)
	}

	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		if k != "op" && k != "method" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = fmt.Sprintf("%s=%v", k, e.Data[k])
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.writer, "[TRACE %s] %s %s: %s %s\n",
		e.Time.Format("15:04:05.000"), strings.ToUpper(e.Level.String()), op, e.Message, strings.Join(fields, " "))
	return err
}

// LogValue records a raw value read from a specific source.
func (t *TraceLogger) LogValue(op, source, raw string, parsed float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE %s] VALUE %s: source=%s raw=%q parsed=%.4f\n",
		t.now().Format("15:04:05.000"), op, source, raw, parsed)
}
