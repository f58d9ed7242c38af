package crosscheck

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/perfmon/pkg/reading"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	validStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	suspectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	conflictStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Result is a complete cross-check run.
type Result struct {
	Validations []ValidationResult `json:"validations"`
	Sanity      []SanityResult     `json:"sanity"`
}

// Failed reports whether any validation conflicts or any sanity check failed.
func (r Result) Failed() bool {
	for _, v := range r.Validations {
		if v.Status == StatusConflict {
			return true
		}
	}
	for _, s := range r.Sanity {
		if !s.Passed {
			return true
		}
	}
	return false
}

// Run compares snap against the probe answers and runs the sanity checks.
// The sampler's own value is the first source of every metric. A CPU
// reading with a sampling window is not comparable with since-boot sources
// and is skipped.
func Run(v *Validator, snap reading.Snapshot, probes []Probe) Result {
	gathered := Gather(probes)

	own := map[string]Source{}
	if snap.TotalMemory.Available() {
		own[reading.RowTotalMemory] = Source{Name: snap.TotalMemory.Source, Value: float64(snap.TotalMemory.Value), Unit: "bytes"}
	}
	if snap.Memory.PercentUsed.Available() {
		own[reading.RowMemoryUsed] = Source{Name: snap.Memory.PercentUsed.Source, Value: snap.Memory.PercentUsed.Value, Unit: "%"}
	}
	if snap.CPUUsage.Available() && snap.CPUUsage.Window == 0 {
		own[reading.RowCPUUsage] = Source{Name: snap.CPUUsage.Source, Value: snap.CPUUsage.Value, Unit: "%"}
	}

	metrics := make([]string, 0, len(gathered))
	for m := range gathered {
		if m != MetricProcessRSS {
			metrics = append(metrics, m)
		}
	}
	sort.Strings(metrics)

	var res Result
	for _, m := range metrics {
		self, ok := own[m]
		if !ok {
			continue
		}
		sources := append([]Source{self}, gathered[m]...)
		res.Validations = append(res.Validations, v.CrossCheck(m, sources))
	}

	var rss float64
	if s := gathered[MetricProcessRSS]; len(s) > 0 {
		rss = s[0].Value
	}
	res.Sanity = RunSanityChecks(snap, rss)
	return res
}

// Report outputs a result as styled text.
func Report(w io.Writer, r Result) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("Cross-Check Validation Report"))
	fmt.Fprintln(w, dimStyle.Render(strings.Repeat("═", 60)))

	if len(r.Validations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Reading Cross-Checks"))
		fmt.Fprintf(w, "  %-25s %-14s %-10s %-10s %s\n",
			headerStyle.Render("READING"), headerStyle.Render("CONSENSUS"),
			headerStyle.Render("MAX DEV"), headerStyle.Render("STATUS"),
			headerStyle.Render("SOURCES"))
		fmt.Fprintln(w, "  "+dimStyle.Render(strings.Repeat("─", 80)))

		for _, v := range r.Validations {
			names := make([]string, len(v.Sources))
			for i, s := range v.Sources {
				names[i] = s.Name + "=" + formatValue(s.Value, s.Unit)
			}
			var status string
			switch v.Status {
			case StatusConflict:
				status = conflictStyle.Render("CONFLICT")
			case StatusSuspect:
				status = suspectStyle.Render("SUSPECT")
			case StatusSkipped:
				status = dimStyle.Render("SKIPPED")
			default:
				status = validStyle.Render("VALID")
			}
			unit := ""
			if len(v.Sources) > 0 {
				unit = v.Sources[0].Unit
			}
			fmt.Fprintf(w, "  %-25s %-14s %-10s %-10s %s\n",
				v.Metric, formatValue(v.Consensus, unit), fmt.Sprintf("%.1f%%", v.MaxDeviation), status,
				dimStyle.Render(strings.Join(names, ", ")))
		}
	}

	if len(r.Sanity) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Sanity Checks"))
		failed := 0
		for _, s := range r.Sanity {
			icon := validStyle.Render("PASS")
			if !s.Passed {
				icon = conflictStyle.Render("FAIL")
				failed++
			}
			fmt.Fprintf(w, "  [%s] %-40s %s\n", icon, s.Check, dimStyle.Render(s.Details))
		}
		fmt.Fprintln(w)
		if failed == 0 {
			fmt.Fprintf(w, "  %s\n", validStyle.Render(fmt.Sprintf("All %d sanity checks passed.", len(r.Sanity))))
		} else {
			fmt.Fprintf(w, "  %s\n", conflictStyle.Render(fmt.Sprintf("%d of %d sanity checks failed.", failed, len(r.Sanity))))
		}
	}
}

func formatValue(v float64, unit string) string {
	if unit == "bytes" {
		return reading.FormatBytes(uint64(v))
	}
	return fmt.Sprintf("%.1f%s", v, unit)
}

// ReportJSON outputs a result as JSON.
func ReportJSON(w io.Writer, r Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
