package baseline

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/perfmon/pkg/reading"
)

// Severity indicates the magnitude of a drift.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
	SeverityRegress  Severity = "regression"
	// SeverityLost means the reading was available in the baseline and is not now.
	SeverityLost Severity = "lost"
)

// Comparison holds the drift of one row.
type Comparison struct {
	Name        string   `json:"name"`
	BaselineVal float64  `json:"baseline"`
	CurrentVal  float64  `json:"current"`
	DeltaPct    float64  `json:"delta_pct"`
	Severity    Severity `json:"severity"`
}

// Regression reports whether c should fail a comparison.
func (c Comparison) Regression() bool {
	return c.Severity == SeverityRegress || c.Severity == SeverityLost
}

var (
	blTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	blHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)
	blDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	blOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	blWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	blErr    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	blMinor  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

// Compare matches rows by name and calculates drift. Rows unavailable in the
// baseline are skipped.
func Compare(b *Baseline, current []reading.Row) []Comparison {
	base := make(map[string]reading.Row, len(b.Rows))
	for _, r := range b.Rows {
		base[r.Name] = r
	}

	var out []Comparison
	for _, cur := range current {
		old, ok := base[cur.Name]
		if !ok || old.Status == reading.StatusUnavailable {
			continue
		}

		c := Comparison{Name: cur.Name, BaselineVal: old.Raw, CurrentVal: cur.Raw}
		if cur.Status == reading.StatusUnavailable {
			c.Severity = SeverityLost
			out = append(out, c)
			continue
		}

		if old.Raw != 0 {
			c.DeltaPct = (cur.Raw - old.Raw) / math.Abs(old.Raw) * 100
		} else if cur.Raw != 0 {
			c.DeltaPct = 100
		}
		c.Severity = classifySeverity(cur.Name, c.DeltaPct)
		out = append(out, c)
	}
	return out
}

// classifySeverity grades a delta. Growth is a regression for every row
// except available memory, where shrinking is.
func classifySeverity(name string, deltaPct float64) Severity {
	abs := math.Abs(deltaPct)
	switch {
	case abs < 5:
		return SeverityNone
	case abs < 15:
		return SeverityMinor
	case abs < 30:
		return SeverityModerate
	}

	worse := deltaPct > 0
	if name == reading.RowAvailable {
		worse = deltaPct < 0
	}
	if worse {
		return SeverityRegress
	}
	return SeverityMajor
}

// RenderComparison outputs a styled comparison table. It returns the number
// of regressions.
func RenderComparison(w io.Writer, b *Baseline, comparisons []Comparison) int {
	fmt.Fprintln(w, blTitle.Render("Baseline Comparison"))
	fmt.Fprintln(w, blDim.Render(strings.Repeat("═", 80)))
	fmt.Fprintf(w, "Comparing against %s (from %s on %s) %s\n\n",
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("%q", b.Name)),
		blDim.Render(b.Timestamp.Format("2006-01-02 15:04:05")),
		b.Hostname,
		blDim.Render(b.ID))

	fmt.Fprintf(w, "  %s %s %s %s %s\n",
		blHeader.Render("READING                 "),
		blHeader.Render("BASELINE    "),
		blHeader.Render("CURRENT     "),
		blHeader.Render("DELTA    "),
		blHeader.Render("SEVERITY  "))
	fmt.Fprintln(w, "  "+blDim.Render(strings.Repeat("─", 80)))

	regressions := 0
	for _, c := range comparisons {
		var sev string
		switch c.Severity {
		case SeverityRegress:
			sev = blErr.Render("REGRESSION")
		case SeverityLost:
			sev = blErr.Render("LOST")
		case SeverityMajor:
			sev = blWarn.Render("MAJOR")
		case SeverityModerate:
			sev = blWarn.Render("moderate")
		case SeverityMinor:
			sev = blMinor.Render("minor")
		default:
			sev = blOK.Render("none")
		}
		if c.Regression() {
			regressions++
		}

		fmt.Fprintf(w, "  %-25s %-14.2f %-14.2f %-10s %s\n",
			c.Name, c.BaselineVal, c.CurrentVal, fmt.Sprintf("%+.1f%%", c.DeltaPct), sev)
	}

	fmt.Fprintln(w)
	if regressions > 0 {
		fmt.Fprintf(w, "  %s\n", blErr.Render(fmt.Sprintf("%d potential regressions detected.", regressions)))
	} else {
		fmt.Fprintf(w, "  %s\n", blOK.Render("No significant regressions detected."))
	}
	return regressions
}
