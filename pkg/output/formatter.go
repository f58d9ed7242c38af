// Package output renders reading snapshots.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/danpilch/perfmon/pkg/reading"
)

// Format represents the output format type.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatAI    Format = "ai"
	FormatTSV   Format = "tsv"
)

// ParseFormat validates a format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case FormatTable, FormatJSON, FormatAI, FormatTSV:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q", name)
	}
}

// Summary counts rows by level.
type Summary struct {
	OK       int `json:"ok"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
	Unknown  int `json:"unknown"`
}

// Summarize counts the levels of rows.
func Summarize(rows []reading.Row) Summary {
	var s Summary
	for _, r := range rows {
		switch r.Level {
		case reading.LevelOK:
			s.OK++
		case reading.LevelWarning:
			s.Warnings++
		case reading.LevelError:
			s.Errors++
		default:
			s.Unknown++
		}
	}
	return s
}

// Formatter handles output formatting.
type Formatter struct {
	format     Format
	writer     io.Writer
	thresholds reading.Thresholds
	sparkline  *SparklineTracker
	showScore  bool
}

// NewFormatter creates a new formatter.
func NewFormatter(format Format, writer io.Writer) *Formatter {
	return &Formatter{
		format:     format,
		writer:     writer,
		thresholds: reading.DefaultThresholds(),
	}
}

// SetThresholds overrides the utilization thresholds.
func (f *Formatter) SetThresholds(t reading.Thresholds) {
	f.thresholds = t
}

// SetSparklineTracker enables sparkline tracking for watch mode.
func (f *Formatter) SetSparklineTracker(s *SparklineTracker) {
	f.sparkline = s
}

// SetShowScore enables health score display.
func (f *Formatter) SetShowScore(show bool) {
	f.showScore = show
}

// Render outputs the snapshot in the configured format.
func (f *Formatter) Render(snap reading.Snapshot) error {
	rows := snap.Rows(f.thresholds)

	if f.sparkline != nil {
		for _, r := range rows {
			if strings.HasPrefix(r.Name, "cpu.") || r.Name == reading.RowMemoryUsed {
				f.sparkline.SetBounds(r.Name, 0, 100)
			}
			f.sparkline.Record(r.Name, r.Raw)
		}
	}

	switch f.format {
	case FormatJSON:
		return f.renderJSON(snap, rows)
	case FormatAI:
		return f.renderAI(rows)
	case FormatTSV:
		return f.renderTSV(rows)
	default:
		return f.renderTable(rows)
	}
}

func (f *Formatter) renderJSON(snap reading.Snapshot, rows []reading.Row) error {
	out := struct {
		Snapshot reading.Snapshot `json:"snapshot"`
		Rows     []reading.Row    `json:"rows"`
		Summary  Summary          `json:"summary"`
	}{
		Snapshot: snap,
		Rows:     rows,
		Summary:  Summarize(rows),
	}

	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

var levelStyles = map[reading.Level]lipgloss.Style{
	reading.LevelOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true), // Green
	reading.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true), // Yellow
	reading.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
	reading.LevelUnknown: lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Bold(true),  // Gray
}

func (f *Formatter) renderTable(rows []reading.Row) error {
	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62")).
		Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	fmt.Fprintln(f.writer, titleStyle.Render("Performance Readings"))
	fmt.Fprintln(f.writer, strings.Repeat("═", 60))
	fmt.Fprintln(f.writer)

	hasSparklines := f.sparkline != nil
	data := make([][]string, len(rows))
	for i, r := range rows {
		row := []string{
			r.Name,
			r.Value,
			r.Source,
			string(r.Status),
			levelStyles[r.Level].Render(strings.ToUpper(string(r.Level))),
		}
		if hasSparklines {
			row = append(row, f.sparkline.Sparkline(r.Name))
		}
		data[i] = row
	}

	headers := []string{"READING", "VALUE", "SOURCE", "STATUS", "LEVEL"}
	if hasSparklines {
		headers = append(headers, "TREND")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(data...)

	fmt.Fprintln(f.writer, t)
	fmt.Fprintln(f.writer)
	f.renderSummary(Summarize(rows))

	if f.showScore {
		score := HealthScore(rows)
		scoreStyle := levelStyles[reading.LevelOK]
		if score < 80 {
			scoreStyle = levelStyles[reading.LevelWarning]
		}
		if score < 50 {
			scoreStyle = levelStyles[reading.LevelError]
		}
		fmt.Fprintf(f.writer, "Health Score: %s\n",
			scoreStyle.Render(fmt.Sprintf("%d/100 (%s)", score, ScoreLabel(score))))
	}
	return nil
}

func (f *Formatter) renderSummary(summary Summary) {
	var parts []string
	if summary.Errors > 0 {
		parts = append(parts, levelStyles[reading.LevelError].Render(fmt.Sprintf("%d critical", summary.Errors)))
	}
	if summary.Warnings > 0 {
		parts = append(parts, levelStyles[reading.LevelWarning].Render(fmt.Sprintf("%d warnings", summary.Warnings)))
	}
	if summary.Unknown > 0 {
		parts = append(parts, levelStyles[reading.LevelUnknown].Render(fmt.Sprintf("%d unavailable", summary.Unknown)))
	}

	if len(parts) == 0 {
		fmt.Fprintln(f.writer, levelStyles[reading.LevelOK].Render("All readings nominal"))
		return
	}
	fmt.Fprintf(f.writer, "Summary: %s\n", strings.Join(parts, ", "))
}

// renderAI outputs rows as markdown for pasting into an LLM prompt.
func (f *Formatter) renderAI(rows []reading.Row) error {
	summary := Summarize(rows)
	if summary.Errors == 0 && summary.Warnings == 0 && summary.Unknown == 0 {
		fmt.Fprintln(f.writer, "# Device Performance: OK")
	} else {
		fmt.Fprintln(f.writer, "# Device Performance: Issues Detected")
		fmt.Fprintf(f.writer, "\n**Status:** %d critical, %d warnings, %d unavailable, %d ok\n",
			summary.Errors, summary.Warnings, summary.Unknown, summary.OK)
	}
	fmt.Fprintln(f.writer)

	fmt.Fprintln(f.writer, "| Reading | Value | Source | Status |")
	fmt.Fprintln(f.writer, "|---------|-------|--------|--------|")
	for _, r := range rows {
		val := r.Value
		if r.Level != reading.LevelOK {
			val = fmt.Sprintf("**%s**", val)
		}
		fmt.Fprintf(f.writer, "| %s | %s | %s | %s |\n", r.Name, val, r.Source, r.Status)
	}

	suggestions := GetDrillDownSuggestions(rows)
	if len(suggestions) > 0 {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, "## Suggested Next Steps")
		fmt.Fprintln(f.writer)
		for _, r := range rows {
			suggs, ok := suggestions[r.Name]
			if !ok {
				continue
			}
			fmt.Fprintf(f.writer, "**%s:**\n", r.Name)
			for _, s := range suggs {
				fmt.Fprintf(f.writer, "- `%s` - %s\n", s.Command, s.Reason)
			}
		}
	}
	return nil
}

func (f *Formatter) renderTSV(rows []reading.Row) error {
	fmt.Fprintln(f.writer, "READING\tVALUE\tRAW_VALUE\tSOURCE\tSTATUS\tLEVEL")
	for _, r := range rows {
		fmt.Fprintf(f.writer, "%s\t%s\t%.4f\t%s\t%s\t%s\n",
			r.Name, r.Value, r.Raw, r.Source, r.Status, r.Level)
	}
	return nil
}
