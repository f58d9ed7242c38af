package output

import (
	"strings"

	"github.com/danpilch/perfmon/pkg/reading"
)

// Suggestion represents a diagnostic next-step.
type Suggestion struct {
	Tool    string
	Command string
	Reason  string
}

// DrillDown returns diagnostic suggestions for a row that is not ok.
func DrillDown(r reading.Row) []Suggestion {
	if r.Level == reading.LevelOK {
		return nil
	}
	if r.Level == reading.LevelUnknown {
		return []Suggestion{
			{"perfmon", "perfmon check", "Compare the failing source against independent sources"},
			{"perfmon", "perfmon call --log-level debug " + methodFor(r.Name), "Log why the source failed"},
		}
	}

	switch {
	case strings.HasPrefix(r.Name, "cpu."):
		return []Suggestion{
			{"perfmon", "perfmon watch --cpu-mode interval", "Cumulative readings hide recent load; sample per interval"},
			{"top", "top -o %CPU", "Identify top CPU consumers"},
		}
	case r.Name == reading.RowMemoryUsed:
		return []Suggestion{
			{"perfmon", "perfmon call getMemoryInfo", "Break down total, available and used memory"},
			{"vmstat", "vmstat 1 5", "Monitor swap and reclaim activity"},
		}
	}
	return nil
}

func methodFor(row string) string {
	switch {
	case strings.HasPrefix(row, "cpu."):
		return "getAndroidCPUUsage"
	case row == reading.RowMemoryUsage:
		return "getAndroidMemoryUsage"
	case row == reading.RowTotalMemory:
		return "getAndroidTotalMemory"
	default:
		return "getMemoryInfo"
	}
}

// GetDrillDownSuggestions returns suggestions keyed by row name.
func GetDrillDownSuggestions(rows []reading.Row) map[string][]Suggestion {
	results := make(map[string][]Suggestion)
	for _, r := range rows {
		if s := DrillDown(r); len(s) > 0 {
			results[r.Name] = s
		}
	}
	return results
}
