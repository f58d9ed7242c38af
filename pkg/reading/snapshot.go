package reading

import (
	"fmt"
	"strings"
	"time"
)

// Source is anything that produces the full set of readings.
type Source interface {
	MemoryUsage() Bytes
	CPUUsage() Percent
	TotalMemory() Bytes
	MemoryInfo() Memory
	PerCoreCPU() []Percent
}

// Snapshot is one pass over every reading.
type Snapshot struct {
	Time        time.Time `json:"time"`
	MemoryUsage Bytes     `json:"memory_usage"`
	CPUUsage    Percent   `json:"cpu_usage"`
	TotalMemory Bytes     `json:"total_memory"`
	Memory      Memory    `json:"memory"`
	Cores       []Percent `json:"cores,omitempty"`
}

// Take reads every value from s once.
func Take(s Source, now time.Time) Snapshot {
	return Snapshot{
		Time:        now,
		MemoryUsage: s.MemoryUsage(),
		CPUUsage:    s.CPUUsage(),
		TotalMemory: s.TotalMemory(),
		Memory:      s.MemoryInfo(),
		Cores:       s.PerCoreCPU(),
	}
}

// Row is a flattened reading used for display and comparison.
type Row struct {
	Name   string  `json:"name"`
	Value  string  `json:"value"`
	Raw    float64 `json:"raw"`
	Source string  `json:"source"`
	Status Status  `json:"status"`
	Level  Level   `json:"level"`
}

// Row names.
const (
	RowMemoryUsage = "memory.process"
	RowTotalMemory = "memory.total"
	RowAvailable   = "memory.available"
	RowMemoryUsed  = "memory.used_percent"
	RowCPUUsage    = "cpu.usage"
)

// Rows flattens the snapshot. Percentages are leveled against t; byte
// counts are LevelOK unless unavailable.
func (s Snapshot) Rows(t Thresholds) []Row {
	rows := []Row{
		bytesRow(RowMemoryUsage, s.MemoryUsage),
		percentRow(RowCPUUsage, s.CPUUsage, t),
	}
	for _, c := range s.Cores {
		rows = append(rows, percentRow("cpu."+CoreName(c.Source), c, t))
	}
	return append(rows,
		bytesRow(RowTotalMemory, s.TotalMemory),
		bytesRow(RowAvailable, s.Memory.Available),
		percentRow(RowMemoryUsed, s.Memory.PercentUsed, t),
	)
}

func bytesRow(name string, b Bytes) Row {
	level := LevelOK
	if !b.Available() {
		level = LevelUnknown
	}
	return Row{
		Name:   name,
		Value:  FormatBytes(b.Value),
		Raw:    float64(b.Value),
		Source: b.Source,
		Status: b.Status,
		Level:  level,
	}
}

func percentRow(name string, p Percent, t Thresholds) Row {
	value := fmt.Sprintf("%.1f%%", p.Value)
	if p.Window > 0 {
		value += fmt.Sprintf(" /%s", p.Window.Round(time.Millisecond))
	}
	return Row{
		Name:   name,
		Value:  value,
		Raw:    p.Value,
		Source: p.Source,
		Status: p.Status,
		Level:  t.Evaluate(p),
	}
}

// CoreName turns a per-core source such as "/proc/stat:cpu3" into "cpu3".
func CoreName(source string) string {
	if i := strings.LastIndexByte(source, ':'); i >= 0 {
		return source[i+1:]
	}
	return source
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
