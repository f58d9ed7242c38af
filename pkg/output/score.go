package output

import "github.com/danpilch/perfmon/pkg/reading"

var levelPenalty = map[reading.Level]int{
	reading.LevelError:   15,
	reading.LevelWarning: 5,
	reading.LevelUnknown: 3,
}

// fallbackPenalty is taken once per row answered by a secondary source.
const fallbackPenalty = 1

// HealthScore rates a snapshot from 0 to 100 by subtracting a penalty per
// row level, plus a small one for each fallback reading.
func HealthScore(rows []reading.Row) int {
	score := 100
	for _, r := range rows {
		score -= levelPenalty[r.Level]
		if r.Status == reading.StatusFallback {
			score -= fallbackPenalty
		}
	}
	return max(score, 0)
}

// ScoreLabel names a score band.
func ScoreLabel(score int) string {
	switch {
	case score >= 80:
		return "Healthy"
	case score >= 50:
		return "Degraded"
	default:
		return "Critical"
	}
}
