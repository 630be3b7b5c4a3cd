package workload

import (
	"time"

	"example.com/shiftlog/internal/domain"
)

// Heatmap counts overlapping activities per weekday (0=Sunday) and hour of
// day. Values are unbounded counts; SeverityLevel maps them to the six
// presentation buckets.
type Heatmap [7][24]int

// Summary is the admin workload view over a filtered record set.
type Summary struct {
	TotalCount        int
	TotalMinutes      int
	DistinctOperators int
	Heatmap           Heatmap
}

// Aggregate computes the workload summary over a snapshot of records. It is
// a pure function and is recomputed on every store snapshot.
func Aggregate(records []domain.ActivityRecord) Summary {
	summary := Summary{TotalCount: len(records)}
	emails := make(map[string]struct{})

	for _, rec := range records {
		emails[rec.OperatorEmail] = struct{}{}
		if rec.DurationMinutes != nil {
			summary.TotalMinutes += *rec.DurationMinutes
		}

		// Cross-midnight records are excluded from hour bucketing entirely
		// rather than split across two days; historical reports depend on it.
		if rec.EndedAt == nil || !sameCalendarDay(rec.StartedAt, *rec.EndedAt) {
			continue
		}

		day := int(rec.StartedAt.Weekday())
		for hour := rec.StartedAt.Hour(); hour <= rec.EndedAt.Hour(); hour++ {
			summary.Heatmap[day][hour]++
		}
	}

	summary.DistinctOperators = len(emails)
	return summary
}

// SeverityLevel maps a heatmap count to one of six presentation levels:
// 0, 1, 2, 3, 4, and 5 for any count of five or more. The mapping is part of
// the report parity contract.
func SeverityLevel(count int) int {
	if count >= 5 {
		return 5
	}
	if count < 0 {
		return 0
	}
	return count
}

func sameCalendarDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
