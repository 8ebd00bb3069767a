package aggregate

import (
	"time"

	"github.com/kubo-market/batch-dashboard/internal/domain"
)

// DowntimeEntry is one positive downtime category of one batch.
type DowntimeEntry struct {
	Type    domain.EventType
	Minutes int
	Date    *time.Time
}

// DowntimeMinutes returns the minutes a batch recorded for one downtime type.
func DowntimeMinutes(b domain.BatchRecord, t domain.EventType) int {
	switch t {
	case domain.EventTypeBreak:
		return domain.IntOr(b.TotalBreakMinutes, 0)
	case domain.EventTypeClean:
		return domain.IntOr(b.TotalCleanMinutes, 0)
	case domain.EventTypeMachineDown:
		return domain.IntOr(b.TotalMachineDownMinutes, 0)
	case domain.EventTypeMeeting:
		return domain.IntOr(b.TotalMeetingMinutes, 0)
	case domain.EventTypeShiftChange:
		return domain.IntOr(b.TotalShiftChangeMinutes, 0)
	}
	return 0
}

// CategoryMinutes sums the five downtime categories of a batch.
func CategoryMinutes(b domain.BatchRecord) int {
	var total int
	for _, t := range domain.EventTypes {
		total += DowntimeMinutes(b, t)
	}
	return total
}

// DowntimeEntries unpivots batch rows into one entry per downtime category
// with positive minutes.
func DowntimeEntries(rows []domain.BatchRecord) []DowntimeEntry {
	var entries []DowntimeEntry
	for _, b := range rows {
		for _, t := range domain.EventTypes {
			if m := DowntimeMinutes(b, t); m > 0 {
				entries = append(entries, DowntimeEntry{Type: t, Minutes: m, Date: b.BatchDate})
			}
		}
	}
	return entries
}

// GroupDowntimeByType rolls the entries up per event type, largest total first.
func GroupDowntimeByType(entries []DowntimeEntry) []domain.GroupSummary {
	return GroupBy(entries,
		func(e DowntimeEntry) string { return e.Type.String() },
		func(e DowntimeEntry) (float64, bool) { return float64(e.Minutes), true },
		ByTotalDesc,
	)
}
