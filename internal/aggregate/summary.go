package aggregate

import (
	"strconv"
	"strings"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/domain"
)

// InWindow reports whether the batch started no earlier than windowDays
// before now. Batches without a start time are outside every window.
// A non-positive windowDays disables the window.
func InWindow(b domain.BatchRecord, now time.Time, windowDays int) bool {
	if windowDays <= 0 {
		return true
	}
	if b.StartTime == nil {
		return false
	}
	return !b.StartTime.Before(now.AddDate(0, 0, -windowDays))
}

// MainProcess keeps the rows inside the window and on the given line,
// dropping the cleaning-block sentinel. An empty processCell keeps all lines.
func MainProcess(rows []domain.BatchRecord, now time.Time, windowDays int, processCell string) []domain.BatchRecord {
	out := make([]domain.BatchRecord, 0, len(rows))
	for _, b := range rows {
		if b.IsSentinel() || !InWindow(b, now, windowDays) {
			continue
		}
		if processCell != "" && b.ProcessCell != processCell {
			continue
		}
		out = append(out, b)
	}
	return out
}

// Summarize builds the headline rollup over the main-process rows of the last
// windowDays days. An empty selection yields a zero-valued summary.
func Summarize(rows []domain.BatchRecord, now time.Time, windowDays int, processCell string) domain.Summary {
	batches := MainProcess(rows, now, windowDays, processCell)

	s := domain.Summary{
		TotalBatches: len(batches),
		LastUpdated:  now,
	}

	var bph, netBph, adjBph, downtimePct mean
	for _, b := range batches {
		switch {
		case b.Status() == domain.BatchStatusComplete:
			s.CompletedBatches++
		case strings.TrimSpace(b.BatchStatus) != "":
			s.InProgressBatches++
		}

		s.TotalProduction += ParseBags(b.TotalBags)
		if b.ShiftChangeImpacted() {
			s.ShiftChangeBatches++
		}

		bph.addPositive(b.BagsPerHour)
		netBph.addPositive(b.NetBagsPerHour)
		adjBph.addPositive(b.AdjustedBagsPerHour)
		downtimePct.addPresent(b.DowntimePercentage)

		s.Downtime.TotalBreakMinutes += domain.IntOr(b.TotalBreakMinutes, 0)
		s.Downtime.TotalCleanMinutes += domain.IntOr(b.TotalCleanMinutes, 0)
		s.Downtime.TotalMachineDownMinutes += domain.IntOr(b.TotalMachineDownMinutes, 0)
		s.Downtime.TotalMeetingMinutes += domain.IntOr(b.TotalMeetingMinutes, 0)
		s.Downtime.TotalShiftChangeMinutes += domain.IntOr(b.TotalShiftChangeMinutes, 0)
		s.Downtime.TotalDowntimeMinutes += domain.IntOr(b.TotalDowntimeMinutes, 0)
	}

	s.AvgBagsPerHour = bph.value()
	s.AvgNetBagsPerHour = netBph.value()
	s.AvgAdjustedBagsPerHour = adjBph.value()
	s.AvgDowntimePercentage = downtimePct.value()
	s.ShiftChangeImpactPercentage = Percent(s.ShiftChangeBatches, s.TotalBatches)
	return s
}

// ParseBags reads a bag count stored as free text. Anything that is not a
// whole number, including nil, counts as 0.
func ParseBags(raw *string) int {
	if raw == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(*raw))
	if err != nil {
		return 0
	}
	return n
}

// Percent returns part/total*100, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Average returns the mean of values, or 0 for none.
func Average(values []float64) float64 {
	var m mean
	for _, v := range values {
		m.add(v)
	}
	return m.value()
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) addPresent(v *float64) {
	if v != nil {
		m.add(*v)
	}
}

func (m *mean) addPositive(v *float64) {
	if v != nil && *v > 0 {
		m.add(*v)
	}
}

func (m mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}
