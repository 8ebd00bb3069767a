package cache

import (
	"strconv"
	"time"
)

// Time-to-live per view. These are fixed, not configuration.
const (
	SummaryTTL          = 2 * time.Minute
	BatchesTTL          = 2 * time.Minute
	PerformanceTTL      = 4 * time.Minute
	ProcessCellsTTL     = time.Hour
	EventSummaryTTL     = 10 * time.Minute
	DowntimeAnalysisTTL = 10 * time.Minute
	ShiftChangeTTL      = 20 * time.Minute
)

const allCells = "all"

func cellOrAll(cell string) string {
	if cell == "" {
		return allCells
	}
	return cell
}

// SummaryKey is summary:{cell|all}.
func SummaryKey(cell string) string { return "summary:" + cellOrAll(cell) }

// BatchesKey is batches:{cell}:{subLine}.
func BatchesKey(cell, subLine string) string { return "batches:" + cell + ":" + subLine }

// PerformanceKey is the single key of the performance view.
func PerformanceKey() string { return "performance" }

// ProcessCellsKey is the single key of the process-cell list.
func ProcessCellsKey() string { return "process-cells" }

// EventSummaryKey is event-summary:{days}.
func EventSummaryKey(days int) string { return "event-summary:" + strconv.Itoa(days) }

// DowntimeAnalysisKey is downtime-analysis:{cell|all}.
func DowntimeAnalysisKey(cell string) string { return "downtime-analysis:" + cellOrAll(cell) }

// ShiftChangeKey is the single key of the shift-change impact view.
func ShiftChangeKey() string { return "shift-change-impact" }
