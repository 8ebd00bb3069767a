package domain

import "time"

// DowntimeTotals sums downtime minutes per category.
type DowntimeTotals struct {
	TotalBreakMinutes       int `json:"totalBreakMinutes"`
	TotalCleanMinutes       int `json:"totalCleanMinutes"`
	TotalMachineDownMinutes int `json:"totalMachineDownMinutes"`
	TotalMeetingMinutes     int `json:"totalMeetingMinutes"`
	TotalShiftChangeMinutes int `json:"totalShiftChangeMinutes"`
	TotalDowntimeMinutes    int `json:"totalDowntimeMinutes"`
}

// Summary is the headline rollup for the dashboard landing page.
type Summary struct {
	TotalBatches                int            `json:"totalBatches"`
	CompletedBatches            int            `json:"completedBatches"`
	InProgressBatches           int            `json:"inProgressBatches"`
	AvgBagsPerHour              float64        `json:"avgBagsPerHour"`
	TotalProduction             int            `json:"totalProduction"`
	LastUpdated                 time.Time      `json:"lastUpdated"`
	AvgNetBagsPerHour           float64        `json:"avgNetBagsPerHour"`
	AvgAdjustedBagsPerHour      float64        `json:"avgAdjustedBagsPerHour"`
	AvgDowntimePercentage       float64        `json:"avgDowntimePercentage"`
	ShiftChangeBatches          int            `json:"shiftChangeBatches"`
	ShiftChangeImpactPercentage float64        `json:"shiftChangeImpactPercentage"`
	Downtime                    DowntimeTotals `json:"downtime"`
}

// GroupSummary is the rollup of one key produced by a grouping pass.
// Samples counts the rows whose value was present.
type GroupSummary struct {
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	Samples    int     `json:"samples"`
	Sum        float64 `json:"sum"`
	Average    float64 `json:"average"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Percentage float64 `json:"percentage"`
}

// AnomalyReason describes one check that flagged a batch or product.
// Statistical reasons carry the compared values; structural ones only the message.
type AnomalyReason struct {
	Kind         string  `json:"kind"`
	Metric       string  `json:"metric,omitempty"`
	Message      string  `json:"message"`
	Observed     float64 `json:"observed,omitempty"`
	Expected     float64 `json:"expected,omitempty"`
	StdDev       float64 `json:"stdDev,omitempty"`
	Direction    string  `json:"direction,omitempty"`
	DeviationPct float64 `json:"deviationPct,omitempty"`
}

// BatchRow is the compact batch listing.
type BatchRow struct {
	BatchNo      string  `json:"batchNo"`
	ProductName  string  `json:"productName"`
	ProcessCell  string  `json:"processCell"`
	StartTime    string  `json:"startTime"`
	FinishTime   *string `json:"finishTime"`
	BatchStatus  string  `json:"batchStatus"`
	TotalBags    int     `json:"totalBags"`
	BagsPerHour  float64 `json:"bagsPerHour"`
	TotalMinutes int     `json:"totalMinutes"`
}

// BatchTableRow is the detailed batch row with its anomaly annotation.
type BatchTableRow struct {
	BatchNo                 string          `json:"batchNo"`
	ProductName             *string         `json:"productName"`
	StartTime               *time.Time      `json:"startTime"`
	FinishTime              *time.Time      `json:"finishTime"`
	StartBatch              *time.Time      `json:"startBatch"`
	StartBlend              *time.Time      `json:"startBlend"`
	StartPack               *time.Time      `json:"startPack"`
	StartTip                *time.Time      `json:"startTip"`
	FinishTip               *time.Time      `json:"finishTip"`
	FinishBlend             *time.Time      `json:"finishBlend"`
	FinishPack              *time.Time      `json:"finishPack"`
	TotalBags               *string         `json:"totalBags"`
	PartialBags             *string         `json:"partialBags"`
	TotalMinutes            *int            `json:"totalMinutes"`
	BagsPerHour             *float64        `json:"bagsPerHour"`
	BatchStatus             string          `json:"batchStatus"`
	ProcessCell             string          `json:"processCell"`
	DowntimeMinutes         *int            `json:"downtimeMinutes"`
	DowntimePercentage      *float64        `json:"downtimePercentage"`
	TotalBreakMinutes       *int            `json:"totalBreakMinutes"`
	TotalCleanMinutes       *int            `json:"totalCleanMinutes"`
	TotalMachineDownMinutes *int            `json:"totalMachineDownMinutes"`
	TotalShiftChangeMinutes *int            `json:"totalShiftChangeMinutes"`
	TotalDowntimeMinutes    *int            `json:"totalDowntimeMinutes"`
	IsAbnormal              bool            `json:"isAbnormal"`
	AbnormalReason          string          `json:"abnormalReason,omitempty"`
	AnomalyReasons          []AnomalyReason `json:"anomalyReasons,omitempty"`
}

// EventRow is one production event in the shared table layout.
type EventRow struct {
	BatchNo         string     `json:"batchNo"`
	EventType       string     `json:"eventType"`
	ActivityType    string     `json:"activityType"`
	Location        string     `json:"location"`
	StartTime       *time.Time `json:"startTime"`
	FinishTime      *time.Time `json:"finishTime"`
	DurationMinutes *int       `json:"durationMinutes"`
	TotalMinutes    *int       `json:"totalMinutes"`
	ProcessCell     string     `json:"processCell"`
	BatchStatus     string     `json:"batchStatus"`
	ProductName     string     `json:"productName"`
	EventDate       *time.Time `json:"eventDate"`
	EventCategory   string     `json:"eventCategory"`
}

// CleaningRow is one cleaning activity in the shared table layout.
type CleaningRow struct {
	BatchNo          string     `json:"batchNo"`
	ActivityType     string     `json:"activityType"`
	EventType        string     `json:"eventType"`
	Location         string     `json:"location"`
	CleanCycle       int        `json:"cleanCycle"`
	StartTime        *time.Time `json:"startTime"`
	FinishTime       *time.Time `json:"finishTime"`
	DurationMinutes  *int       `json:"durationMinutes"`
	TotalMinutes     *int       `json:"totalMinutes"`
	ProcessCell      string     `json:"processCell"`
	CleanStatus      string     `json:"cleanStatus"`
	BatchStatus      string     `json:"batchStatus"`
	ProductName      string     `json:"productName"`
	LineType         string     `json:"lineType"`
	CleanDate        *time.Time `json:"cleanDate"`
	ShiftType        string     `json:"shiftType"`
	DurationCategory string     `json:"durationCategory"`
}

// DailyProduction is one (day, line) bucket of the performance view.
type DailyProduction struct {
	Date                  string  `json:"date"`
	ProcessCell           string  `json:"processCell"`
	BatchCount            int     `json:"batchCount"`
	AvgBagsPerHour        float64 `json:"avgBagsPerHour"`
	AvgDowntimePercentage float64 `json:"avgDowntimePercentage"`
}

// CellEfficiency is the per-line rollup of the performance view.
type CellEfficiency struct {
	ProcessCell           string  `json:"processCell"`
	TotalBatches          int     `json:"totalBatches"`
	AvgCycleTime          float64 `json:"avgCycleTime"`
	AvgBagsPerHour        float64 `json:"avgBagsPerHour"`
	AvgDowntimePercentage float64 `json:"avgDowntimePercentage"`
	CompletionRate        float64 `json:"completionRate"`
}

// PerformanceMetrics is the 30-day performance view.
type PerformanceMetrics struct {
	DailyProduction       []DailyProduction `json:"dailyProduction"`
	ProcessCellEfficiency []CellEfficiency  `json:"processCellEfficiency"`
	GeneratedAt           time.Time         `json:"generatedAt"`
}

// ProductPerformance is a product row of the analytics view with its anomaly annotation.
type ProductPerformance struct {
	ItemKey               string          `json:"itemKey"`
	ProductName           string          `json:"productName"`
	ProcessCell           string          `json:"processCell"`
	BatchCount            int             `json:"batchCount"`
	AvgTotalMinutes       float64         `json:"avgTotalMinutes"`
	AvgBlendMinutes       float64         `json:"avgBlendMinutes"`
	AvgPackMinutes        float64         `json:"avgPackMinutes"`
	AvgTipMinutes         float64         `json:"avgTipMinutes"`
	AvgBagsPerHour        *float64        `json:"avgBagsPerHour"`
	AvgNetBagsPerHour     *float64        `json:"avgNetBagsPerHour"`
	TotalBagsProduced     *float64        `json:"totalBagsProduced"`
	AvgDowntimePercentage *float64        `json:"avgDowntimePercentage"`
	StdDevTotalMinutes    float64         `json:"stdDevTotalMinutes"`
	MinTotalMinutes       float64         `json:"minTotalMinutes"`
	MaxTotalMinutes       float64         `json:"maxTotalMinutes"`
	IsAbnormal            bool            `json:"isAbnormal"`
	AbnormalReason        string          `json:"abnormalReason,omitempty"`
	AnomalyReasons        []AnomalyReason `json:"anomalyReasons,omitempty"`
}

// EventAnalytics is one (line, type, category) bucket of recent events.
type EventAnalytics struct {
	ProcessCell          string  `json:"processCell"`
	EventType            string  `json:"eventType"`
	EventCategory        string  `json:"eventCategory"`
	EventCount           int     `json:"eventCount"`
	TotalDurationMinutes int     `json:"totalDurationMinutes"`
	AvgDurationMinutes   float64 `json:"avgDurationMinutes"`
	MinDurationMinutes   int     `json:"minDurationMinutes"`
	MaxDurationMinutes   int     `json:"maxDurationMinutes"`
	PeakHour             int     `json:"peakHour"`
}

// Analytics is the combined analytics page payload.
type Analytics struct {
	ProcessCellEfficiency []ProcessCellEfficiency `json:"processCellEfficiency"`
	ProductPerformance    []ProductPerformance    `json:"productPerformance"`
	EventAnalytics        []EventAnalytics        `json:"eventAnalytics"`
}

// DowntimeByType is one event type of the downtime breakdown.
type DowntimeByType struct {
	EventType    string  `json:"eventType"`
	TotalMinutes int     `json:"totalMinutes"`
	EventCount   int     `json:"eventCount"`
	AvgDuration  float64 `json:"avgDuration"`
	Percentage   float64 `json:"percentage"`
}

// DailyDowntime is one day of the downtime breakdown.
type DailyDowntime struct {
	Date               string `json:"date"`
	BreakMinutes       int    `json:"breakMinutes"`
	CleanMinutes       int    `json:"cleanMinutes"`
	MachineDownMinutes int    `json:"machineDownMinutes"`
	ShiftChangeMinutes int    `json:"shiftChangeMinutes"`
	TotalMinutes       int    `json:"totalMinutes"`
}

// DowntimeBreakdown is the event-based downtime view.
type DowntimeBreakdown struct {
	DowntimeBreakdown []DowntimeByType `json:"downtimeBreakdown"`
	DailyBreakdown    []DailyDowntime  `json:"dailyBreakdown"`
}

// RealtimeBatch is a running batch on the realtime board.
type RealtimeBatch struct {
	BatchNo             string     `json:"batchNo"`
	ProductName         *string    `json:"productName"`
	ProcessCell         string     `json:"processCell"`
	Status              string     `json:"status"`
	StartTime           *time.Time `json:"startTime"`
	CurrentDuration     int        `json:"currentDuration"`
	EstimatedCompletion *time.Time `json:"estimatedCompletion"`
	Efficiency          float64    `json:"efficiency"`
	TotalBags           int        `json:"totalBags"`
	Progress            int        `json:"progress"`
}

// BaselineRow is one product baseline as listed for client-side checks.
type BaselineRow struct {
	ItemKey         string  `json:"itemKey"`
	ProductName     string  `json:"productName"`
	ProcessCell     string  `json:"processCell"`
	BatchCount      int     `json:"batchCount"`
	AvgTotalTime    float64 `json:"avgTotalTime"`
	AvgBlendTime    float64 `json:"avgBlendTime"`
	AvgPackTime     float64 `json:"avgPackTime"`
	AvgTipTime      float64 `json:"avgTipTime"`
	StdDevTotalTime float64 `json:"stdDevTotalTime"`
	MinTotalTime    float64 `json:"minTotalTime"`
	MaxTotalTime    float64 `json:"maxTotalTime"`
}

// Event analytics payloads keep the PascalCase field names the event
// analytics pages consume.

// EventTypeSummary is one downtime category of the event summary.
type EventTypeSummary struct {
	EventType            string  `json:"EventType"`
	EventCategory        string  `json:"EventCategory"`
	EventCount           int     `json:"EventCount"`
	TotalDurationMinutes int     `json:"TotalDurationMinutes"`
	AvgDurationMinutes   float64 `json:"AvgDurationMinutes"`
	MaxDurationMinutes   int     `json:"MaxDurationMinutes"`
	MinDurationMinutes   int     `json:"MinDurationMinutes"`
}

// EventSummary rolls recent downtime up by category.
type EventSummary struct {
	EventSummary         []EventTypeSummary `json:"EventSummary"`
	TotalEvents          int                `json:"TotalEvents"`
	TotalDowntimeMinutes int                `json:"TotalDowntimeMinutes"`
	GeneratedAt          time.Time          `json:"GeneratedAt"`
}

// TypeDowntime is one category of the downtime analysis.
type TypeDowntime struct {
	EventType    string  `json:"EventType"`
	TotalMinutes int     `json:"TotalMinutes"`
	EventCount   int     `json:"EventCount"`
	AvgDuration  float64 `json:"AvgDuration"`
}

// DayDowntime is one day of the downtime analysis.
type DayDowntime struct {
	Date         string `json:"Date"`
	TotalMinutes int    `json:"TotalMinutes"`
	EventCount   int    `json:"EventCount"`
}

// DowntimeAnalysis is the batch-based downtime view.
type DowntimeAnalysis struct {
	DowntimeByType []TypeDowntime `json:"DowntimeByType"`
	DowntimeByDay  []DayDowntime  `json:"DowntimeByDay"`
	ProcessCell    string         `json:"ProcessCell"`
	GeneratedAt    time.Time      `json:"GeneratedAt"`
}

// CellShiftImpact compares shift-change and normal batches on one line.
type CellShiftImpact struct {
	ProcessCell                 string  `json:"ProcessCell"`
	TotalBatches                int     `json:"TotalBatches"`
	ShiftChangeBatches          int     `json:"ShiftChangeBatches"`
	NormalBatches               int     `json:"NormalBatches"`
	AvgBagsPerHour              float64 `json:"AvgBagsPerHour"`
	AvgNormalPeriodBagsPerHour  float64 `json:"AvgNormalPeriodBagsPerHour"`
	AvgShiftChangeBagsPerHour   float64 `json:"AvgShiftChangeBagsPerHour"`
	ShiftChangeImpactPercentage float64 `json:"ShiftChangeImpactPercentage"`
}

// ShiftChangeImpact is the 90-day shift-change comparison.
type ShiftChangeImpact struct {
	ShiftChangeImpact []CellShiftImpact `json:"ShiftChangeImpact"`
	GeneratedAt       time.Time         `json:"GeneratedAt"`
}
