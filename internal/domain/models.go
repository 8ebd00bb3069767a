package domain

import "time"

// SentinelBatchNo marks the non-production cleaning blocks recorded in the
// batch view. It is excluded from every main-process aggregate.
const SentinelBatchNo = "999999"

// BatchRecord is one row of vw_BatchDashboardAnalytics.
type BatchRecord struct {
	BatchNo     string  `json:"batchNo"`
	ItemKey     *string `json:"itemKey,omitempty"`
	ProductName *string `json:"productName,omitempty"`
	ProcessCell string  `json:"processCell"`

	StartTime   *time.Time `json:"startTime,omitempty"`
	FinishTime  *time.Time `json:"finishTime,omitempty"`
	StartBatch  *time.Time `json:"startBatch,omitempty"`
	StartTip    *time.Time `json:"startTip,omitempty"`
	FinishTip   *time.Time `json:"finishTip,omitempty"`
	StartBlend  *time.Time `json:"startBlend,omitempty"`
	FinishBlend *time.Time `json:"finishBlend,omitempty"`
	StartPack   *time.Time `json:"startPack,omitempty"`
	FinishPack  *time.Time `json:"finishPack,omitempty"`

	TotalMinutes *int `json:"totalMinutes,omitempty"`
	BlendMinutes *int `json:"blendMinutes,omitempty"`
	PackMinutes  *int `json:"packMinutes,omitempty"`
	TipMinutes   *int `json:"tipMinutes,omitempty"`

	TotalBreakMinutes       *int `json:"totalBreakMinutes,omitempty"`
	TotalCleanMinutes       *int `json:"totalCleanMinutes,omitempty"`
	TotalMachineDownMinutes *int `json:"totalMachineDownMinutes,omitempty"`
	TotalMeetingMinutes     *int `json:"totalMeetingMinutes,omitempty"`
	TotalShiftChangeMinutes *int `json:"totalShiftChangeMinutes,omitempty"`
	TotalDowntimeMinutes    *int `json:"totalDowntimeMinutes,omitempty"`

	// Bag counts are free text in the source view.
	TotalBags   *string `json:"totalBags,omitempty"`
	PartialBags *string `json:"partialBags,omitempty"`

	BagsPerHour            *float64 `json:"bagsPerHour,omitempty"`
	NetBagsPerHour         *float64 `json:"netBagsPerHour,omitempty"`
	AdjustedBagsPerHour    *float64 `json:"adjustedBagsPerHour,omitempty"`
	AdjustedNetBagsPerHour *float64 `json:"adjustedNetBagsPerHour,omitempty"`
	DowntimePercentage     *float64 `json:"downtimePercentage,omitempty"`

	HasShiftChangeImpact *int       `json:"hasShiftChangeImpact,omitempty"`
	BatchDate            *time.Time `json:"batchDate,omitempty"`
	BatchStatus          string     `json:"batchStatus"`
}

// Status maps the raw status label to its enumeration.
func (b BatchRecord) Status() BatchStatus {
	return ParseBatchStatus(b.BatchStatus)
}

// IsSentinel reports whether the row is a cleaning block rather than a batch.
func (b BatchRecord) IsSentinel() bool {
	return b.BatchNo == SentinelBatchNo
}

// ShiftChangeImpacted reports whether the batch overlaps a shift handover.
func (b BatchRecord) ShiftChangeImpacted() bool {
	return b.HasShiftChangeImpact != nil && *b.HasShiftChangeImpact == 1
}

// EventRecord is one row of vw_ProductionEvents.
type EventRecord struct {
	BatchNo         *string    `json:"batchNo,omitempty"`
	ProcessCell     *string    `json:"processCell,omitempty"`
	EventType       *string    `json:"eventType,omitempty"`
	Location        *string    `json:"location,omitempty"`
	EventStart      *time.Time `json:"eventStart,omitempty"`
	EventEnd        *time.Time `json:"eventEnd,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty"`
	EventDate       *time.Time `json:"eventDate,omitempty"`
	EventCategory   *string    `json:"eventCategory,omitempty"`
}

// Type maps the raw event type to its enumeration.
func (e EventRecord) Type() EventType {
	return ParseEventType(Deref(e.EventType))
}

// Category maps the raw event category to its enumeration.
func (e EventRecord) Category() EventCategory {
	return ParseEventCategory(Deref(e.EventCategory))
}

// CleaningRecord is one row of vw_CleaningActivities.
type CleaningRecord struct {
	BatchNo          string     `json:"batchNo"`
	ProcessCell      string     `json:"processCell"`
	ActivityType     string     `json:"activityType"`
	Location         string     `json:"location"`
	CleanCycle       int        `json:"cleanCycle"`
	CleanStart       *time.Time `json:"cleanStart,omitempty"`
	CleanEnd         *time.Time `json:"cleanEnd,omitempty"`
	DurationMinutes  *int       `json:"durationMinutes,omitempty"`
	LineType         string     `json:"lineType"`
	CleanDate        *time.Time `json:"cleanDate,omitempty"`
	ShiftType        string     `json:"shiftType"`
	DurationCategory string     `json:"durationCategory"`
	CleanStatus      string     `json:"cleanStatus"`
}

// ProductBaseline is the historical duration profile of a product on a
// process cell, as aggregated by vw_ProductPerformanceSummary or rebuilt from
// recent batches.
type ProductBaseline struct {
	ItemKey     string `json:"itemKey"`
	ProductName string `json:"productName"`
	ProcessCell string `json:"processCell"`
	SampleCount int    `json:"batchCount"`

	AvgTotalMinutes    float64 `json:"avgTotalTime"`
	StdDevTotalMinutes float64 `json:"stdDevTotalTime"`
	AvgBlendMinutes    float64 `json:"avgBlendTime"`
	AvgPackMinutes     float64 `json:"avgPackTime"`
	AvgTipMinutes      float64 `json:"avgTipTime"`
	MinTotalMinutes    float64 `json:"minTotalTime"`
	MaxTotalMinutes    float64 `json:"maxTotalTime"`

	AvgBagsPerHour        *float64 `json:"avgBagsPerHour,omitempty"`
	AvgNetBagsPerHour     *float64 `json:"avgNetBagsPerHour,omitempty"`
	TotalBagsProduced     *float64 `json:"totalBagsProduced,omitempty"`
	AvgDowntimePercentage *float64 `json:"avgDowntimePercentage,omitempty"`
}

// Usable reports whether the baseline can back a statistical comparison.
// Single-sample and zero-variance baselines count as no baseline at all.
func (b *ProductBaseline) Usable(minSamples int) bool {
	if b == nil {
		return false
	}
	return b.SampleCount >= minSamples && b.SampleCount > 0 &&
		b.StdDevTotalMinutes > 0 && b.AvgTotalMinutes > 0
}

// Matches reports whether the baseline describes the given product and line.
func (b ProductBaseline) Matches(productName, processCell string) bool {
	return b.ProductName == productName && b.ProcessCell == processCell
}

// ProcessCellEfficiency is one row of vw_ProcessCellEfficiency.
type ProcessCellEfficiency struct {
	ProcessCell                 string   `json:"processCell"`
	TotalBatches                int      `json:"totalBatches"`
	NormalBatches               int      `json:"normalBatches"`
	ShiftChangeBatches          int      `json:"shiftChangeBatches"`
	AvgCycleTime                *float64 `json:"avgCycleTime"`
	AvgNetProductionTime        *float64 `json:"avgNetProductionTime"`
	AvgBagsPerHour              *float64 `json:"avgBagsPerHour"`
	AvgNetBagsPerHour           *float64 `json:"avgNetBagsPerHour"`
	TotalBagsProduced           *float64 `json:"totalBagsProduced"`
	CompletionRate              *float64 `json:"completionRate"`
	AvgDowntimePercentage       *float64 `json:"avgDowntimePercentage"`
	ShiftChangeImpactPercentage *float64 `json:"shiftChangeImpactPercentage"`
	PotentialImprovementPercent *float64 `json:"potentialImprovementPercent"`
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// IntOr returns the pointed-to int or fallback for nil.
func IntOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

// FloatOr returns the pointed-to float or fallback for nil.
func FloatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
