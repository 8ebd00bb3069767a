package anomaly

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/domain"
)

const (
	// SigmaThreshold is how many standard deviations from the mean count as abnormal.
	SigmaThreshold = 2.0
	// SyntheticDeviation scales a stage mean into a stand-in standard deviation
	// for stages whose spread is not tracked.
	SyntheticDeviation = 0.25
	// MinBatchSamples is the smallest baseline a single batch is compared against.
	MinBatchSamples = 5
	// MinProductSamples is the smallest baseline a product average is compared against.
	MinProductSamples = 3

	minimumTimestampGap = time.Minute
	minimumCycleMinutes = 5.0
	minuteLayout        = "2006-01-02 15:04"
)

// Reason kinds.
const (
	KindStructural  = "structural"
	KindStatistical = "statistical"
)

// Observation is the timing of one batch as the detector sees it.
type Observation struct {
	BatchNo      string     `json:"batchNo"`
	ProductName  string     `json:"productName"`
	ProcessCell  string     `json:"processCell"`
	Start        *time.Time `json:"startTime"`
	Finish       *time.Time `json:"finishTime"`
	StartBlend   *time.Time `json:"startBlend"`
	FinishBlend  *time.Time `json:"finishBlend"`
	StartPack    *time.Time `json:"startPack"`
	TotalMinutes *float64   `json:"totalMinutes"`
}

// ObservationFrom extracts the detector inputs from a batch row.
func ObservationFrom(b domain.BatchRecord) Observation {
	obs := Observation{
		BatchNo:     b.BatchNo,
		ProductName: domain.Deref(b.ProductName),
		ProcessCell: b.ProcessCell,
		Start:       b.StartTime,
		Finish:      b.FinishTime,
		StartBlend:  b.StartBlend,
		FinishBlend: b.FinishBlend,
		StartPack:   b.StartPack,
	}
	if b.TotalMinutes != nil {
		total := float64(*b.TotalMinutes)
		obs.TotalMinutes = &total
	}
	return obs
}

// Result is the verdict for one batch or product.
type Result struct {
	IsAbnormal bool                   `json:"isAbnormal"`
	Reasons    []domain.AnomalyReason `json:"reasons"`
}

// Text joins the reason messages, one per line.
func (r Result) Text() string {
	msgs := make([]string, len(r.Reasons))
	for i, reason := range r.Reasons {
		msgs[i] = reason.Message
	}
	return strings.Join(msgs, "\n")
}

func newResult(reasons []domain.AnomalyReason) Result {
	if reasons == nil {
		reasons = []domain.AnomalyReason{}
	}
	return Result{IsAbnormal: len(reasons) > 0, Reasons: reasons}
}

// Batch checks one batch. Structural problems with the timestamps are
// reported on their own, without consulting the baseline. Otherwise total,
// blend and pack durations are compared against the baseline when it holds
// at least MinBatchSamples batches. Missing inputs skip the check that needs them.
func Batch(obs Observation, baseline *domain.ProductBaseline) Result {
	if reasons := structural(obs); len(reasons) > 0 {
		return newResult(reasons)
	}
	if !baseline.Usable(MinBatchSamples) {
		return newResult(nil)
	}

	var reasons []domain.AnomalyReason
	if obs.TotalMinutes != nil {
		if r, ok := deviation("total", *obs.TotalMinutes, baseline.AvgTotalMinutes, baseline.StdDevTotalMinutes); ok {
			r.Message = fmt.Sprintf("Total time: %.0f min (%.0f%% %s than expected %.1f min ± %.1f)",
				r.Observed, r.DeviationPct, r.Direction, r.Expected, r.StdDev)
			reasons = append(reasons, r)
		}
	}
	if observed, ok := minutesBetween(obs.StartBlend, obs.FinishBlend); ok && observed > 0 && baseline.AvgBlendMinutes > 0 {
		if r, ok := deviation("blend", observed, baseline.AvgBlendMinutes, baseline.AvgBlendMinutes*SyntheticDeviation); ok {
			r.Message = fmt.Sprintf("Blend time: %.1f min (%.0f%% %s than expected %.1f min)",
				r.Observed, r.DeviationPct, r.Direction, r.Expected)
			reasons = append(reasons, r)
		}
	}
	if observed, ok := minutesBetween(obs.StartPack, obs.Finish); ok && observed > 0 && baseline.AvgPackMinutes > 0 {
		if r, ok := deviation("pack", observed, baseline.AvgPackMinutes, baseline.AvgPackMinutes*SyntheticDeviation); ok {
			r.Message = fmt.Sprintf("Pack time: %.1f min (%.0f%% %s than expected %.1f min)",
				r.Observed, r.DeviationPct, r.Direction, r.Expected)
			reasons = append(reasons, r)
		}
	}
	return newResult(reasons)
}

// Product compares a product's average cycle time against a baseline of
// recent batches holding at least MinProductSamples batches.
func Product(avgTotalMinutes float64, baseline *domain.ProductBaseline) Result {
	if !baseline.Usable(MinProductSamples) {
		return newResult(nil)
	}
	r, ok := deviation("total", avgTotalMinutes, baseline.AvgTotalMinutes, baseline.StdDevTotalMinutes)
	if !ok {
		return newResult(nil)
	}

	cause := "equipment issues, quality problems, or operator training needs"
	if r.Direction == "faster" {
		cause = "data recording issues or unusual operating conditions"
	}
	r.Message = fmt.Sprintf("%s on %s line has an average cycle time of %.1f minutes, which is %.0f%% %s than the expected %.1f minutes (based on %d recent batches). This may indicate %s.",
		baseline.ProductName, baseline.ProcessCell, r.Observed, r.DeviationPct, r.Direction, r.Expected, baseline.SampleCount, cause)
	return newResult([]domain.AnomalyReason{r})
}

func structural(obs Observation) []domain.AnomalyReason {
	var reasons []domain.AnomalyReason
	add := func(metric, msg string) {
		reasons = append(reasons, domain.AnomalyReason{Kind: KindStructural, Metric: metric, Message: msg})
	}

	if obs.Start != nil && obs.Finish != nil {
		gap := obs.Finish.Sub(*obs.Start)
		if gap < 0 {
			gap = -gap
		}
		if gap < minimumTimestampGap {
			add("timing", fmt.Sprintf("Suspicious timing: start and finish times are nearly identical (%s)",
				obs.Start.Format(minuteLayout)))
		}
	}

	if obs.TotalMinutes != nil && *obs.TotalMinutes > 0 && *obs.TotalMinutes < minimumCycleMinutes {
		add("total", fmt.Sprintf("Extremely short cycle time: %g minutes (likely data recording error)", *obs.TotalMinutes))
	}

	if obs.Start != nil && obs.StartBlend != nil && obs.StartPack != nil {
		start := obs.Start.Format(minuteLayout)
		blend := obs.StartBlend.Format(minuteLayout)
		pack := obs.StartPack.Format(minuteLayout)
		switch {
		case start == blend && blend == pack:
			add("stages", fmt.Sprintf("Invalid process timing: start, blend and pack times are all identical (%s), impossible in real production", start))
		case blend == pack:
			add("stages", fmt.Sprintf("Invalid process timing: blend and pack times are identical (%s), blending and packing cannot start simultaneously", blend))
		}
	}
	return reasons
}

// deviation applies the sigma rule. The percentage is relative to the mean.
func deviation(metric string, observed, mean, stdDev float64) (domain.AnomalyReason, bool) {
	if mean <= 0 || stdDev <= 0 {
		return domain.AnomalyReason{}, false
	}
	diff := math.Abs(observed - mean)
	if diff <= SigmaThreshold*stdDev {
		return domain.AnomalyReason{}, false
	}

	direction := "faster"
	if observed > mean {
		direction = "slower"
	}
	return domain.AnomalyReason{
		Kind:         KindStatistical,
		Metric:       metric,
		Observed:     observed,
		Expected:     mean,
		StdDev:       stdDev,
		Direction:    direction,
		DeviationPct: math.Round(diff / mean * 100),
	}, true
}

func minutesBetween(from, to *time.Time) (float64, bool) {
	if from == nil || to == nil {
		return 0, false
	}
	return to.Sub(*from).Minutes(), true
}
