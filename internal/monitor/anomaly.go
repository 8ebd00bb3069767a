package monitor

import "sort"

// FlagRateMonitor checks whether the share of detector checks that came back
// abnormal exceeds a threshold.
type FlagRateMonitor struct {
	metrics   *Metrics
	threshold float64 // percentage
}

// ScopeRate is the flag rate of one scope.
type ScopeRate struct {
	Scope    string  `json:"scope"`
	Checked  int64   `json:"checked"`
	Flagged  int64   `json:"flagged"`
	Rate     float64 `json:"rate"`
	Elevated bool    `json:"elevated"`
}

// FlagRateReport lists the flag rate of every scope seen so far.
type FlagRateReport struct {
	Threshold float64     `json:"threshold"`
	Elevated  bool        `json:"elevated"`
	Scopes    []ScopeRate `json:"scopes"`
}

// NewFlagRateMonitor creates a monitor with the given threshold.
func NewFlagRateMonitor(metrics *Metrics, threshold float64) *FlagRateMonitor {
	return &FlagRateMonitor{metrics: metrics, threshold: threshold}
}

// Elevated returns true if the flag rate of scope exceeds the threshold.
func (d *FlagRateMonitor) Elevated(scope string) bool {
	snap := d.metrics.Snapshot()
	return rate(snap.AnomaliesFlagged[scope], snap.RowsChecked[scope]) > d.threshold
}

// Report returns the current flag rates.
func (d *FlagRateMonitor) Report() FlagRateReport {
	snap := d.metrics.Snapshot()

	scopes := make([]string, 0, len(snap.RowsChecked))
	for s := range snap.RowsChecked {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)

	report := FlagRateReport{Threshold: d.threshold, Scopes: make([]ScopeRate, 0, len(scopes))}
	for _, s := range scopes {
		r := ScopeRate{
			Scope:   s,
			Checked: snap.RowsChecked[s],
			Flagged: snap.AnomaliesFlagged[s],
		}
		r.Rate = rate(r.Flagged, r.Checked)
		r.Elevated = r.Rate > d.threshold
		report.Elevated = report.Elevated || r.Elevated
		report.Scopes = append(report.Scopes, r)
	}
	return report
}

func rate(flagged, checked int64) float64 {
	if checked == 0 {
		return 0
	}
	return float64(flagged) / float64(checked) * 100
}
