package aggregate

import (
	"sort"

	"github.com/kubo-market/batch-dashboard/internal/domain"
)

// Less orders two groups. GroupBy breaks ties by key.
type Less func(a, b domain.GroupSummary) bool

// ByTotalDesc orders groups by descending sum.
func ByTotalDesc(a, b domain.GroupSummary) bool { return a.Sum > b.Sum }

// ByCountDesc orders groups by descending row count.
func ByCountDesc(a, b domain.GroupSummary) bool { return a.Count > b.Count }

// ByKey orders groups by ascending key.
func ByKey(a, b domain.GroupSummary) bool { return a.Key < b.Key }

// GroupBy rolls rows up per key. value reports the numeric field of a row and
// whether it is present; absent values add nothing to the sum and are left out
// of the average, min and max. The result is never nil.
func GroupBy[T any](rows []T, key func(T) string, value func(T) (float64, bool), less Less) []domain.GroupSummary {
	acc := make(map[string]*domain.GroupSummary)
	for _, row := range rows {
		k := key(row)
		g, ok := acc[k]
		if !ok {
			g = &domain.GroupSummary{Key: k}
			acc[k] = g
		}
		g.Count++

		v, present := value(row)
		if !present {
			continue
		}
		g.Sum += v
		if g.Samples == 0 || v < g.Min {
			g.Min = v
		}
		if g.Samples == 0 || v > g.Max {
			g.Max = v
		}
		g.Samples++
	}

	keys := make([]string, 0, len(acc))
	for k := range acc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]domain.GroupSummary, 0, len(keys))
	for _, k := range keys {
		g := *acc[k]
		if g.Samples > 0 {
			g.Average = g.Sum / float64(g.Samples)
		}
		groups = append(groups, g)
	}

	if less != nil {
		sort.SliceStable(groups, func(i, j int) bool { return less(groups[i], groups[j]) })
	}
	return groups
}

// PercentageBreakdown returns a copy of groups with Percentage set to each
// group's share of the summed total. A zero total yields zero everywhere.
func PercentageBreakdown(groups []domain.GroupSummary) []domain.GroupSummary {
	var total float64
	for _, g := range groups {
		total += g.Sum
	}

	out := make([]domain.GroupSummary, len(groups))
	for i, g := range groups {
		g.Percentage = 0
		if total > 0 {
			g.Percentage = g.Sum / total * 100
		}
		out[i] = g
	}
	return out
}

// Present adapts an optional int field for GroupBy.
func Present(v *int) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return float64(*v), true
}

// PresentFloat adapts an optional float field for GroupBy.
func PresentFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// OrZero adapts an optional float field so that missing values count as 0
// in the average as well.
func OrZero(v *float64) (float64, bool) {
	return domain.FloatOr(v, 0), true
}
