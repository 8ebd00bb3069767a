package anomaly

import (
	"math"
	"sort"

	"github.com/kubo-market/batch-dashboard/internal/domain"
)

// BuildBaselines derives per product and line baselines from recent batches.
// A group needs MinProductSamples batches and as many positive cycle times.
// The standard deviation is the population deviation of those cycle times.
func BuildBaselines(rows []domain.BatchRecord) []domain.ProductBaseline {
	type groupKey struct{ product, cell string }
	groups := make(map[groupKey][]domain.BatchRecord)
	for _, b := range rows {
		if b.IsSentinel() || b.ProductName == nil || *b.ProductName == "" {
			continue
		}
		k := groupKey{product: *b.ProductName, cell: b.ProcessCell}
		groups[k] = append(groups[k], b)
	}

	baselines := make([]domain.ProductBaseline, 0, len(groups))
	for k, batches := range groups {
		if len(batches) < MinProductSamples {
			continue
		}

		var totals, blends, tips, packs []float64
		var itemKey string
		for _, b := range batches {
			if b.TotalMinutes != nil && *b.TotalMinutes > 0 {
				totals = append(totals, float64(*b.TotalMinutes))
			}
			if m, ok := minutesBetween(b.StartBlend, b.FinishBlend); ok && m > 0 {
				blends = append(blends, m)
			}
			if m, ok := minutesBetween(b.StartTip, b.FinishTip); ok && m > 0 {
				tips = append(tips, m)
			}
			if m, ok := minutesBetween(b.StartPack, b.FinishPack); ok && m > 0 {
				packs = append(packs, m)
			}
			if itemKey == "" {
				itemKey = domain.Deref(b.ItemKey)
			}
		}
		if len(totals) < MinProductSamples {
			continue
		}

		avg, std := meanStdDev(totals)
		lo, hi := totals[0], totals[0]
		for _, v := range totals[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		baselines = append(baselines, domain.ProductBaseline{
			ItemKey:            itemKey,
			ProductName:        k.product,
			ProcessCell:        k.cell,
			SampleCount:        len(batches),
			AvgTotalMinutes:    avg,
			StdDevTotalMinutes: std,
			AvgBlendMinutes:    meanOf(blends),
			AvgTipMinutes:      meanOf(tips),
			AvgPackMinutes:     meanOf(packs),
			MinTotalMinutes:    lo,
			MaxTotalMinutes:    hi,
		})
	}

	sort.Slice(baselines, func(i, j int) bool {
		if baselines[i].ProcessCell != baselines[j].ProcessCell {
			return baselines[i].ProcessCell < baselines[j].ProcessCell
		}
		return baselines[i].ProductName < baselines[j].ProductName
	})
	return baselines
}

// FindBaseline returns the baseline for a product and line, preferring the
// one with the most samples. It returns nil when none matches.
func FindBaseline(baselines []domain.ProductBaseline, productName, processCell string) *domain.ProductBaseline {
	var best *domain.ProductBaseline
	for i := range baselines {
		b := &baselines[i]
		if !b.Matches(productName, processCell) {
			continue
		}
		if best == nil || b.SampleCount > best.SampleCount {
			best = b
		}
	}
	return best
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanStdDev(values []float64) (float64, float64) {
	avg := meanOf(values)
	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	variance /= float64(len(values))
	return avg, math.Sqrt(variance)
}
