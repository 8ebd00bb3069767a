package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/aggregate"
	"github.com/kubo-market/batch-dashboard/internal/anomaly"
	"github.com/kubo-market/batch-dashboard/internal/domain"
	"github.com/kubo-market/batch-dashboard/internal/storage"
)

const (
	displayTimeLayout = "2006-01-02 15:04:05"
	dateLayout        = "2006-01-02"
	notAvailable      = "N/A"
)

// Sub-line selectors of the batches view.
const (
	SubLineClean       = "CLEAN"
	SubLineMainProcess = "MAINPROCESS"
	SubLineMachineDown = "MACHINEDOWN"
	SubLineBreakTime   = "BREAKTIME"
	SubLineShiftChange = "SHIFTCHANGE"
)

// subLineFilter narrows q to a sub-line and returns the matching row
// predicate, nil for no filter.
func subLineFilter(subLine string, q storage.Query) (storage.Query, func(domain.BatchRecord) bool, error) {
	positive := func(t domain.EventType, column string) (storage.Query, func(domain.BatchRecord) bool, error) {
		q.PositiveColumn = column
		return q, func(b domain.BatchRecord) bool { return aggregate.DowntimeMinutes(b, t) > 0 }, nil
	}
	switch strings.ToUpper(strings.TrimSpace(subLine)) {
	case "":
		return q, nil, nil
	case SubLineClean:
		q.OnlyBatchNo = domain.SentinelBatchNo
		return q, domain.BatchRecord.IsSentinel, nil
	case SubLineMainProcess:
		q.ExcludeBatchNo, q.NotNullColumn = domain.SentinelBatchNo, storage.ColumnStartBatch
		return q, func(b domain.BatchRecord) bool { return !b.IsSentinel() && b.StartBatch != nil }, nil
	case SubLineMachineDown:
		return positive(domain.EventTypeMachineDown, storage.ColumnTotalMachineDownMinutes)
	case SubLineBreakTime:
		return positive(domain.EventTypeBreak, storage.ColumnTotalBreakMinutes)
	case SubLineShiftChange:
		return positive(domain.EventTypeShiftChange, storage.ColumnTotalShiftChangeMinutes)
	}
	return q, nil, fmt.Errorf("%q: %w", subLine, domain.ErrUnknownSubLine)
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func buildBatchRow(b domain.BatchRecord) domain.BatchRow {
	row := domain.BatchRow{
		BatchNo:      b.BatchNo,
		ProductName:  orDefault(b.ProductName, notAvailable),
		ProcessCell:  b.ProcessCell,
		StartTime:    notAvailable,
		BatchStatus:  b.BatchStatus,
		TotalBags:    aggregate.ParseBags(b.TotalBags),
		BagsPerHour:  domain.FloatOr(b.BagsPerHour, 0),
		TotalMinutes: domain.IntOr(b.TotalMinutes, 0),
	}
	if row.BatchNo == "" {
		row.BatchNo = notAvailable
	}
	if row.BatchStatus == "" {
		row.BatchStatus = "Unknown"
	}
	if b.StartTime != nil {
		row.StartTime = b.StartTime.Format(displayTimeLayout)
	}
	if b.FinishTime != nil {
		finish := b.FinishTime.Format(displayTimeLayout)
		row.FinishTime = &finish
	}
	return row
}

// checkable reports whether a batch row carries what the detector compares.
func checkable(b domain.BatchRecord) bool {
	return !b.IsSentinel() && b.ProductName != nil && *b.ProductName != "" && b.TotalMinutes != nil
}

func buildBatchTableRow(b domain.BatchRecord, baselines []domain.ProductBaseline) domain.BatchTableRow {
	row := domain.BatchTableRow{
		BatchNo:                 b.BatchNo,
		ProductName:             b.ProductName,
		StartTime:               b.StartTime,
		FinishTime:              b.FinishTime,
		StartBatch:              b.StartBatch,
		StartBlend:              b.StartBlend,
		StartPack:               b.StartPack,
		StartTip:                b.StartTip,
		FinishTip:               b.FinishTip,
		FinishBlend:             b.FinishBlend,
		FinishPack:              b.FinishPack,
		TotalBags:               b.TotalBags,
		PartialBags:             b.PartialBags,
		TotalMinutes:            b.TotalMinutes,
		BagsPerHour:             b.BagsPerHour,
		BatchStatus:             b.BatchStatus,
		ProcessCell:             b.ProcessCell,
		DowntimeMinutes:         b.TotalDowntimeMinutes,
		DowntimePercentage:      b.DowntimePercentage,
		TotalBreakMinutes:       b.TotalBreakMinutes,
		TotalCleanMinutes:       b.TotalCleanMinutes,
		TotalMachineDownMinutes: b.TotalMachineDownMinutes,
		TotalShiftChangeMinutes: b.TotalShiftChangeMinutes,
		TotalDowntimeMinutes:    b.TotalDowntimeMinutes,
	}
	if !checkable(b) {
		return row
	}
	res := anomaly.Batch(anomaly.ObservationFrom(b),
		anomaly.FindBaseline(baselines, *b.ProductName, b.ProcessCell))
	row.IsAbnormal = res.IsAbnormal
	if res.IsAbnormal {
		row.AbnormalReason = res.Text()
		row.AnomalyReasons = res.Reasons
	}
	return row
}

func buildEventRow(e domain.EventRecord) domain.EventRow {
	typ := domain.Deref(e.EventType)
	return domain.EventRow{
		BatchNo:         domain.Deref(e.BatchNo),
		EventType:       typ,
		ActivityType:    typ,
		Location:        orDefault(e.Location, notAvailable),
		StartTime:       e.EventStart,
		FinishTime:      e.EventEnd,
		DurationMinutes: e.DurationMinutes,
		TotalMinutes:    e.DurationMinutes,
		ProcessCell:     domain.Deref(e.ProcessCell),
		BatchStatus:     typ,
		ProductName:     typ,
		EventDate:       e.EventDate,
		EventCategory:   orDefault(e.EventCategory, domain.EventCategoryOther.String()),
	}
}

func buildCleaningRow(c domain.CleaningRecord) domain.CleaningRow {
	return domain.CleaningRow{
		BatchNo:          c.BatchNo,
		ActivityType:     c.ActivityType,
		EventType:        c.ActivityType,
		Location:         c.Location,
		CleanCycle:       c.CleanCycle,
		StartTime:        c.CleanStart,
		FinishTime:       c.CleanEnd,
		DurationMinutes:  c.DurationMinutes,
		TotalMinutes:     c.DurationMinutes,
		ProcessCell:      c.ProcessCell,
		CleanStatus:      c.CleanStatus,
		BatchStatus:      c.CleanStatus,
		ProductName:      fmt.Sprintf("%s - Cycle %d", c.ActivityType, c.CleanCycle),
		LineType:         c.LineType,
		CleanDate:        c.CleanDate,
		ShiftType:        c.ShiftType,
		DurationCategory: c.DurationCategory,
	}
}

func buildRealtimeBatch(b domain.BatchRecord) domain.RealtimeBatch {
	rt := domain.RealtimeBatch{
		BatchNo:         b.BatchNo,
		ProductName:     b.ProductName,
		ProcessCell:     b.ProcessCell,
		Status:          b.BatchStatus,
		StartTime:       b.StartTime,
		CurrentDuration: domain.IntOr(b.TotalMinutes, 0),
		Efficiency:      domain.FloatOr(b.BagsPerHour, 0),
		TotalBags:       aggregate.ParseBags(b.TotalBags),
		Progress:        b.Status().Progress(),
	}
	if b.StartTime != nil {
		eta := b.StartTime.Add(time.Duration(rt.CurrentDuration)*time.Minute + estimatedRemaining)
		rt.EstimatedCompletion = &eta
	}
	return rt
}

func buildBaselineRow(b domain.ProductBaseline) domain.BaselineRow {
	return domain.BaselineRow{
		ItemKey:         b.ItemKey,
		ProductName:     b.ProductName,
		ProcessCell:     b.ProcessCell,
		BatchCount:      b.SampleCount,
		AvgTotalTime:    b.AvgTotalMinutes,
		AvgBlendTime:    b.AvgBlendMinutes,
		AvgPackTime:     b.AvgPackMinutes,
		AvgTipTime:      b.AvgTipMinutes,
		StdDevTotalTime: b.StdDevTotalMinutes,
		MinTotalTime:    b.MinTotalMinutes,
		MaxTotalTime:    b.MaxTotalMinutes,
	}
}

func buildProductPerformance(p domain.ProductBaseline, recent []domain.ProductBaseline) domain.ProductPerformance {
	perf := domain.ProductPerformance{
		ItemKey:               p.ItemKey,
		ProductName:           p.ProductName,
		ProcessCell:           p.ProcessCell,
		BatchCount:            p.SampleCount,
		AvgTotalMinutes:       p.AvgTotalMinutes,
		AvgBlendMinutes:       p.AvgBlendMinutes,
		AvgPackMinutes:        p.AvgPackMinutes,
		AvgTipMinutes:         p.AvgTipMinutes,
		AvgBagsPerHour:        p.AvgBagsPerHour,
		AvgNetBagsPerHour:     p.AvgNetBagsPerHour,
		TotalBagsProduced:     p.TotalBagsProduced,
		AvgDowntimePercentage: p.AvgDowntimePercentage,
		StdDevTotalMinutes:    p.StdDevTotalMinutes,
		MinTotalMinutes:       p.MinTotalMinutes,
		MaxTotalMinutes:       p.MaxTotalMinutes,
	}
	res := anomaly.Product(p.AvgTotalMinutes, anomaly.FindBaseline(recent, p.ProductName, p.ProcessCell))
	perf.IsAbnormal = res.IsAbnormal
	if res.IsAbnormal {
		perf.AbnormalReason = res.Text()
		perf.AnomalyReasons = res.Reasons
	}
	return perf
}

// dedupeProducts keeps one row per item, product and line, the one with the
// most batches, ordered by batch count.
func dedupeProducts(rows []domain.ProductBaseline) []domain.ProductBaseline {
	type key struct{ item, product, cell string }
	best := make(map[key]domain.ProductBaseline)
	for _, p := range rows {
		if p.ItemKey == "" || p.ProductName == "" || p.ProcessCell == "" {
			continue
		}
		k := key{p.ItemKey, p.ProductName, p.ProcessCell}
		if cur, ok := best[k]; !ok || p.SampleCount > cur.SampleCount {
			best[k] = p
		}
	}
	out := make([]domain.ProductBaseline, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SampleCount != out[j].SampleCount {
			return out[i].SampleCount > out[j].SampleCount
		}
		if out[i].ProcessCell != out[j].ProcessCell {
			return out[i].ProcessCell < out[j].ProcessCell
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

func buildPerformance(rows []domain.BatchRecord, now time.Time) domain.PerformanceMetrics {
	batches := aggregate.MainProcess(rows, now, performanceWindowDays, "")

	type dayCell struct{ date, cell string }
	dayKey := func(b domain.BatchRecord) string {
		date := ""
		if b.BatchDate != nil {
			date = b.BatchDate.Format(dateLayout)
		}
		return date + "|" + b.ProcessCell
	}
	split := func(k string) dayCell {
		date, cell, _ := strings.Cut(k, "|")
		return dayCell{date, cell}
	}

	bph := aggregate.GroupBy(batches, dayKey,
		func(b domain.BatchRecord) (float64, bool) { return aggregate.OrZero(b.BagsPerHour) }, nil)
	downtime := aggregate.GroupBy(batches, dayKey,
		func(b domain.BatchRecord) (float64, bool) { return aggregate.OrZero(b.DowntimePercentage) }, nil)

	daily := make([]domain.DailyProduction, len(bph))
	for i, g := range bph {
		k := split(g.Key)
		daily[i] = domain.DailyProduction{
			Date:                  k.date,
			ProcessCell:           k.cell,
			BatchCount:            g.Count,
			AvgBagsPerHour:        g.Average,
			AvgDowntimePercentage: downtime[i].Average,
		}
	}
	sort.SliceStable(daily, func(i, j int) bool {
		if daily[i].Date != daily[j].Date {
			return daily[i].Date > daily[j].Date
		}
		return daily[i].ProcessCell < daily[j].ProcessCell
	})

	byCell := func(b domain.BatchRecord) string { return b.ProcessCell }
	cycle := aggregate.GroupBy(batches, byCell,
		func(b domain.BatchRecord) (float64, bool) { return float64(domain.IntOr(b.TotalMinutes, 0)), true }, nil)
	cellBph := aggregate.GroupBy(batches, byCell,
		func(b domain.BatchRecord) (float64, bool) { return aggregate.OrZero(b.BagsPerHour) }, nil)
	cellDowntime := aggregate.GroupBy(batches, byCell,
		func(b domain.BatchRecord) (float64, bool) { return aggregate.OrZero(b.DowntimePercentage) }, nil)
	complete := aggregate.GroupBy(batches, byCell,
		func(b domain.BatchRecord) (float64, bool) {
			if b.Status() == domain.BatchStatusComplete {
				return 1, true
			}
			return 0, true
		}, nil)

	cells := make([]domain.CellEfficiency, len(cycle))
	for i, g := range cycle {
		cells[i] = domain.CellEfficiency{
			ProcessCell:           g.Key,
			TotalBatches:          g.Count,
			AvgCycleTime:          g.Average,
			AvgBagsPerHour:        cellBph[i].Average,
			AvgDowntimePercentage: cellDowntime[i].Average,
			CompletionRate:        aggregate.Percent(int(complete[i].Sum), g.Count),
		}
	}

	return domain.PerformanceMetrics{
		DailyProduction:       daily,
		ProcessCellEfficiency: cells,
		GeneratedAt:           now,
	}
}

// downtimeEvent reports whether an event counts as downtime.
func downtimeEvent(e domain.EventRecord) bool {
	return domain.Deref(e.EventType) != "" &&
		e.Type() != domain.EventTypeMeeting &&
		domain.IntOr(e.DurationMinutes, 0) > 0
}

func buildEventAnalytics(events []domain.EventRecord) []domain.EventAnalytics {
	type key struct{ cell, typ, category string }
	type acc struct {
		domain.EventAnalytics
		hours map[int]int
	}
	groups := make(map[key]*acc)
	var order []key
	for _, e := range events {
		if e.ProcessCell == nil || !downtimeEvent(e) {
			continue
		}
		k := key{*e.ProcessCell, *e.EventType, orDefault(e.EventCategory, domain.EventCategoryOther.String())}
		g, ok := groups[k]
		if !ok {
			g = &acc{
				EventAnalytics: domain.EventAnalytics{ProcessCell: k.cell, EventType: k.typ, EventCategory: k.category},
				hours:          make(map[int]int),
			}
			groups[k] = g
			order = append(order, k)
		}
		d := *e.DurationMinutes
		if g.EventCount == 0 || d < g.MinDurationMinutes {
			g.MinDurationMinutes = d
		}
		if d > g.MaxDurationMinutes {
			g.MaxDurationMinutes = d
		}
		g.EventCount++
		g.TotalDurationMinutes += d
		if e.EventStart != nil {
			g.hours[e.EventStart.Hour()]++
		}
	}

	out := make([]domain.EventAnalytics, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.AvgDurationMinutes = float64(g.TotalDurationMinutes) / float64(g.EventCount)
		g.PeakHour = peakHour(g.hours)
		out = append(out, g.EventAnalytics)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ProcessCell != b.ProcessCell {
			return a.ProcessCell < b.ProcessCell
		}
		if a.EventType != b.EventType {
			return a.EventType < b.EventType
		}
		return a.EventCategory < b.EventCategory
	})
	return out
}

// peakHour is the hour with the most events; ties go to the earlier hour.
func peakHour(hours map[int]int) int {
	peak, most := 0, 0
	for h := 0; h < 24; h++ {
		if hours[h] > most {
			peak, most = h, hours[h]
		}
	}
	return peak
}

func eventLabel(e domain.EventRecord) string {
	if t := e.Type(); t != domain.EventTypeUnknown {
		return t.Label()
	}
	return domain.Deref(e.EventType)
}

func buildDowntimeBreakdown(events []domain.EventRecord, days int) domain.DowntimeBreakdown {
	kept := make([]domain.EventRecord, 0, len(events))
	for _, e := range events {
		if downtimeEvent(e) {
			kept = append(kept, e)
		}
	}

	groups := aggregate.PercentageBreakdown(aggregate.GroupBy(kept, eventLabel,
		func(e domain.EventRecord) (float64, bool) { return aggregate.Present(e.DurationMinutes) },
		aggregate.ByTotalDesc))
	byType := make([]domain.DowntimeByType, len(groups))
	for i, g := range groups {
		byType[i] = domain.DowntimeByType{
			EventType:    g.Key,
			TotalMinutes: int(g.Sum),
			EventCount:   g.Count,
			AvgDuration:  g.Average,
			Percentage:   g.Percentage,
		}
	}

	perDay := make(map[string]*domain.DailyDowntime)
	for _, e := range kept {
		if e.EventDate == nil {
			continue
		}
		date := e.EventDate.Format(dateLayout)
		d, ok := perDay[date]
		if !ok {
			d = &domain.DailyDowntime{Date: date}
			perDay[date] = d
		}
		m := *e.DurationMinutes
		switch e.Type() {
		case domain.EventTypeBreak:
			d.BreakMinutes += m
		case domain.EventTypeClean:
			d.CleanMinutes += m
		case domain.EventTypeMachineDown:
			d.MachineDownMinutes += m
		case domain.EventTypeShiftChange:
			d.ShiftChangeMinutes += m
		}
		d.TotalMinutes += m
	}
	daily := make([]domain.DailyDowntime, 0, len(perDay))
	for _, d := range perDay {
		daily = append(daily, *d)
	}
	sort.Slice(daily, func(i, j int) bool { return daily[i].Date > daily[j].Date })
	if len(daily) > days {
		daily = daily[:days]
	}

	return domain.DowntimeBreakdown{DowntimeBreakdown: byType, DailyBreakdown: daily}
}

// typeGroups rolls the positive downtime categories of the rows up per type.
func typeGroups(rows []domain.BatchRecord) []domain.GroupSummary {
	return aggregate.GroupDowntimeByType(aggregate.DowntimeEntries(rows))
}

func buildEventSummary(rows []domain.BatchRecord, now time.Time) domain.EventSummary {
	groups := typeGroups(rows)
	summary := domain.EventSummary{
		EventSummary: make([]domain.EventTypeSummary, len(groups)),
		GeneratedAt:  now,
	}
	for i, g := range groups {
		summary.EventSummary[i] = domain.EventTypeSummary{
			EventType:            g.Key,
			EventCategory:        domain.ParseEventType(g.Key).Category().String(),
			EventCount:           g.Count,
			TotalDurationMinutes: int(g.Sum),
			AvgDurationMinutes:   g.Average,
			MaxDurationMinutes:   int(g.Max),
			MinDurationMinutes:   int(g.Min),
		}
		summary.TotalEvents += g.Count
		summary.TotalDowntimeMinutes += int(g.Sum)
	}
	return summary
}

func buildDowntimeAnalysis(rows []domain.BatchRecord, cell string, now time.Time) domain.DowntimeAnalysis {
	groups := typeGroups(rows)
	byType := make([]domain.TypeDowntime, len(groups))
	for i, g := range groups {
		byType[i] = domain.TypeDowntime{
			EventType:    g.Key,
			TotalMinutes: int(g.Sum),
			EventCount:   g.Count,
			AvgDuration:  g.Average,
		}
	}

	dated := make([]domain.BatchRecord, 0, len(rows))
	for _, b := range rows {
		if b.BatchDate != nil {
			dated = append(dated, b)
		}
	}
	days := aggregate.GroupBy(dated,
		func(b domain.BatchRecord) string { return b.BatchDate.Format(dateLayout) },
		func(b domain.BatchRecord) (float64, bool) { return float64(aggregate.CategoryMinutes(b)), true },
		aggregate.ByKey)
	byDay := make([]domain.DayDowntime, len(days))
	for i, g := range days {
		byDay[i] = domain.DayDowntime{Date: g.Key, TotalMinutes: int(g.Sum), EventCount: g.Count}
	}

	if cell == "" {
		cell = "All"
	}
	return domain.DowntimeAnalysis{
		DowntimeByType: byType,
		DowntimeByDay:  byDay,
		ProcessCell:    cell,
		GeneratedAt:    now,
	}
}

func buildShiftChangeImpact(rows []domain.BatchRecord, now time.Time) domain.ShiftChangeImpact {
	byCell := make(map[string][]domain.BatchRecord)
	for _, b := range rows {
		byCell[b.ProcessCell] = append(byCell[b.ProcessCell], b)
	}
	cells := make([]string, 0, len(byCell))
	for c := range byCell {
		cells = append(cells, c)
	}
	sort.Strings(cells)

	out := domain.ShiftChangeImpact{
		ShiftChangeImpact: make([]domain.CellShiftImpact, 0, len(cells)),
		GeneratedAt:       now,
	}
	for _, c := range cells {
		var all, shift, normal []float64
		for _, b := range byCell[c] {
			v := domain.FloatOr(b.BagsPerHour, 0)
			all = append(all, v)
			switch domain.IntOr(b.HasShiftChangeImpact, -1) {
			case 1:
				shift = append(shift, v)
			case 0:
				normal = append(normal, v)
			}
		}
		out.ShiftChangeImpact = append(out.ShiftChangeImpact, domain.CellShiftImpact{
			ProcessCell:                 c,
			TotalBatches:                len(all),
			ShiftChangeBatches:          len(shift),
			NormalBatches:               len(normal),
			AvgBagsPerHour:              aggregate.Average(all),
			AvgNormalPeriodBagsPerHour:  aggregate.Average(normal),
			AvgShiftChangeBagsPerHour:   aggregate.Average(shift),
			ShiftChangeImpactPercentage: aggregate.Percent(len(shift), len(all)),
		})
	}
	return out
}
