package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kubo-market/batch-dashboard/internal/cache"
	"github.com/kubo-market/batch-dashboard/internal/domain"
	"github.com/kubo-market/batch-dashboard/internal/storage"
)

func TestSummary_CachedPerCell(t *testing.T) {
	b1 := batch("100001", "Aussie", 2)
	b1.BagsPerHour = floatp(12)
	b1.TotalBags = strp("40")
	running := batch("100002", "Aussie", 1)
	running.BatchStatus = "Blending"
	repo := &fakeRepo{batches: []domain.BatchRecord{
		b1, running,
		batch(domain.SentinelBatchNo, "Aussie", 3),
	}}
	svc := NewDashboardService(repo, testOpts(WithCache(cache.NewMemory().WithClock(func() time.Time { return now })))...)

	s, err := svc.Summary(context.Background(), "Aussie")
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalBatches)
	assert.Equal(t, 1, s.CompletedBatches)
	assert.Equal(t, 1, s.InProgressBatches)
	assert.Equal(t, 40, s.TotalProduction)
	assert.Equal(t, 12.0, s.AvgBagsPerHour)
	assert.Equal(t, now, s.LastUpdated)

	require.Len(t, repo.batchQueries, 1)
	q := repo.batchQueries[0]
	assert.Equal(t, "Aussie", q.ProcessCell)
	assert.Equal(t, now.AddDate(0, 0, -3), q.Since)
	assert.Equal(t, domain.SentinelBatchNo, q.ExcludeBatchNo)

	_, err = svc.Summary(context.Background(), "Aussie")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.batchCalls(), "second call should be served from cache")

	_, err = svc.Summary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.batchCalls())
}

func TestSummary_CacheStaysBoundedAcrossCells(t *testing.T) {
	clock := now
	mem := cache.NewMemory().WithClock(func() time.Time { return clock })
	svc := NewDashboardService(&fakeRepo{}, testOpts(WithCache(mem))...)
	ctx := context.Background()

	for i := 0; i < 2000; i++ {
		if i == 1000 {
			clock = clock.Add(time.Hour)
		}
		_, err := svc.Summary(ctx, "cell-"+strconv.Itoa(i))
		require.NoError(t, err)
	}
	assert.Equal(t, cache.DefaultMaxEntries, mem.Len())

	assert.Equal(t, cache.DefaultMaxEntries-1000, mem.Purge(), "only the first hour's entries are expired")
	assert.Equal(t, 1000, mem.Len())
}

func TestSummary_ErrorNotCached(t *testing.T) {
	repo := &fakeRepo{err: errBoom}
	svc := NewDashboardService(repo, testOpts(WithCache(cache.NewMemory()))...)

	_, err := svc.Summary(context.Background(), "")
	require.ErrorIs(t, err, errBoom)

	repo.err = nil
	_, err = svc.Summary(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, repo.batchCalls())
}

func TestBatches_TexasUsesPrefix(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewDashboardService(repo, testOpts()...)

	_, err := svc.Batches(context.Background(), "Texas", "")
	require.NoError(t, err)
	require.Len(t, repo.batchQueries, 1)
	assert.Equal(t, "TX", repo.batchQueries[0].ProcessCell)
	assert.True(t, repo.batchQueries[0].CellPrefix)

	_, err = svc.Batches(context.Background(), "Yankee", "")
	require.NoError(t, err)
	assert.Equal(t, "Yankee", repo.batchQueries[1].ProcessCell)
	assert.False(t, repo.batchQueries[1].CellPrefix)
}

func TestBatches_SubLines(t *testing.T) {
	main := batch("100001", "Aussie", 2)
	main.TotalMachineDownMinutes = intp(12)
	noStart := batch("100002", "Aussie", 3)
	noStart.StartBatch = nil
	noStart.TotalBreakMinutes = intp(15)
	shift := batch("100003", "Aussie", 4)
	shift.TotalShiftChangeMinutes = intp(12)
	sentinel := batch(domain.SentinelBatchNo, "Aussie", 5)

	repo := &fakeRepo{batches: []domain.BatchRecord{main, noStart, shift, sentinel}}
	svc := NewDashboardService(repo, testOpts()...)

	tests := []struct {
		subLine string
		want    []string
	}{
		{"", []string{"100001", "100002", "100003", domain.SentinelBatchNo}},
		{"CLEAN", []string{domain.SentinelBatchNo}},
		{"MAINPROCESS", []string{"100001", "100003"}},
		{"MACHINEDOWN", []string{"100001"}},
		{"breaktime", []string{"100002"}},
		{"SHIFTCHANGE", []string{"100003"}},
	}
	for _, tt := range tests {
		t.Run(tt.subLine, func(t *testing.T) {
			rows, err := svc.Batches(context.Background(), "Aussie", tt.subLine)
			require.NoError(t, err)
			var got []string
			for _, r := range rows {
				got = append(got, r.BatchNo)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBatches_SubLineNarrowsQuery(t *testing.T) {
	tests := []struct {
		subLine string
		want    storage.Query
	}{
		{"", storage.Query{}},
		{"clean", storage.Query{OnlyBatchNo: domain.SentinelBatchNo}},
		{"MAINPROCESS", storage.Query{ExcludeBatchNo: domain.SentinelBatchNo, NotNullColumn: storage.ColumnStartBatch}},
		{"MACHINEDOWN", storage.Query{PositiveColumn: storage.ColumnTotalMachineDownMinutes}},
		{"BREAKTIME", storage.Query{PositiveColumn: storage.ColumnTotalBreakMinutes}},
		{" shiftchange ", storage.Query{PositiveColumn: storage.ColumnTotalShiftChangeMinutes}},
	}
	for _, tt := range tests {
		t.Run(tt.subLine, func(t *testing.T) {
			repo := &fakeRepo{}
			svc := NewDashboardService(repo, testOpts()...)

			_, err := svc.Batches(context.Background(), "Yankee", tt.subLine)
			require.NoError(t, err)
			require.Len(t, repo.batchQueries, 1)

			want := tt.want
			want.ProcessCell = "Yankee"
			want.Since = now.AddDate(0, 0, -3)
			assert.Equal(t, want, repo.batchQueries[0])
		})
	}
}

func TestBatches_UnknownSubLine(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewDashboardService(repo, testOpts()...)

	_, err := svc.Batches(context.Background(), "", "LUNCH")
	require.ErrorIs(t, err, domain.ErrUnknownSubLine)
	assert.Zero(t, repo.batchCalls())
}

func TestBatches_RowDefaults(t *testing.T) {
	running := domain.BatchRecord{
		BatchNo:     "100004",
		ProcessCell: "TX1",
		TotalBags:   strp("n/a"),
	}
	done := batch("100005", "TX1", 2)
	done.ProductName = strp("Chili Dust 20kg")
	done.FinishTime = hoursAgo(0.5)
	done.TotalMinutes = intp(90)
	done.BagsPerHour = floatp(25.5)
	done.TotalBags = strp(" 38 ")

	repo := &fakeRepo{batches: []domain.BatchRecord{running, done}}
	svc := NewDashboardService(repo, testOpts()...)

	rows, err := svc.Batches(context.Background(), "TX1", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "N/A", r.ProductName)
	assert.Equal(t, "N/A", r.StartTime)
	assert.Nil(t, r.FinishTime)
	assert.Equal(t, "Unknown", r.BatchStatus)
	assert.Zero(t, r.TotalBags)
	assert.Zero(t, r.TotalMinutes)

	r = rows[1]
	assert.Equal(t, "Chili Dust 20kg", r.ProductName)
	assert.Equal(t, "2026-03-10 10:00:00", r.StartTime)
	require.NotNil(t, r.FinishTime)
	assert.Equal(t, "2026-03-10 11:30:00", *r.FinishTime)
	assert.Equal(t, 38, r.TotalBags)
	assert.Equal(t, 25.5, r.BagsPerHour)
	assert.Equal(t, 90, r.TotalMinutes)
}

func timedBatch(no string, total int) domain.BatchRecord {
	b := batch(no, "Aussie", 10)
	b.ProductName = strp("Beef Rub 25kg")
	b.TotalMinutes = intp(total)
	b.FinishTime = timep(b.StartTime.Add(time.Duration(total) * time.Minute))
	b.StartBlend = timep(b.StartTime.Add(15 * time.Minute))
	b.StartPack = timep(b.StartTime.Add(100 * time.Minute))
	return b
}

func TestBatchTable_AnnotatesAgainstBaseline(t *testing.T) {
	repo := &fakeRepo{
		batches: []domain.BatchRecord{
			timedBatch("100001", 240),
			timedBatch("100002", 182),
			batch(domain.SentinelBatchNo, "Aussie", 3),
		},
		baselines: []domain.ProductBaseline{{
			ProductName:        "Beef Rub 25kg",
			ProcessCell:        "Aussie",
			SampleCount:        10,
			AvgTotalMinutes:    180,
			StdDevTotalMinutes: 5,
		}},
	}
	rec := newRecorder()
	svc := NewDashboardService(repo, testOpts(WithAnomalyRecorder(rec))...)

	rows, err := svc.BatchTable(context.Background(), "Aussie", 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.True(t, rows[0].IsAbnormal)
	assert.Contains(t, rows[0].AbnormalReason, "Total time: 240 min (33% slower")
	require.Len(t, rows[0].AnomalyReasons, 1)
	assert.False(t, rows[1].IsAbnormal)
	assert.Empty(t, rows[1].AbnormalReason)
	assert.False(t, rows[2].IsAbnormal)

	assert.Equal(t, 2, rec.checked["batch"])
	assert.Equal(t, 1, rec.flagged["batch"])

	q := repo.batchQueries[0]
	assert.Equal(t, 100, q.Limit)
	assert.Equal(t, now.AddDate(0, 0, -3), q.Since)
	assert.Equal(t, "Aussie", q.ProcessCell)
}

func TestBatchTable_StructuralOutlierWithoutBaseline(t *testing.T) {
	b := timedBatch("100003", 3)
	b.StartBlend = b.StartTime
	b.StartPack = b.StartTime
	repo := &fakeRepo{batches: []domain.BatchRecord{b}}
	svc := NewDashboardService(repo, testOpts()...)

	rows, err := svc.BatchTable(context.Background(), "", 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsAbnormal)
	assert.Contains(t, rows[0].AbnormalReason, "Extremely short cycle time")
	assert.Equal(t, now.AddDate(0, 0, -7), repo.batchQueries[0].Since)
}

func TestDays_Validation(t *testing.T) {
	svc := NewDashboardService(&fakeRepo{}, testOpts()...)
	ctx := context.Background()

	for _, days := range []int{-1, 91, 365} {
		_, err := svc.BatchTable(ctx, "", days)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, "batchtable days=%d", days)
		_, err = svc.Events(ctx, "", "", days)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, "events days=%d", days)
		_, err = svc.Cleaning(ctx, "", days)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, "cleaning days=%d", days)
		_, err = svc.Downtime(ctx, "", days)
		assert.ErrorIs(t, err, domain.ErrInvalidParameter, "downtime days=%d", days)
	}

	_, err := svc.BatchTable(ctx, "", 90)
	assert.NoError(t, err)
}

func TestEvents_DropsIncompleteRowsAndMapsFields(t *testing.T) {
	repo := &fakeRepo{events: []domain.EventRecord{
		{BatchNo: strp("100001"), ProcessCell: strp("Aussie"), EventType: strp("Break"), EventStart: hoursAgo(2), DurationMinutes: intp(15)},
		{BatchNo: nil, ProcessCell: strp("Aussie"), EventType: strp("Break")},
		{BatchNo: strp("100002"), ProcessCell: nil, EventType: strp("Clean")},
		{BatchNo: strp("100003"), ProcessCell: strp("Aussie"), EventType: nil},
		{BatchNo: strp("100004"), ProcessCell: strp("Aussie"), EventType: strp("Clean"), Location: strp("Blender"), EventCategory: strp("Cleaning")},
	}}
	svc := NewDashboardService(repo, testOpts()...)

	rows, err := svc.Events(context.Background(), "Aussie", "Break", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "100001", r.BatchNo)
	assert.Equal(t, "Break", r.EventType)
	assert.Equal(t, "Break", r.ActivityType)
	assert.Equal(t, "Break", r.BatchStatus)
	assert.Equal(t, "Break", r.ProductName)
	assert.Equal(t, "N/A", r.Location)
	assert.Equal(t, "Other", r.EventCategory)
	assert.Equal(t, 15, *r.TotalMinutes)

	assert.Equal(t, "Blender", rows[1].Location)
	assert.Equal(t, "Cleaning", rows[1].EventCategory)

	q := repo.eventQueries[0]
	assert.Equal(t, "Break", q.EventType)
	assert.Equal(t, "Aussie", q.ProcessCell)
}

func TestEvents_CappedAfterFiltering(t *testing.T) {
	var events []domain.EventRecord
	for i := 0; i < 150; i++ {
		events = append(events, domain.EventRecord{BatchNo: strp("1"), ProcessCell: strp("Aussie"), EventType: strp("Break")})
	}
	svc := NewDashboardService(&fakeRepo{events: events}, testOpts()...)

	rows, err := svc.Events(context.Background(), "", "", 3)
	require.NoError(t, err)
	assert.Len(t, rows, 100)
}

func TestCleaning_Mapping(t *testing.T) {
	repo := &fakeRepo{cleaning: []domain.CleaningRecord{{
		BatchNo:      domain.SentinelBatchNo,
		ProcessCell:  "Yankee",
		ActivityType: "Full Clean",
		CleanCycle:   2,
		CleanStatus:  "Complete",
		CleanStart:   hoursAgo(3),
	}}}
	svc := NewDashboardService(repo, testOpts()...)

	rows, err := svc.Cleaning(context.Background(), "Yankee", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Full Clean - Cycle 2", rows[0].ProductName)
	assert.Equal(t, "Full Clean", rows[0].EventType)
	assert.Equal(t, "Complete", rows[0].BatchStatus)
	assert.Equal(t, 100, repo.cleanQueries[0].Limit)
}

func TestPerformance(t *testing.T) {
	a1 := batch("100001", "Aussie", 50)
	a1.BatchDate = day(2026, 3, 8)
	a1.BagsPerHour = floatp(10)
	a1.DowntimePercentage = floatp(5)
	a1.TotalMinutes = intp(100)
	a2 := batch("100002", "Aussie", 52)
	a2.BatchDate = day(2026, 3, 8)
	a2.BatchStatus = "Blending"
	y1 := batch("200001", "Yankee", 20)
	y1.BatchDate = day(2026, 3, 9)
	y1.BagsPerHour = floatp(20)
	y1.DowntimePercentage = floatp(10)
	y1.TotalMinutes = intp(200)

	repo := &fakeRepo{batches: []domain.BatchRecord{a1, a2, y1, batch(domain.SentinelBatchNo, "Aussie", 10)}}
	svc := NewDashboardService(repo, testOpts()...)

	p, err := svc.Performance(context.Background())
	require.NoError(t, err)

	require.Len(t, p.DailyProduction, 2)
	assert.Equal(t, domain.DailyProduction{Date: "2026-03-09", ProcessCell: "Yankee", BatchCount: 1, AvgBagsPerHour: 20, AvgDowntimePercentage: 10}, p.DailyProduction[0])
	assert.Equal(t, domain.DailyProduction{Date: "2026-03-08", ProcessCell: "Aussie", BatchCount: 2, AvgBagsPerHour: 5, AvgDowntimePercentage: 2.5}, p.DailyProduction[1])

	require.Len(t, p.ProcessCellEfficiency, 2)
	assert.Equal(t, domain.CellEfficiency{ProcessCell: "Aussie", TotalBatches: 2, AvgCycleTime: 50, AvgBagsPerHour: 5, AvgDowntimePercentage: 2.5, CompletionRate: 50}, p.ProcessCellEfficiency[0])
	assert.Equal(t, domain.CellEfficiency{ProcessCell: "Yankee", TotalBatches: 1, AvgCycleTime: 200, AvgBagsPerHour: 20, AvgDowntimePercentage: 10, CompletionRate: 100}, p.ProcessCellEfficiency[1])
	assert.Equal(t, now, p.GeneratedAt)

	q := repo.batchQueries[0]
	assert.Equal(t, now.AddDate(0, 0, -30), q.Since)
	assert.Equal(t, historyLimit, q.Limit)
}

func TestProcessCells_Cached(t *testing.T) {
	repo := &fakeRepo{cells: []string{"Aussie", "TX1"}}
	calls := 0
	svc := NewDashboardService(&countingRepo{fakeRepo: repo, cellCalls: &calls}, testOpts(WithCache(cache.NewMemory()))...)

	for i := 0; i < 3; i++ {
		cells, err := svc.ProcessCells(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Aussie", "TX1"}, cells)
	}
	assert.Equal(t, 1, calls)
}

type countingRepo struct {
	*fakeRepo
	cellCalls *int
}

func (c *countingRepo) ProcessCells(ctx context.Context) ([]string, error) {
	*c.cellCalls++
	return c.fakeRepo.ProcessCells(ctx)
}

func TestAnalytics(t *testing.T) {
	var history []domain.BatchRecord
	for i, total := range []int{100, 102, 98} {
		b := batch(strconv.Itoa(300001+i), "Seasoning", float64(24*(i+1)))
		b.ProductName = strp("Garlic Pepper 10kg")
		b.TotalMinutes = intp(total)
		history = append(history, b)
	}

	repo := &fakeRepo{
		batches: history,
		efficiency: []domain.ProcessCellEfficiency{
			{ProcessCell: "Seasoning", TotalBatches: 24, CompletionRate: floatp(95.8)},
		},
		baselines: []domain.ProductBaseline{
			{ItemKey: "SEA-050", ProductName: "Garlic Pepper 10kg", ProcessCell: "Seasoning", SampleCount: 10, AvgTotalMinutes: 180, StdDevTotalMinutes: 4},
			{ItemKey: "SEA-050", ProductName: "Garlic Pepper 10kg", ProcessCell: "Seasoning", SampleCount: 4, AvgTotalMinutes: 90},
			{ItemKey: "SEA-077", ProductName: "Lemon Herb 10kg", ProcessCell: "Seasoning", SampleCount: 12, AvgTotalMinutes: 110, StdDevTotalMinutes: 5},
			{ItemKey: "", ProductName: "Orphan", ProcessCell: "Seasoning", SampleCount: 99},
		},
		events: []domain.EventRecord{
			{ProcessCell: strp("Aussie"), EventType: strp("Break"), EventCategory: strp("Planned Downtime"), DurationMinutes: intp(10), EventStart: timep(time.Date(2026, 3, 9, 8, 5, 0, 0, time.UTC))},
			{ProcessCell: strp("Aussie"), EventType: strp("Break"), EventCategory: strp("Planned Downtime"), DurationMinutes: intp(20), EventStart: timep(time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC))},
			{ProcessCell: strp("Aussie"), EventType: strp("Break"), EventCategory: strp("Planned Downtime"), DurationMinutes: intp(30), EventStart: timep(time.Date(2026, 3, 8, 14, 30, 0, 0, time.UTC))},
			{ProcessCell: strp("Aussie"), EventType: strp("Meeting"), DurationMinutes: intp(15)},
			{ProcessCell: strp("Aussie"), EventType: strp("Machine Down"), DurationMinutes: intp(0)},
			{ProcessCell: strp("Aussie"), EventType: strp("Machine Down"), DurationMinutes: intp(12), EventStart: timep(time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC))},
			{ProcessCell: nil, EventType: strp("Break"), DurationMinutes: intp(5)},
		},
	}
	rec := newRecorder()
	svc := NewDashboardService(repo, testOpts(WithAnomalyRecorder(rec))...)

	a, err := svc.Analytics(context.Background())
	require.NoError(t, err)

	require.Len(t, a.ProcessCellEfficiency, 1)
	assert.Equal(t, "Seasoning", a.ProcessCellEfficiency[0].ProcessCell)

	require.Len(t, a.ProductPerformance, 2)
	lemon, garlic := a.ProductPerformance[0], a.ProductPerformance[1]
	assert.Equal(t, "Lemon Herb 10kg", lemon.ProductName)
	assert.False(t, lemon.IsAbnormal, "no recent baseline for lemon")
	assert.Equal(t, "Garlic Pepper 10kg", garlic.ProductName)
	assert.Equal(t, 10, garlic.BatchCount)
	assert.True(t, garlic.IsAbnormal)
	assert.Contains(t, garlic.AbnormalReason, "slower than the expected 100.0 minutes (based on 3 recent batches)")
	assert.Equal(t, 2, rec.checked["product"])
	assert.Equal(t, 1, rec.flagged["product"])

	require.Len(t, a.EventAnalytics, 2)
	brk := a.EventAnalytics[0]
	assert.Equal(t, domain.EventAnalytics{
		ProcessCell:          "Aussie",
		EventType:            "Break",
		EventCategory:        "Planned Downtime",
		EventCount:           3,
		TotalDurationMinutes: 60,
		AvgDurationMinutes:   20,
		MinDurationMinutes:   10,
		MaxDurationMinutes:   30,
		PeakHour:             14,
	}, brk)
	md := a.EventAnalytics[1]
	assert.Equal(t, "Machine Down", md.EventType)
	assert.Equal(t, "Other", md.EventCategory)
	assert.Equal(t, 1, md.EventCount)
	assert.Equal(t, 9, md.PeakHour)

	assert.Equal(t, now.AddDate(0, 0, -90), repo.batchQueries[0].Since)
	assert.Equal(t, now.AddDate(0, 0, -30), repo.eventQueries[0].Since)
}

func TestAnalytics_RepositoryError(t *testing.T) {
	svc := NewDashboardService(&fakeRepo{err: errBoom}, testOpts()...)
	_, err := svc.Analytics(context.Background())
	assert.ErrorIs(t, err, errBoom)
}

func TestPeakHour_TiesGoToEarlierHour(t *testing.T) {
	assert.Equal(t, 3, peakHour(map[int]int{3: 2, 17: 2, 9: 1}))
	assert.Equal(t, 0, peakHour(map[int]int{}))
}

func TestDowntime(t *testing.T) {
	d0, d1, d2 := day(2026, 3, 7), day(2026, 3, 8), day(2026, 3, 9)
	ev := func(typ string, minutes int, date *time.Time) domain.EventRecord {
		return domain.EventRecord{ProcessCell: strp("Aussie"), EventType: strp(typ), DurationMinutes: intp(minutes), EventDate: date}
	}
	repo := &fakeRepo{events: []domain.EventRecord{
		ev("Break", 15, d2),
		ev("Clean", 20, d2),
		ev("Machine Down", 10, d1),
		ev("Meeting", 30, d1),
		ev("Forklift", 5, d0),
		ev("", 40, d0),
		ev("Shift Change", 0, d0),
	}}
	svc := NewDashboardService(repo, testOpts()...)

	d, err := svc.Downtime(context.Background(), "Aussie", 2)
	require.NoError(t, err)

	require.Len(t, d.DowntimeBreakdown, 4)
	assert.Equal(t, domain.DowntimeByType{EventType: "Cleaning", TotalMinutes: 20, EventCount: 1, AvgDuration: 20, Percentage: 40}, d.DowntimeBreakdown[0])
	assert.Equal(t, "Break Time", d.DowntimeBreakdown[1].EventType)
	assert.Equal(t, 30.0, d.DowntimeBreakdown[1].Percentage)
	assert.Equal(t, "Machine Down", d.DowntimeBreakdown[2].EventType)
	assert.Equal(t, "Forklift", d.DowntimeBreakdown[3].EventType)
	assert.Equal(t, 10.0, d.DowntimeBreakdown[3].Percentage)

	require.Len(t, d.DailyBreakdown, 2)
	assert.Equal(t, domain.DailyDowntime{Date: "2026-03-09", BreakMinutes: 15, CleanMinutes: 20, TotalMinutes: 35}, d.DailyBreakdown[0])
	assert.Equal(t, domain.DailyDowntime{Date: "2026-03-08", MachineDownMinutes: 10, TotalMinutes: 10}, d.DailyBreakdown[1])

	q := repo.eventQueries[0]
	assert.Equal(t, now.AddDate(0, 0, -2), q.Since)
	assert.Equal(t, "Aussie", q.ProcessCell)
}

func TestDowntime_DefaultsToSevenDays(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewDashboardService(repo, testOpts()...)

	d, err := svc.Downtime(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, d.DowntimeBreakdown)
	assert.Empty(t, d.DailyBreakdown)
	assert.Equal(t, now.AddDate(0, 0, -7), repo.eventQueries[0].Since)
}

func TestRealtime(t *testing.T) {
	blending := batch("100001", "Aussie", 2)
	blending.BatchStatus = "Blending"
	blending.ProductName = strp("Beef Rub 25kg")
	blending.TotalBags = strp("12")
	packing := batch("100002", "Aussie", 1)
	packing.BatchStatus = "Packing"
	packing.TotalMinutes = intp(45)
	packing.BagsPerHour = floatp(16)
	sentinel := batch(domain.SentinelBatchNo, "Aussie", 1)
	sentinel.BatchStatus = "Blending"
	unknown := batch("100003", "Aussie", 1)
	unknown.BatchStatus = ""

	repo := &fakeRepo{batches: []domain.BatchRecord{
		blending, packing, sentinel, unknown,
		batch("100004", "Aussie", 3),
	}}
	svc := NewDashboardService(repo, testOpts()...)

	rows, err := svc.Realtime(context.Background(), "Aussie")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	r := rows[0]
	assert.Equal(t, "100001", r.BatchNo)
	assert.Equal(t, 50, r.Progress)
	assert.Equal(t, 0, r.CurrentDuration)
	assert.Equal(t, 12, r.TotalBags)
	require.NotNil(t, r.EstimatedCompletion)
	assert.Equal(t, now.Add(-time.Hour), *r.EstimatedCompletion)

	r = rows[1]
	assert.Equal(t, 80, r.Progress)
	assert.Equal(t, 45, r.CurrentDuration)
	assert.Equal(t, 16.0, r.Efficiency)
	assert.Equal(t, now.Add(45*time.Minute), *r.EstimatedCompletion)

	assert.Equal(t, 0, rows[2].Progress)

	q := repo.batchQueries[0]
	assert.Equal(t, "Aussie", q.ProcessCell)
	assert.True(t, q.Since.IsZero(), "running batches are not windowed")
	assert.Equal(t, domain.SentinelBatchNo, q.ExcludeBatchNo)
	assert.Equal(t, "Complete", q.ExcludeStatus)
	assert.Equal(t, realtimeLimit, q.Limit)
}

func TestRealtime_LongRunningBatch(t *testing.T) {
	stuck := batch("100001", "Aussie", 5*24)
	stuck.BatchStatus = "Packing"
	repo := &fakeRepo{batches: []domain.BatchRecord{stuck}}
	svc := NewDashboardService(repo, testOpts()...)

	rows, err := svc.Realtime(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "100001", rows[0].BatchNo)
	assert.Equal(t, 80, rows[0].Progress)
}

func TestProductBaselines_Ordering(t *testing.T) {
	repo := &fakeRepo{baselines: []domain.ProductBaseline{
		{ProductName: "Smoky BBQ 25kg", ProcessCell: "Yankee", SampleCount: 10},
		{ProductName: "Lamb Marinade 20kg", ProcessCell: "Aussie", SampleCount: 12, AvgTotalMinutes: 150},
		{ProductName: "Beef Rub 25kg", ProcessCell: "Aussie", SampleCount: 10},
		{ProductName: "", ProcessCell: "Aussie", SampleCount: 99},
		{ProductName: "Honey Glaze 15kg", ProcessCell: "", SampleCount: 99},
	}}
	svc := NewDashboardService(repo, testOpts()...)

	rows, err := svc.ProductBaselines(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Lamb Marinade 20kg", rows[0].ProductName)
	assert.Equal(t, 12, rows[0].BatchCount)
	assert.Equal(t, 150.0, rows[0].AvgTotalTime)
	assert.Equal(t, "Beef Rub 25kg", rows[1].ProductName)
	assert.Equal(t, "Smoky BBQ 25kg", rows[2].ProductName)
}

func TestCellQuery(t *testing.T) {
	q := cellQuery(storage.Query{Limit: 5}, "Texas")
	assert.Equal(t, storage.Query{Limit: 5, ProcessCell: "TX", CellPrefix: true}, q)

	q = cellQuery(storage.Query{}, "")
	assert.Equal(t, storage.Query{}, q)
}
