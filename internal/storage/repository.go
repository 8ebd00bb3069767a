package storage

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kubo-market/batch-dashboard/internal/domain"
)

// MaxRecords caps every fetch that does not set its own limit.
const MaxRecords = 500

// View names of the production database.
const (
	BatchView      = "vw_BatchDashboardAnalytics"
	EventView      = "vw_ProductionEvents"
	CleaningView   = "vw_CleaningActivities"
	ProductView    = "vw_ProductPerformanceSummary"
	EfficiencyView = "vw_ProcessCellEfficiency"
)

// Batch view columns accepted by the column predicates of Query.
const (
	ColumnStartBatch              = "StartBatch"
	ColumnTotalBreakMinutes       = "TotalBreakMinutes"
	ColumnTotalMachineDownMinutes = "TotalMachineDownMinutes"
	ColumnTotalShiftChangeMinutes = "TotalShiftChangeMinutes"
)

// Query narrows a fetch. Zero values mean no filter.
type Query struct {
	Since       time.Time
	ProcessCell string
	// CellPrefix matches ProcessCell as a prefix instead of equality.
	CellPrefix bool
	EventType  string
	Limit      int

	// Batch predicates. They run in the database, before Limit.
	ExcludeBatchNo string
	OnlyBatchNo    string
	NotNullColumn  string
	PositiveColumn string
	// ExcludeStatus drops rows in this status. Rows without a status are kept.
	ExcludeStatus string
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return MaxRecords
	}
	return q.Limit
}

// Repository is the read-only row source behind the dashboard.
type Repository interface {
	// Batches returns batch rows, most recent start first.
	Batches(ctx context.Context, q Query) ([]domain.BatchRecord, error)

	// Events returns production events, most recent start first.
	Events(ctx context.Context, q Query) ([]domain.EventRecord, error)

	// Cleaning returns cleaning activities, most recent start first.
	Cleaning(ctx context.Context, q Query) ([]domain.CleaningRecord, error)

	ProductBaselines(ctx context.Context) ([]domain.ProductBaseline, error)
	ProcessCellEfficiency(ctx context.Context) ([]domain.ProcessCellEfficiency, error)

	// ProcessCells returns the distinct non-empty process cells, sorted.
	ProcessCells(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
}

// SQLRepository implements Repository over database/sql.
type SQLRepository struct {
	db *sql.DB
	d  dialect
}

// NewSQLRepository wraps an open pool for the given driver.
func NewSQLRepository(db *sql.DB, driver string) (*SQLRepository, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &SQLRepository{db: db, d: d}, nil
}

// DB exposes the pool, for schema setup and seeding.
func (r *SQLRepository) DB() *sql.DB { return r.db }

// Driver is the dialect name.
func (r *SQLRepository) Driver() string { return r.d.name }

// Close closes the pool.
func (r *SQLRepository) Close() error { return r.db.Close() }

// Ping checks the connection.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) filter(sq *selectQuery, q Query, timeColumn string) {
	if !q.Since.IsZero() {
		sq.whereArg(timeColumn, ">=", q.Since)
	}
	if q.ProcessCell != "" {
		if q.CellPrefix {
			sq.whereArg("ProcessCell", "LIKE", escapeLike(q.ProcessCell)+"%")
		} else {
			sq.whereArg("ProcessCell", "=", q.ProcessCell)
		}
	}
	sq.order(timeColumn, true).take(q.limit())
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

var batchColumns = []string{
	"BatchNo", "ItemKey", "ProductName", "ProcessCell",
	"StartTime", "FinishTime", "StartBatch", "StartTip", "FinishTip",
	"StartBlend", "FinishBlend", "StartPack", "FinishPack",
	"TotalMinutes", "BlendMinutes", "PackMinutes", "TipMinutes",
	"TotalBreakMinutes", "TotalCleanMinutes", "TotalMachineDownMinutes",
	"TotalMeetingMinutes", "TotalShiftChangeMinutes", "TotalDowntimeMinutes",
	"TotalBags", "PartialBags",
	"BagsPerHour", "NetBagsPerHour", "AdjustedBagsPerHour", "AdjustedNetBagsPerHour",
	"DowntimePercentage", "HasShiftChangeImpact", "BatchDate", "BatchStatus",
}

// batchFilter applies the batch-only predicates of q.
func batchFilter(sq *selectQuery, q Query) error {
	for _, col := range []string{q.NotNullColumn, q.PositiveColumn} {
		if col != "" && !slices.Contains(batchColumns, col) {
			return fmt.Errorf("batch column %q: %w", col, domain.ErrInvalidParameter)
		}
	}
	if q.ExcludeBatchNo != "" {
		sq.whereArg("BatchNo", "<>", q.ExcludeBatchNo)
	}
	if q.OnlyBatchNo != "" {
		sq.whereArg("BatchNo", "=", q.OnlyBatchNo)
	}
	if q.NotNullColumn != "" {
		sq.whereNotNull(q.NotNullColumn)
	}
	if q.PositiveColumn != "" {
		sq.whereArg(q.PositiveColumn, ">", 0)
	}
	if q.ExcludeStatus != "" {
		sq.whereArgOrNull("BatchStatus", "<>", q.ExcludeStatus)
	}
	return nil
}

// Batches reads vw_BatchDashboardAnalytics.
func (r *SQLRepository) Batches(ctx context.Context, q Query) ([]domain.BatchRecord, error) {
	sq := r.d.selectFrom(BatchView, batchColumns)
	if err := batchFilter(sq, q); err != nil {
		return nil, err
	}
	r.filter(sq, q, "StartTime")

	rows, err := r.db.QueryContext(ctx, sq.String(), sq.args...)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	records := make([]domain.BatchRecord, 0)
	for rows.Next() {
		rec, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return records, nil
}

func scanBatch(rows *sql.Rows) (domain.BatchRecord, error) {
	var (
		rec                                    domain.BatchRecord
		itemKey, productName, cell, status     sql.NullString
		totalBags, partialBags                 sql.NullString
		total, blend, pack, tip                sql.NullInt64
		brk, clean, down, meeting, shift, dtot sql.NullInt64
		bph, net, adj, adjNet, dtPct           sql.NullFloat64
		impact                                 sql.NullInt64
	)
	err := rows.Scan(
		&rec.BatchNo, &itemKey, &productName, &cell,
		nullTime{&rec.StartTime}, nullTime{&rec.FinishTime}, nullTime{&rec.StartBatch},
		nullTime{&rec.StartTip}, nullTime{&rec.FinishTip},
		nullTime{&rec.StartBlend}, nullTime{&rec.FinishBlend},
		nullTime{&rec.StartPack}, nullTime{&rec.FinishPack},
		&total, &blend, &pack, &tip,
		&brk, &clean, &down, &meeting, &shift, &dtot,
		&totalBags, &partialBags,
		&bph, &net, &adj, &adjNet,
		&dtPct, &impact, nullTime{&rec.BatchDate}, &status,
	)
	if err != nil {
		return rec, err
	}

	rec.ItemKey = stringPtr(itemKey)
	rec.ProductName = stringPtr(productName)
	rec.ProcessCell = cell.String
	rec.BatchStatus = status.String
	rec.TotalMinutes, rec.BlendMinutes = intPtr(total), intPtr(blend)
	rec.PackMinutes, rec.TipMinutes = intPtr(pack), intPtr(tip)
	rec.TotalBreakMinutes = intPtr(brk)
	rec.TotalCleanMinutes = intPtr(clean)
	rec.TotalMachineDownMinutes = intPtr(down)
	rec.TotalMeetingMinutes = intPtr(meeting)
	rec.TotalShiftChangeMinutes = intPtr(shift)
	rec.TotalDowntimeMinutes = intPtr(dtot)
	rec.TotalBags, rec.PartialBags = stringPtr(totalBags), stringPtr(partialBags)
	rec.BagsPerHour, rec.NetBagsPerHour = floatPtr(bph), floatPtr(net)
	rec.AdjustedBagsPerHour, rec.AdjustedNetBagsPerHour = floatPtr(adj), floatPtr(adjNet)
	rec.DowntimePercentage = floatPtr(dtPct)
	rec.HasShiftChangeImpact = intPtr(impact)
	return rec, nil
}

var eventColumns = []string{
	"BatchNo", "ProcessCell", "EventType", "Location",
	"EventStart", "EventEnd", "DurationMinutes", "EventDate", "EventCategory",
}

// Events reads vw_ProductionEvents, optionally of one event type.
func (r *SQLRepository) Events(ctx context.Context, q Query) ([]domain.EventRecord, error) {
	sq := r.d.selectFrom(EventView, eventColumns)
	if q.EventType != "" {
		sq.whereArg("EventType", "=", q.EventType)
	}
	r.filter(sq, q, "EventStart")

	rows, err := r.db.QueryContext(ctx, sq.String(), sq.args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := make([]domain.EventRecord, 0)
	for rows.Next() {
		var (
			rec                               domain.EventRecord
			batchNo, cell, typ, loc, category sql.NullString
			duration                          sql.NullInt64
		)
		if err := rows.Scan(
			&batchNo, &cell, &typ, &loc,
			nullTime{&rec.EventStart}, nullTime{&rec.EventEnd}, &duration,
			nullTime{&rec.EventDate}, &category,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.BatchNo, rec.ProcessCell = stringPtr(batchNo), stringPtr(cell)
		rec.EventType, rec.Location = stringPtr(typ), stringPtr(loc)
		rec.DurationMinutes = intPtr(duration)
		rec.EventCategory = stringPtr(category)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

var cleaningColumns = []string{
	"BatchNo", "ProcessCell", "ActivityType", "Location", "CleanCycle",
	"CleanStart", "CleanEnd", "DurationMinutes", "LineType", "CleanDate",
	"ShiftType", "DurationCategory", "CleanStatus",
}

// Cleaning reads vw_CleaningActivities.
func (r *SQLRepository) Cleaning(ctx context.Context, q Query) ([]domain.CleaningRecord, error) {
	sq := r.d.selectFrom(CleaningView, cleaningColumns)
	r.filter(sq, q, "CleanStart")

	rows, err := r.db.QueryContext(ctx, sq.String(), sq.args...)
	if err != nil {
		return nil, fmt.Errorf("query cleaning: %w", err)
	}
	defer rows.Close()

	records := make([]domain.CleaningRecord, 0)
	for rows.Next() {
		var (
			rec                                        domain.CleaningRecord
			cell, activity, loc, line, shift, dc, stat sql.NullString
			cycle, duration                            sql.NullInt64
		)
		if err := rows.Scan(
			&rec.BatchNo, &cell, &activity, &loc, &cycle,
			nullTime{&rec.CleanStart}, nullTime{&rec.CleanEnd}, &duration, &line,
			nullTime{&rec.CleanDate}, &shift, &dc, &stat,
		); err != nil {
			return nil, fmt.Errorf("scan cleaning: %w", err)
		}
		rec.ProcessCell, rec.ActivityType, rec.Location = cell.String, activity.String, loc.String
		rec.CleanCycle = int(cycle.Int64)
		rec.DurationMinutes = intPtr(duration)
		rec.LineType, rec.ShiftType = line.String, shift.String
		rec.DurationCategory, rec.CleanStatus = dc.String, stat.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cleaning: %w", err)
	}
	return records, nil
}

var productColumns = []string{
	"ItemKey", "ProductName", "ProcessCell", "BatchCount",
	"AvgTotalMinutes", "StdDevTotalMinutes", "AvgBlendMinutes", "AvgPackMinutes", "AvgTipMinutes",
	"MinTotalMinutes", "MaxTotalMinutes",
	"AvgBagsPerHour", "AvgNetBagsPerHour", "TotalBagsProduced", "AvgDowntimePercentage",
}

// ProductBaselines reads vw_ProductPerformanceSummary.
func (r *SQLRepository) ProductBaselines(ctx context.Context) ([]domain.ProductBaseline, error) {
	sq := r.d.selectFrom(ProductView, productColumns)

	rows, err := r.db.QueryContext(ctx, sq.String(), sq.args...)
	if err != nil {
		return nil, fmt.Errorf("query product baselines: %w", err)
	}
	defer rows.Close()

	baselines := make([]domain.ProductBaseline, 0)
	for rows.Next() {
		var (
			b                                 domain.ProductBaseline
			item, product, cell               sql.NullString
			count                             sql.NullInt64
			avg, sd, blend, pack, tip, lo, hi sql.NullFloat64
			bph, net, bags, dt                sql.NullFloat64
		)
		if err := rows.Scan(
			&item, &product, &cell, &count,
			&avg, &sd, &blend, &pack, &tip, &lo, &hi,
			&bph, &net, &bags, &dt,
		); err != nil {
			return nil, fmt.Errorf("scan product baseline: %w", err)
		}
		b.ItemKey, b.ProductName, b.ProcessCell = item.String, product.String, cell.String
		b.SampleCount = int(count.Int64)
		b.AvgTotalMinutes, b.StdDevTotalMinutes = floatOrZero(avg), floatOrZero(sd)
		b.AvgBlendMinutes, b.AvgPackMinutes, b.AvgTipMinutes = floatOrZero(blend), floatOrZero(pack), floatOrZero(tip)
		b.MinTotalMinutes, b.MaxTotalMinutes = floatOrZero(lo), floatOrZero(hi)
		b.AvgBagsPerHour, b.AvgNetBagsPerHour = floatPtr(bph), floatPtr(net)
		b.TotalBagsProduced, b.AvgDowntimePercentage = floatPtr(bags), floatPtr(dt)
		baselines = append(baselines, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product baselines: %w", err)
	}
	return baselines, nil
}

var efficiencyColumns = []string{
	"ProcessCell", "TotalBatches", "NormalBatches", "ShiftChangeBatches",
	"AvgCycleTime", "AvgNetProductionTime", "AvgBagsPerHour", "AvgNetBagsPerHour",
	"TotalBagsProduced", "CompletionRate", "AvgDowntimePercentage",
	"ShiftChangeImpactPercentage", "PotentialImprovementPercent",
}

// ProcessCellEfficiency reads vw_ProcessCellEfficiency.
func (r *SQLRepository) ProcessCellEfficiency(ctx context.Context) ([]domain.ProcessCellEfficiency, error) {
	sq := r.d.selectFrom(EfficiencyView, efficiencyColumns).order("ProcessCell", false)

	rows, err := r.db.QueryContext(ctx, sq.String(), sq.args...)
	if err != nil {
		return nil, fmt.Errorf("query process cell efficiency: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ProcessCellEfficiency, 0)
	for rows.Next() {
		var (
			e                                    domain.ProcessCellEfficiency
			cell                                 sql.NullString
			total, normal, shift                 sql.NullInt64
			cycle, netTime, bph, net, bags, rate sql.NullFloat64
			dt, impact, improvement              sql.NullFloat64
		)
		if err := rows.Scan(
			&cell, &total, &normal, &shift,
			&cycle, &netTime, &bph, &net,
			&bags, &rate, &dt, &impact, &improvement,
		); err != nil {
			return nil, fmt.Errorf("scan process cell efficiency: %w", err)
		}
		e.ProcessCell = cell.String
		e.TotalBatches, e.NormalBatches, e.ShiftChangeBatches = int(total.Int64), int(normal.Int64), int(shift.Int64)
		e.AvgCycleTime, e.AvgNetProductionTime = floatPtr(cycle), floatPtr(netTime)
		e.AvgBagsPerHour, e.AvgNetBagsPerHour = floatPtr(bph), floatPtr(net)
		e.TotalBagsProduced, e.CompletionRate = floatPtr(bags), floatPtr(rate)
		e.AvgDowntimePercentage = floatPtr(dt)
		e.ShiftChangeImpactPercentage = floatPtr(impact)
		e.PotentialImprovementPercent = floatPtr(improvement)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate process cell efficiency: %w", err)
	}
	return out, nil
}

// ProcessCells lists the distinct cells of the batch view.
func (r *SQLRepository) ProcessCells(ctx context.Context) ([]string, error) {
	sq := r.d.selectFrom(BatchView, []string{"ProcessCell"}).
		unique().
		whereNotNull("ProcessCell").
		whereArg("ProcessCell", "<>", "").
		order("ProcessCell", false)

	rows, err := r.db.QueryContext(ctx, sq.String(), sq.args...)
	if err != nil {
		return nil, fmt.Errorf("query process cells: %w", err)
	}
	defer rows.Close()

	cells := make([]string, 0)
	for rows.Next() {
		var cell string
		if err := rows.Scan(&cell); err != nil {
			return nil, fmt.Errorf("scan process cell: %w", err)
		}
		cells = append(cells, cell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate process cells: %w", err)
	}
	return cells, nil
}
