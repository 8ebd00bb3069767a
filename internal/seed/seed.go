package seed

import (
	"strconv"
	"strings"
)

// Cells are the process cells of the demo dataset.
var Cells = []string{"Aussie", "Yankee", "Seasoning", "TX1", "TX2"}

type product struct {
	itemKey string
	name    string
	minutes int
	bags    int
}

var products = map[string][]product{
	"Aussie": {
		{"AUS-101", "Beef Rub 25kg", 180, 40},
		{"AUS-204", "Lamb Marinade 20kg", 150, 36},
	},
	"Yankee": {
		{"YNK-310", "Smoky BBQ 25kg", 200, 44},
		{"YNK-322", "Honey Glaze 15kg", 160, 30},
	},
	"Seasoning": {
		{"SEA-050", "Garlic Pepper 10kg", 120, 60},
		{"SEA-077", "Lemon Herb 10kg", 110, 55},
	},
	"TX1": {
		{"TEX-900", "Texas Brisket Rub 25kg", 210, 42},
	},
	"TX2": {
		{"TEX-910", "Chili Dust 20kg", 190, 38},
	},
}

const (
	// recentBatches land inside the 3-day dashboard window.
	recentBatches = 12
	// historyBatches are spread over the previous month.
	historyBatches = 12
	sentinelBatch  = "999999"
)

// Statements returns the INSERT statements of the demo dataset. Timestamps
// are relative to the moment the statements run and use sqlite's datetime().
func Statements() []string {
	var stmts []string
	for c, cell := range Cells {
		for i := 0; i < recentBatches+historyBatches; i++ {
			b := newBatch(cell, c, i)
			stmts = append(stmts, b.insert())
			stmts = append(stmts, b.events()...)
		}
		stmts = append(stmts, sentinel(cell, c), cleaning(cell, c))
		stmts = append(stmts, productSummaries(cell)...)
		stmts = append(stmts, efficiency(cell, c))
	}
	return stmts
}

// GenerateSQL renders Statements as one script for the sqlite3 shell.
func GenerateSQL() string {
	var b strings.Builder
	b.WriteString("BEGIN;\n")
	for _, s := range Statements() {
		b.WriteString(s)
		b.WriteString(";\n")
	}
	b.WriteString("COMMIT;\n")
	return b.String()
}

type batch struct {
	no          string
	cell        string
	product     product
	ago         int // minutes between start and now
	total       int
	running     bool
	breakMin    int
	cleanMin    int
	downMin     int
	meetingMin  int
	shiftMin    int
	shiftImpact int
}

func newBatch(cell string, c, i int) batch {
	p := products[cell][i%len(products[cell])]
	b := batch{
		no:      strconv.Itoa(100000 + c*1000 + i),
		cell:    cell,
		product: p,
		total:   p.minutes + (i*7+c*3)%11 - 5,
	}
	if i < recentBatches {
		b.ago = 30 + i*300 + c*37
	} else {
		b.ago = (i-recentBatches+2)*2*1440 + c*37
	}

	switch {
	case i == 0:
		b.running = true
	case c == 0 && i == 3:
		// Recorded in a single scan: start and finish minutes apart.
		b.total = 3
	case c == 1 && i == 4:
		b.total = p.minutes * 2
	}

	if i%3 == 0 {
		b.breakMin = 15
	}
	if i%4 == 1 {
		b.cleanMin = 20
	}
	if i%5 == 2 {
		b.downMin = 10 + i
	}
	if i%6 == 5 {
		b.meetingMin = 10
	}
	if i%4 == 3 {
		b.shiftMin = 12
		b.shiftImpact = 1
	}
	return b
}

func (b batch) downtime() int {
	return b.breakMin + b.cleanMin + b.downMin + b.meetingMin + b.shiftMin
}

func at(minutesAgo int) string {
	return "datetime('now', '-" + strconv.Itoa(minutesAgo) + " minutes')"
}

func day(minutesAgo int) string {
	return "date('now', '-" + strconv.Itoa(minutesAgo) + " minutes')"
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func (b batch) insert() string {
	tip := 10
	blend := b.total * 40 / 100
	pack := b.total - 15 - blend
	if pack < 0 {
		pack = 0
	}
	start := b.ago
	startBlend := start - 15
	finishBlend := startBlend - blend

	var sb strings.Builder
	sb.WriteString("INSERT INTO vw_BatchDashboardAnalytics (BatchNo, ItemKey, ProductName, ProcessCell, ")
	sb.WriteString("StartTime, FinishTime, StartBatch, StartTip, FinishTip, StartBlend, FinishBlend, StartPack, FinishPack, ")
	sb.WriteString("TotalMinutes, BlendMinutes, PackMinutes, TipMinutes, ")
	sb.WriteString("TotalBreakMinutes, TotalCleanMinutes, TotalMachineDownMinutes, TotalMeetingMinutes, TotalShiftChangeMinutes, TotalDowntimeMinutes, ")
	sb.WriteString("TotalBags, PartialBags, BagsPerHour, NetBagsPerHour, AdjustedBagsPerHour, AdjustedNetBagsPerHour, ")
	sb.WriteString("DowntimePercentage, HasShiftChangeImpact, BatchDate, BatchStatus) VALUES (")

	vals := []string{quote(b.no), quote(b.product.itemKey), quote(b.product.name), quote(b.cell)}
	if b.running {
		vals = append(vals,
			at(start), "NULL", at(start), at(start-5), at(start-5-tip), at(startBlend), "NULL", "NULL", "NULL",
			"NULL", "NULL", "NULL", itoa(tip),
			"0", "0", "0", "0", "0", "0",
			"NULL", "NULL", "NULL", "NULL", "NULL", "NULL",
			"NULL", "0", day(start), quote("Blending"),
		)
	} else {
		finish := start - b.total
		dt := b.downtime()
		hours := float64(b.total) / 60
		bph := float64(b.product.bags) / hours
		net := bph
		if prod := b.total - dt; prod > 0 {
			net = float64(b.product.bags) / (float64(prod) / 60)
		}
		adj := bph
		if b.shiftImpact == 1 && b.total > b.shiftMin {
			adj = float64(b.product.bags) / (float64(b.total-b.shiftMin) / 60)
		}
		bags := quote(itoa(b.product.bags))
		vals = append(vals,
			at(start), at(finish), at(start), at(start-5), at(start-5-tip), at(startBlend), at(finishBlend), at(finishBlend), at(finish),
			itoa(b.total), itoa(blend), itoa(pack), itoa(tip),
			itoa(b.breakMin), itoa(b.cleanMin), itoa(b.downMin), itoa(b.meetingMin), itoa(b.shiftMin), itoa(dt),
			bags, quote("0"), ftoa(bph), ftoa(net), ftoa(adj), ftoa(adj),
			ftoa(float64(dt)*100/float64(b.total)), itoa(b.shiftImpact), day(start), quote("Complete"),
		)
	}
	if b.total == 3 {
		// Single-scan record: every stage stamped at the batch start.
		for _, idx := range []int{5, 6, 7, 9, 10, 11, 12} {
			vals[idx] = at(start)
		}
	}
	sb.WriteString(strings.Join(vals, ", "))
	sb.WriteString(")")
	return sb.String()
}

// events mirrors the batch downtime columns into vw_ProductionEvents.
func (b batch) events() []string {
	type ev struct {
		typ, category, location string
		minutes                 int
	}
	list := []ev{
		{"Break", "Planned Downtime", "Line", b.breakMin},
		{"Clean", "Cleaning", "Blender", b.cleanMin},
		{"Machine Down", "Machine Down", "Packer", b.downMin},
		{"Meeting", "Planned Downtime", "Office", b.meetingMin},
		{"Shift Change", "Planned Downtime", "Line", b.shiftMin},
	}

	var out []string
	offset := 20
	for _, e := range list {
		if e.minutes <= 0 {
			continue
		}
		start := b.ago - offset
		out = append(out, "INSERT INTO vw_ProductionEvents (BatchNo, ProcessCell, EventType, Location, EventStart, EventEnd, DurationMinutes, EventDate, EventCategory) VALUES ("+
			strings.Join([]string{
				quote(b.no), quote(b.cell), quote(e.typ), quote(e.location),
				at(start), at(start - e.minutes), itoa(e.minutes), day(start), quote(e.category),
			}, ", ")+")")
		offset += e.minutes + 5
	}
	return out
}

// sentinel records a cleaning block on the batch view under the reserved batch number.
func sentinel(cell string, c int) string {
	start := 120 + c*10
	return "INSERT INTO vw_BatchDashboardAnalytics (BatchNo, ProcessCell, StartTime, FinishTime, TotalMinutes, TotalCleanMinutes, TotalDowntimeMinutes, BatchDate, BatchStatus) VALUES (" +
		strings.Join([]string{
			quote(sentinelBatch), quote(cell), at(start), at(start - 45), "45", "45", "45", day(start), quote("Complete"),
		}, ", ") + ")"
}

func cleaning(cell string, c int) string {
	start := 120 + c*10
	shift := "Day"
	if c%2 == 1 {
		shift = "Night"
	}
	return "INSERT INTO vw_CleaningActivities (BatchNo, ProcessCell, ActivityType, Location, CleanCycle, CleanStart, CleanEnd, DurationMinutes, LineType, CleanDate, ShiftType, DurationCategory, CleanStatus) VALUES (" +
		strings.Join([]string{
			quote(sentinelBatch), quote(cell), quote("Full Clean"), quote("Blender"), itoa(c + 1),
			at(start), at(start - 45), "45", quote("Main"), day(start), quote(shift), quote("Standard"), quote("Complete"),
		}, ", ") + ")"
}

func productSummaries(cell string) []string {
	var out []string
	for i, p := range products[cell] {
		avg := float64(p.minutes)
		sd := 4.0 + float64(i)
		count := 10 + i*2
		bph := float64(p.bags) / (avg / 60)
		out = append(out, "INSERT INTO vw_ProductPerformanceSummary (ItemKey, ProductName, ProcessCell, BatchCount, AvgTotalMinutes, StdDevTotalMinutes, AvgBlendMinutes, AvgPackMinutes, AvgTipMinutes, MinTotalMinutes, MaxTotalMinutes, AvgBagsPerHour, AvgNetBagsPerHour, TotalBagsProduced, AvgDowntimePercentage) VALUES ("+
			strings.Join([]string{
				quote(p.itemKey), quote(p.name), quote(cell), itoa(count),
				ftoa(avg), ftoa(sd), ftoa(avg * 0.4), ftoa(avg*0.6 - 15), "10",
				ftoa(avg - 2*sd), ftoa(avg + 2*sd),
				ftoa(bph), ftoa(bph * 1.1), itoa(p.bags * count), "8.50",
			}, ", ")+")")
	}
	return out
}

func efficiency(cell string, c int) string {
	total := recentBatches + historyBatches
	shift := total / 4
	return "INSERT INTO vw_ProcessCellEfficiency (ProcessCell, TotalBatches, NormalBatches, ShiftChangeBatches, AvgCycleTime, AvgNetProductionTime, AvgBagsPerHour, AvgNetBagsPerHour, TotalBagsProduced, CompletionRate, AvgDowntimePercentage, ShiftChangeImpactPercentage, PotentialImprovementPercent) VALUES (" +
		strings.Join([]string{
			quote(cell), itoa(total), itoa(total - shift), itoa(shift),
			ftoa(170 + float64(c)*5), ftoa(150 + float64(c)*5), ftoa(13.5 - float64(c)*0.4), ftoa(15.2 - float64(c)*0.4),
			itoa(total * 40), "95.80", "9.20", "4.10", "6.30",
		}, ", ") + ")"
}
