package seed

import (
	"strings"
	"testing"
)

func TestGenerateSQL_WrappedInTransaction(t *testing.T) {
	sql := GenerateSQL()

	if !strings.HasPrefix(sql, "BEGIN;") {
		t.Error("expected SQL to start with BEGIN")
	}
	if !strings.HasSuffix(strings.TrimSpace(sql), "COMMIT;") {
		t.Error("expected SQL to end with COMMIT")
	}
}

func TestStatements_CoverEveryCell(t *testing.T) {
	sql := strings.Join(Statements(), "\n")

	for _, cell := range Cells {
		if !strings.Contains(sql, "'"+cell+"'") {
			t.Errorf("expected SQL to contain cell %s", cell)
		}
	}
}

func TestStatements_ContainsExpectedRecordTypes(t *testing.T) {
	sql := strings.Join(Statements(), "\n")

	patterns := []string{
		"INSERT INTO vw_BatchDashboardAnalytics",
		"INSERT INTO vw_ProductionEvents",
		"INSERT INTO vw_CleaningActivities",
		"INSERT INTO vw_ProductPerformanceSummary",
		"INSERT INTO vw_ProcessCellEfficiency",
		"'999999'",   // cleaning blocks on the batch view
		"'Blending'", // running batches
		"'Shift Change'",
	}
	for _, p := range patterns {
		if !strings.Contains(sql, p) {
			t.Errorf("expected SQL to contain %s", p)
		}
	}
}

func TestStatements_BatchCount(t *testing.T) {
	count := 0
	for _, s := range Statements() {
		if strings.HasPrefix(s, "INSERT INTO vw_BatchDashboardAnalytics") {
			count++
		}
	}
	want := len(Cells) * (recentBatches + historyBatches + 1)
	if count != want {
		t.Errorf("expected %d batch rows, got %d", want, count)
	}
}

func TestStatements_NoTrailingSemicolons(t *testing.T) {
	for i, s := range Statements() {
		if strings.HasSuffix(s, ";") {
			t.Fatalf("statement %d ends with a semicolon", i)
		}
	}
}

func TestNewBatch_StructuralOutlier(t *testing.T) {
	b := newBatch("Aussie", 0, 3)
	if b.total != 3 {
		t.Errorf("expected 3 minute batch, got %d", b.total)
	}
	if !strings.Contains(b.insert(), "3, ") {
		t.Error("expected total minutes in insert")
	}
}
