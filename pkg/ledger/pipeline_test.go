package ledger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quantifin/cashplan/pkg/models"
)

func TestRunProducesConsistentReport(t *testing.T) {
	today := mustDate(t, "2026-01-10")
	records := mustNormalize(t,
		raw("alpha", models.CategoryReceivable, "200", "2026-01-01", "2026-01-10", "2026-01-10"),
		raw("beta", models.CategoryReceivable, "150", "2026-01-02", "2026-01-11", "2026-01-11"),
		raw("gamma", models.CategoryPayable, "-500", "2026-01-03", "2026-01-12", "2026-01-10"),
	)

	report := Run(records, decimal.Zero, decimal.NewFromInt(300), today)

	if report.Aging.Receivable == nil {
		t.Fatal("Expected a receivable aging summary")
	}
	// beta and gamma settle after today, so they sit outside the aging
	// window even though they shape the projected calendar.
	if report.Aging.Payable != nil {
		t.Errorf("Expected absent payable summary, got %+v", report.Aging.Payable)
	}
	if len(report.Risk) != 1 || report.Risk[0].Counterparty != "alpha" {
		t.Errorf("Expected alpha's risk profile only, got %+v", report.Risk)
	}
	if len(report.Daily) != 3 {
		t.Errorf("Expected 3 calendar days, got %d", len(report.Daily))
	}
	if len(report.Plan.Deferrals) != 1 {
		t.Errorf("Expected 1 deferral, got %d", len(report.Plan.Deferrals))
	}
}

// Re-running the pipeline on unchanged inputs must yield identical output;
// nothing inside the core reads the clock or any other ambient state.
func TestRunIsIdempotent(t *testing.T) {
	today := mustDate(t, "2026-01-10")
	records := mustNormalize(t,
		raw("alpha", models.CategoryReceivable, "200", "2026-01-01", "2026-01-10", "2026-01-10"),
		raw("beta", models.CategoryReceivable, "150", "2026-01-02", "2026-01-11", "2026-01-11"),
		raw("gamma", models.CategoryPayable, "-500", "2026-01-03", "2026-01-12", "2026-01-10"),
	)
	opening := decimal.NewFromInt(1000)
	threshold := decimal.NewFromInt(300)

	first, _ := json.Marshal(Run(records, opening, threshold, today))
	second, _ := json.Marshal(Run(records, opening, threshold, today))
	if !bytes.Equal(first, second) {
		t.Error("Two runs on identical inputs produced different reports")
	}
}
