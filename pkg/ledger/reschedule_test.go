package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/quantifin/cashplan/pkg/models"
)

// planFixture builds a ledger whose baseline cumulative cash runs
// 200 (Jan 10), 350 (Jan 11), -150 (Jan 12) with today = Jan 10,
// and one payable of -500 due on Jan 10.
func planFixture(t *testing.T) ([]models.LedgerRecord, []models.DailyCashPoint, models.Date) {
	t.Helper()
	today := mustDate(t, "2026-01-10")
	records := mustNormalize(t,
		raw("alpha", models.CategoryReceivable, "200", "2026-01-01", "2026-01-10", "2026-01-10"),
		raw("beta", models.CategoryReceivable, "150", "2026-01-02", "2026-01-11", "2026-01-11"),
		raw("gamma", models.CategoryPayable, "-500", "2026-01-03", "2026-01-12", "2026-01-10"),
	)
	profiles := RiskProfiles(records, today)
	daily := BuildDailyCashflow(records, profiles, decimal.Zero, today)
	return records, daily, today
}

func TestRescheduleDefersBelowThresholdPayable(t *testing.T) {
	records, daily, today := planFixture(t)
	threshold := decimal.NewFromInt(300)

	plan := Reschedule(daily, records, threshold, today)

	if !plan.CashOnHand.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected cash on hand 200, got %s", plan.CashOnHand)
	}
	if len(plan.Deferrals) != 1 {
		t.Fatalf("Expected 1 deferral, got %d", len(plan.Deferrals))
	}

	d := plan.Deferrals[0]
	if d.Counterparty != "gamma" {
		t.Errorf("Expected gamma deferred, got %s", d.Counterparty)
	}
	if d.OriginalDate != mustDate(t, "2026-01-10") || d.NewDate != mustDate(t, "2026-01-11") {
		t.Errorf("Expected move Jan 10 -> Jan 11, got %s -> %s", d.OriginalDate, d.NewDate)
	}
	if !d.Amount.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("Expected amount -500 unchanged, got %s", d.Amount)
	}

	// Removing a -500 payable raises that day's net by 500 and lowers the
	// target day by the same amount.
	if !plan.Adjusted[0].AdjustedNetCash.Equal(decimal.NewFromInt(700)) {
		t.Errorf("Expected adjusted net 700 on Jan 10, got %s", plan.Adjusted[0].AdjustedNetCash)
	}
	if !plan.Adjusted[1].AdjustedNetCash.Equal(decimal.NewFromInt(-350)) {
		t.Errorf("Expected adjusted net -350 on Jan 11, got %s", plan.Adjusted[1].AdjustedNetCash)
	}
	if !plan.Adjusted[0].AdjustedCumulative.Equal(decimal.NewFromInt(700)) {
		t.Errorf("Expected adjusted cumulative 700 on Jan 10, got %s", plan.Adjusted[0].AdjustedCumulative)
	}
}

func TestRescheduleConservesCash(t *testing.T) {
	records, daily, today := planFixture(t)

	plan := Reschedule(daily, records, decimal.NewFromInt(300), today)

	sumOriginal, sumAdjusted := decimal.Zero, decimal.Zero
	for _, p := range plan.Adjusted {
		sumOriginal = sumOriginal.Add(p.NetCash)
		sumAdjusted = sumAdjusted.Add(p.AdjustedNetCash)
	}
	if !sumOriginal.Equal(sumAdjusted) {
		t.Errorf("Deferral created or destroyed cash: %s vs %s", sumOriginal, sumAdjusted)
	}

	last := plan.Adjusted[len(plan.Adjusted)-1]
	if !last.AdjustedCumulative.Equal(last.CumulativeCash) {
		t.Errorf("Horizon-end balance changed: %s vs %s", last.AdjustedCumulative, last.CumulativeCash)
	}
}

func TestRescheduleAboveThresholdStaysUnmoved(t *testing.T) {
	records, daily, today := planFixture(t)

	// Jan 10's balance of 200 already meets a threshold of 150.
	plan := Reschedule(daily, records, decimal.NewFromInt(150), today)
	if len(plan.Deferrals) != 0 {
		t.Errorf("Expected no deferrals, got %d", len(plan.Deferrals))
	}
	for _, p := range plan.Adjusted {
		if !p.AdjustedNetCash.Equal(p.NetCash) {
			t.Errorf("Day %s: adjusted series should equal baseline", p.Date)
		}
	}
}

func TestRescheduleHorizonExhaustedStaysUnmoved(t *testing.T) {
	records, daily, today := planFixture(t)

	// No day ever reaches 1000, so the payable stays put without error.
	plan := Reschedule(daily, records, decimal.NewFromInt(1000), today)
	if len(plan.Deferrals) != 0 {
		t.Errorf("Expected no deferrals, got %d", len(plan.Deferrals))
	}
}

func TestRescheduleDueDateOffCalendarStaysUnmoved(t *testing.T) {
	today := mustDate(t, "2026-01-10")
	records := mustNormalize(t,
		raw("alpha", models.CategoryReceivable, "200", "2026-01-01", "2026-01-10", "2026-01-10"),
		// due after the last settled day, so the calendar never covers it
		raw("gamma", models.CategoryPayable, "-500", "2026-01-03", "2026-01-10", "2026-02-01"),
	)
	profiles := RiskProfiles(records, today)
	daily := BuildDailyCashflow(records, profiles, decimal.Zero, today)

	plan := Reschedule(daily, records, decimal.NewFromInt(1000), today)
	if len(plan.Deferrals) != 0 {
		t.Errorf("Expected no deferrals for off-calendar due date, got %d", len(plan.Deferrals))
	}
}

// Each payable is judged against the unadjusted baseline, so two payables
// squeezed onto the same date both move to the same target even though the
// first move alone would push that target below the threshold.
func TestRescheduleIsBaselineRelative(t *testing.T) {
	today := mustDate(t, "2026-01-10")
	records := mustNormalize(t,
		raw("alpha", models.CategoryReceivable, "200", "2026-01-01", "2026-01-10", "2026-01-10"),
		raw("beta", models.CategoryReceivable, "150", "2026-01-02", "2026-01-11", "2026-01-11"),
		raw("gamma", models.CategoryPayable, "-500", "2026-01-03", "2026-01-12", "2026-01-10"),
		raw("delta", models.CategoryPayable, "-500", "2026-01-03", "2026-01-12", "2026-01-10"),
	)
	profiles := RiskProfiles(records, today)
	daily := BuildDailyCashflow(records, profiles, decimal.Zero, today)

	plan := Reschedule(daily, records, decimal.NewFromInt(300), today)

	if len(plan.Deferrals) != 2 {
		t.Fatalf("Expected 2 deferrals, got %d", len(plan.Deferrals))
	}
	for _, d := range plan.Deferrals {
		if d.NewDate != mustDate(t, "2026-01-11") {
			t.Errorf("%s: expected baseline target Jan 11, got %s", d.Counterparty, d.NewDate)
		}
	}
}

func TestRescheduleEmptyHorizon(t *testing.T) {
	records, daily, _ := planFixture(t)

	// Today is past the end of the calendar.
	plan := Reschedule(daily, records, decimal.Zero, mustDate(t, "2026-03-01"))
	if len(plan.Deferrals) != 0 || len(plan.Adjusted) != 0 {
		t.Errorf("Expected empty plan, got %+v", plan)
	}
	if !plan.CashOnHand.IsZero() {
		t.Errorf("Expected zero cash on hand, got %s", plan.CashOnHand)
	}
}
