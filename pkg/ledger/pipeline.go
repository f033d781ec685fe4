package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/quantifin/cashplan/pkg/models"
)

// Run executes the full computation on an immutable ledger snapshot:
// risk profiling, aging aggregation, the daily cashflow calendar and the
// payment-deferral plan. It is a pure function of its inputs; "today" is
// always passed in rather than read from the clock, so a run can be
// reproduced exactly.
func Run(records []models.LedgerRecord, openingBalance, threshold decimal.Decimal, today models.Date) *models.Report {
	profiles := RiskProfiles(records, today)
	daily := BuildDailyCashflow(records, profiles, openingBalance, today)
	return &models.Report{
		Aging: AggregateAging(records, today),
		Risk:  profiles,
		Daily: daily,
		Plan:  Reschedule(daily, records, threshold, today),
	}
}
