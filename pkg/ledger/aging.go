package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantifin/cashplan/pkg/models"
)

const payableTableSize = 10

var (
	oneHalf = decimal.New(5, -1)
	hundred = decimal.NewFromInt(100)
)

// roundHalfUp rounds to the nearest integer, ties toward positive infinity.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(oneHalf).Floor().IntPart()
}

// GradeFor classifies a late-payment percentage into its risk grade.
// Bins are right-closed: 10, 30, 50 and 70 all map to the lower grade.
func GradeFor(latePct int64) models.RiskGrade {
	switch {
	case latePct <= 10:
		return models.GradeVeryLow
	case latePct <= 30:
		return models.GradeLow
	case latePct <= 50:
		return models.GradeModerate
	case latePct <= 70:
		return models.GradeRisky
	default:
		return models.GradeVeryRisky
	}
}

// windowRecords restricts records to actual_paid_date within
// [min(actual_paid_date), asOf]. The lower bound comes from the full
// ledger, so the window start is a property of the data, not of asOf.
func windowRecords(records []models.LedgerRecord, asOf models.Date) (start models.Date, kept []models.LedgerRecord) {
	for _, r := range records {
		if start.IsZero() || r.ActualPaidDate.Before(start) {
			start = r.ActualPaidDate
		}
	}
	for _, r := range records {
		if !r.ActualPaidDate.Before(start) && !r.ActualPaidDate.After(asOf) {
			kept = append(kept, r)
		}
	}
	return start, kept
}

// RiskProfiles computes the late-payment percentage and risk grade per
// counterparty, over receivable records settled on or before asOf.
// Counterparties with no receivable records in the window are absent.
// The result is sorted by percentage descending, then name.
func RiskProfiles(records []models.LedgerRecord, asOf models.Date) []models.CounterpartyRisk {
	_, windowed := windowRecords(records, asOf)

	type tally struct{ late, total int64 }
	tallies := make(map[string]*tally)
	for _, r := range windowed {
		if r.Category != models.CategoryReceivable {
			continue
		}
		t := tallies[r.Counterparty]
		if t == nil {
			t = &tally{}
			tallies[r.Counterparty] = t
		}
		t.total++
		if r.Lateness > 0 {
			t.late++
		}
	}

	profiles := make([]models.CounterpartyRisk, 0, len(tallies))
	for name, t := range tallies {
		pct := roundHalfUp(decimal.NewFromInt(t.late * 100).Div(decimal.NewFromInt(t.total)))
		profiles = append(profiles, models.CounterpartyRisk{
			Counterparty:   name,
			LatePaymentPct: pct,
			Grade:          GradeFor(pct),
		})
	}
	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].LatePaymentPct != profiles[j].LatePaymentPct {
			return profiles[i].LatePaymentPct > profiles[j].LatePaymentPct
		}
		return profiles[i].Counterparty < profiles[j].Counterparty
	})
	return profiles
}

// AggregateAging computes the AR/AP aging snapshot as of a given date.
// Empty sides stay absent from the snapshot rather than zero-filled.
func AggregateAging(records []models.LedgerRecord, asOf models.Date) models.AgingSnapshot {
	start, windowed := windowRecords(records, asOf)

	snap := models.AgingSnapshot{
		WindowStart: start,
		WindowEnd:   asOf,
	}
	if !start.IsZero() {
		snap.WindowDays = asOf.DaysSince(start)
	}

	var receivables, payables []models.LedgerRecord
	for _, r := range windowed {
		switch r.Category {
		case models.CategoryReceivable:
			receivables = append(receivables, r)
		case models.CategoryPayable:
			payables = append(payables, r)
		}
	}

	if len(receivables) > 0 {
		snap.Receivable = summarizeSide(receivables)
		snap.ReceivableByDuration = groupAvgDays(receivables, actualDaysOf, descending, 0)
		snap.ReceivableByAmount = groupTotalAmount(receivables, descending, 0)
		snap.RiskTable = RiskProfiles(records, asOf)
	}
	if len(payables) > 0 {
		snap.Payable = summarizeSide(payables)
		snap.PayableByContractedDays = groupAvgDays(payables, contractedDaysOf, ascending, payableTableSize)
		snap.PayableByAmount = groupTotalAmount(payables, ascending, payableTableSize)
	}
	return snap
}

func summarizeSide(records []models.LedgerRecord) *models.SideSummary {
	var sumDays, sumLate int64
	for _, r := range records {
		sumDays += int64(r.ActualDays)
		sumLate += int64(r.Lateness)
	}
	n := decimal.NewFromInt(int64(len(records)))
	return &models.SideSummary{
		AvgActualDays: roundHalfUp(decimal.NewFromInt(sumDays).Div(n)),
		AvgLateness:   roundHalfUp(decimal.NewFromInt(sumLate).Div(n)),
	}
}

type sortDir bool

const (
	ascending  sortDir = true
	descending sortDir = false
)

func actualDaysOf(r models.LedgerRecord) int64     { return int64(r.ActualDays) }
func contractedDaysOf(r models.LedgerRecord) int64 { return int64(r.ContractedDays) }

// groupAvgDays averages a day-count field per counterparty. A limit of 0
// keeps every row.
func groupAvgDays(records []models.LedgerRecord, days func(models.LedgerRecord) int64, dir sortDir, limit int) []models.CounterpartyDays {
	sums := make(map[string]int64)
	counts := make(map[string]int64)
	for _, r := range records {
		sums[r.Counterparty] += days(r)
		counts[r.Counterparty]++
	}
	rows := make([]models.CounterpartyDays, 0, len(sums))
	for name, sum := range sums {
		avg := roundHalfUp(decimal.NewFromInt(sum).Div(decimal.NewFromInt(counts[name])))
		rows = append(rows, models.CounterpartyDays{Counterparty: name, AvgDays: avg})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgDays != rows[j].AvgDays {
			if dir == ascending {
				return rows[i].AvgDays < rows[j].AvgDays
			}
			return rows[i].AvgDays > rows[j].AvgDays
		}
		return rows[i].Counterparty < rows[j].Counterparty
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

func groupTotalAmount(records []models.LedgerRecord, dir sortDir, limit int) []models.CounterpartyAmount {
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		totals[r.Counterparty] = totals[r.Counterparty].Add(r.Amount)
	}
	rows := make([]models.CounterpartyAmount, 0, len(totals))
	for name, total := range totals {
		rows = append(rows, models.CounterpartyAmount{Counterparty: name, TotalAmount: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		cmp := rows[i].TotalAmount.Cmp(rows[j].TotalAmount)
		if cmp != 0 {
			if dir == ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return rows[i].Counterparty < rows[j].Counterparty
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
