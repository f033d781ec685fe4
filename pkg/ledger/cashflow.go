package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/quantifin/cashplan/pkg/models"
)

// BuildDailyCashflow buckets settled amounts into a gap-free daily
// calendar spanning [min(actual_paid_date), max(actual_paid_date)] and
// computes the running cumulative cash balance seeded with openingBalance.
// Each day's cumulative balance includes that day's own net cash.
//
// Receivable amounts are risk-weighted by their counterparty's
// late-payment percentage; payables carry no risk weight. Days on or
// before today populate ActualCumulative, later days ProjectedCumulative.
func BuildDailyCashflow(records []models.LedgerRecord, profiles []models.CounterpartyRisk, openingBalance decimal.Decimal, today models.Date) []models.DailyCashPoint {
	if len(records) == 0 {
		return nil
	}

	pctByName := make(map[string]int64, len(profiles))
	for _, p := range profiles {
		pctByName[p.Counterparty] = p.LatePaymentPct
	}

	type bucket struct {
		cashIn, cashOut    decimal.Decimal
		riskAmt, recvTotal decimal.Decimal
	}
	buckets := make(map[models.Date]*bucket)
	var first, last models.Date
	for _, r := range records {
		day := r.ActualPaidDate
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
		b := buckets[day]
		if b == nil {
			b = &bucket{}
			buckets[day] = b
		}
		if r.Amount.IsPositive() {
			b.cashIn = b.cashIn.Add(r.Amount)
		} else if r.Amount.IsNegative() {
			b.cashOut = b.cashOut.Add(r.Amount)
		}
		if r.Category == models.CategoryReceivable {
			pct := decimal.NewFromInt(pctByName[r.Counterparty])
			b.riskAmt = b.riskAmt.Add(r.Amount.Mul(pct).Div(hundred))
			b.recvTotal = b.recvTotal.Add(r.Amount)
		}
	}

	points := make([]models.DailyCashPoint, 0, last.DaysSince(first)+1)
	running := openingBalance
	for day := first; !day.After(last); day = day.AddDays(1) {
		p := models.DailyCashPoint{Date: day}
		if b := buckets[day]; b != nil {
			p.CashIn = b.cashIn
			p.CashOut = b.cashOut
			p.RiskAmount = b.riskAmt
			if !b.recvTotal.IsZero() {
				p.RiskPct = b.riskAmt.Div(b.recvTotal).Mul(hundred).Round(2)
			}
		}
		p.NetCash = p.CashIn.Add(p.CashOut)
		running = running.Add(p.NetCash)
		p.CumulativeCash = running

		cum := p.CumulativeCash
		if day.After(today) {
			p.ProjectedCumulative = &cum
		} else {
			p.ActualCumulative = &cum
		}
		points = append(points, p)
	}
	return points
}
