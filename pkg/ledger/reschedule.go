package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantifin/cashplan/pkg/models"
)

// Reschedule builds a payment-deferral plan over the [today, end] slice of
// the daily series. Every payable due from today on is checked against the
// baseline cumulative cash at its due date: if the balance sits below the
// threshold, the payment moves to the next day whose baseline balance
// meets it. Payables whose due date falls outside the calendar, or for
// which no qualifying day exists before the horizon ends, stay unmoved.
//
// The scan is single-pass and baseline-relative: each payable is judged
// against the unadjusted series, not against the timeline as reshaped by
// earlier deferrals in the same plan.
//
// The adjustment is applied as one batch: a delta vector over the baseline
// net cash, then a cumulative sum on top of the baseline balance. Moving
// money in time never creates or destroys it, so the adjusted and baseline
// net cash sum to the same total over the horizon.
func Reschedule(daily []models.DailyCashPoint, records []models.LedgerRecord, threshold decimal.Decimal, today models.Date) models.PaymentPlan {
	plan := models.PaymentPlan{
		Deferrals: []models.PaymentDeferral{},
		Adjusted:  []models.AdjustedCashPoint{},
	}

	var horizon []models.DailyCashPoint
	for _, p := range daily {
		if !p.Date.Before(today) {
			horizon = append(horizon, p)
		}
	}
	if len(horizon) == 0 {
		return plan
	}
	plan.CashOnHand = horizon[0].CumulativeCash

	index := make(map[models.Date]int, len(horizon))
	for i, p := range horizon {
		index[p.Date] = i
	}

	var payables []models.LedgerRecord
	for _, r := range records {
		if r.Amount.IsNegative() && !r.DueDate.Before(today) {
			payables = append(payables, r)
		}
	}
	sort.SliceStable(payables, func(i, j int) bool {
		return payables[i].DueDate.Before(payables[j].DueDate)
	})

	for _, p := range payables {
		pos, ok := index[p.DueDate]
		if !ok {
			continue // due beyond the projected calendar
		}
		if horizon[pos].CumulativeCash.GreaterThanOrEqual(threshold) {
			continue
		}
		j := pos + 1
		for j < len(horizon) && horizon[j].CumulativeCash.LessThan(threshold) {
			j++
		}
		if j == len(horizon) {
			continue // horizon exhausted, nothing qualifies
		}
		plan.Deferrals = append(plan.Deferrals, models.PaymentDeferral{
			Counterparty: p.Counterparty,
			OriginalDate: p.DueDate,
			NewDate:      horizon[j].Date,
			Amount:       p.Amount,
		})
	}

	adjNet := make([]decimal.Decimal, len(horizon))
	for i, p := range horizon {
		adjNet[i] = p.NetCash
	}
	for _, d := range plan.Deferrals {
		if i, ok := index[d.OriginalDate]; ok {
			adjNet[i] = adjNet[i].Sub(d.Amount)
		}
		if i, ok := index[d.NewDate]; ok {
			adjNet[i] = adjNet[i].Add(d.Amount)
		}
	}

	deltaSum := decimal.Zero
	adjusted := make([]models.AdjustedCashPoint, len(horizon))
	for i, p := range horizon {
		deltaSum = deltaSum.Add(adjNet[i].Sub(p.NetCash))
		adjusted[i] = models.AdjustedCashPoint{
			Date:               p.Date,
			NetCash:            p.NetCash,
			CumulativeCash:     p.CumulativeCash,
			AdjustedNetCash:    adjNet[i],
			AdjustedCumulative: p.CumulativeCash.Add(deltaSum),
		}
	}
	plan.Adjusted = adjusted
	return plan
}
