package ledger

import (
	"github.com/quantifin/cashplan/pkg/models"
)

// Normalize validates the dates of an uploaded ledger table and computes
// the derived day counts. It is all-or-nothing: the first unparseable date
// aborts the load with a *MalformedDateError and no partial result.
func Normalize(raw []models.RawRecord) ([]models.LedgerRecord, error) {
	records := make([]models.LedgerRecord, 0, len(raw))
	for i, r := range raw {
		billed, err := models.ParseDate(r.BilledDate)
		if err != nil {
			return nil, &MalformedDateError{Row: i + 1, Field: "billed_date", Value: r.BilledDate}
		}
		paid, err := models.ParseDate(r.ActualPaidDate)
		if err != nil {
			return nil, &MalformedDateError{Row: i + 1, Field: "actual_paid_date", Value: r.ActualPaidDate}
		}
		due, err := models.ParseDate(r.DueDate)
		if err != nil {
			return nil, &MalformedDateError{Row: i + 1, Field: "due_date", Value: r.DueDate}
		}

		actualDays := paid.DaysSince(billed)
		contractedDays := due.DaysSince(billed)
		records = append(records, models.LedgerRecord{
			Counterparty:   r.Counterparty,
			Category:       r.Category,
			Amount:         r.Amount,
			BilledDate:     billed,
			ActualPaidDate: paid,
			DueDate:        due,
			ActualDays:     actualDays,
			ContractedDays: contractedDays,
			Lateness:       actualDays - contractedDays,
		})
	}
	return records, nil
}
