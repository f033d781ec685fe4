package models

import (
	"github.com/shopspring/decimal"
)

// Category says which side of the ledger a record sits on.
type Category string

const (
	CategoryReceivable Category = "receivable" // money owed to us
	CategoryPayable    Category = "payable"    // money we owe
)

// RawRecord is one row of an uploaded ledger table, before date validation.
// Amounts are signed: positive for receivables, negative for payables.
type RawRecord struct {
	Counterparty   string          `json:"counterparty"`
	Category       Category        `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	BilledDate     string          `json:"billed_date"`
	ActualPaidDate string          `json:"actual_paid_date"`
	DueDate        string          `json:"due_date"`
}

// LedgerRecord is a validated ledger row with its derived day counts.
// The day counts are computed once at load time and never change.
type LedgerRecord struct {
	Counterparty   string          `json:"counterparty"`
	Category       Category        `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	BilledDate     Date            `json:"billed_date"`
	ActualPaidDate Date            `json:"actual_paid_date"`
	DueDate        Date            `json:"due_date"`
	ActualDays     int             `json:"actual_days"`     // actual_paid_date - billed_date
	ContractedDays int             `json:"contracted_days"` // due_date - billed_date
	Lateness       int             `json:"lateness"`        // actual_days - contracted_days; positive = late
}

// RiskGrade is the ordinal classification of a counterparty's historical
// late-payment percentage.
type RiskGrade string

const (
	GradeVeryLow   RiskGrade = "very_low"
	GradeLow       RiskGrade = "low"
	GradeModerate  RiskGrade = "moderate"
	GradeRisky     RiskGrade = "risky"
	GradeVeryRisky RiskGrade = "very_risky"
)

// CounterpartyRisk is the receivable-side risk profile of one counterparty.
// Counterparties with no receivable records in the window have no profile.
type CounterpartyRisk struct {
	Counterparty   string    `json:"counterparty"`
	LatePaymentPct int64     `json:"late_payment_pct"`
	Grade          RiskGrade `json:"grade"`
}

// SideSummary holds the headline aging metrics for one ledger side.
type SideSummary struct {
	AvgActualDays int64 `json:"avg_actual_days"`
	AvgLateness   int64 `json:"avg_lateness"` // signed; positive means systematically late
}

// CounterpartyDays is one row of a per-counterparty average-duration table.
type CounterpartyDays struct {
	Counterparty string `json:"counterparty"`
	AvgDays      int64  `json:"avg_days"`
}

// CounterpartyAmount is one row of a per-counterparty total-amount table.
type CounterpartyAmount struct {
	Counterparty string          `json:"counterparty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
}

// AgingSnapshot is the AR/AP aging picture inside the evaluation window
// [WindowStart, WindowEnd]. A side with no records in the window has a nil
// summary and empty tables: absence means "no data", not "zero risk".
type AgingSnapshot struct {
	WindowStart Date `json:"window_start"`
	WindowEnd   Date `json:"window_end"`
	WindowDays  int  `json:"window_days"`

	Receivable *SideSummary `json:"receivable,omitempty"`
	Payable    *SideSummary `json:"payable,omitempty"`

	ReceivableByDuration []CounterpartyDays   `json:"receivable_by_duration,omitempty"`
	ReceivableByAmount   []CounterpartyAmount `json:"receivable_by_amount,omitempty"`
	RiskTable            []CounterpartyRisk   `json:"risk_table,omitempty"`

	// Payable tables keep the upstream ordering as-is: ascending, first ten.
	PayableByContractedDays []CounterpartyDays   `json:"payable_by_contracted_days,omitempty"`
	PayableByAmount         []CounterpartyAmount `json:"payable_by_amount,omitempty"`
}

// DailyCashPoint is one day of the gap-free cashflow calendar.
// ActualCumulative is set on days up to and including "today",
// ProjectedCumulative on days after it; never both.
type DailyCashPoint struct {
	Date           Date            `json:"date"`
	CashIn         decimal.Decimal `json:"cash_in"`
	CashOut        decimal.Decimal `json:"cash_out"` // keeps its negative sign
	NetCash        decimal.Decimal `json:"net_cash"`
	RiskAmount     decimal.Decimal `json:"risk_amount"` // risk-weighted receivable exposure
	RiskPct        decimal.Decimal `json:"risk_pct"`
	CumulativeCash decimal.Decimal `json:"cumulative_cash"`

	ActualCumulative    *decimal.Decimal `json:"actual_cumulative,omitempty"`
	ProjectedCumulative *decimal.Decimal `json:"projected_cumulative,omitempty"`
}

// PaymentDeferral moves one payable's cash-out impact to a later day.
// Deferrals carry no identity of their own: re-running the pipeline on the
// same inputs yields the exact same table.
type PaymentDeferral struct {
	Counterparty string          `json:"counterparty"`
	OriginalDate Date            `json:"original_date"`
	NewDate      Date            `json:"new_date"`
	Amount       decimal.Decimal `json:"amount"` // the payable's original signed (negative) amount
}

// AdjustedCashPoint pairs the baseline daily series with the series after
// applying the deferral plan, over the [today, end] horizon.
type AdjustedCashPoint struct {
	Date               Date            `json:"date"`
	NetCash            decimal.Decimal `json:"net_cash"`
	CumulativeCash     decimal.Decimal `json:"cumulative_cash"`
	AdjustedNetCash    decimal.Decimal `json:"adjusted_net_cash"`
	AdjustedCumulative decimal.Decimal `json:"adjusted_cumulative_cash"`
}

// PaymentPlan is the rescheduler output.
type PaymentPlan struct {
	CashOnHand decimal.Decimal     `json:"cash_on_hand"` // cumulative cash at the start of the horizon
	Deferrals  []PaymentDeferral   `json:"deferrals"`
	Adjusted   []AdjustedCashPoint `json:"adjusted"`
}

// Report bundles everything one pipeline run produces.
type Report struct {
	Aging AgingSnapshot      `json:"aging"`
	Risk  []CounterpartyRisk `json:"risk"`
	Daily []DailyCashPoint   `json:"daily"`
	Plan  PaymentPlan        `json:"plan"`
}
