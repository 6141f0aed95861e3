package entities

import "time"

// UsageLedgerEntry is the per-calendar-month, per-operation usage record for
// the metered places API. Rows are monotonically non-decreasing within a
// month; a new month gets a new row, never a mutation of the old one.
type UsageLedgerEntry struct {
	Month              string  `json:"month"` // YYYY-MM, UTC
	Operation          string  `json:"operation"`
	TotalCalls         int     `json:"total_calls"`
	BillableCalls      int     `json:"billable_calls"`
	CostUSD            float64 `json:"cost_usd"`
	FreeCallsRemaining int     `json:"free_calls_remaining"`
}

// BudgetEvent is a write-only audit record of a refused billable call. It is
// never consulted by the budget check itself.
type BudgetEvent struct {
	ID             string    `json:"id"`
	Month          string    `json:"month"`
	CeilingUSD     float64   `json:"ceiling_usd"`
	Operation      string    `json:"operation"`
	PreCallCostUSD float64   `json:"pre_call_cost_usd"`
	CreatedAt      time.Time `json:"created_at"`
}

// MonthKey returns the UTC calendar-month ledger key for t
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
