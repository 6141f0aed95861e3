package repositories

import (
	"context"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
)

// UsageLedgerRepository tracks per-month, per-operation usage of the metered
// places API.
type UsageLedgerRepository interface {
	// MonthlyCost returns the accumulated cost across all operations for the
	// given month key. Zero when no rows exist yet.
	MonthlyCost(ctx context.Context, month string) (float64, error)

	// RecordUsage atomically records one call for (month, operation). The
	// free-tier allowance depletes first; once it is exhausted the call is
	// billed at costPerCall. The entire arithmetic runs as a single upsert so
	// concurrent requests cannot double-spend the free tier. Returns the
	// updated ledger row.
	RecordUsage(ctx context.Context, month, operation string, costPerCall float64, freeTierCalls int) (*entities.UsageLedgerEntry, error)

	// ListMonth returns all ledger rows for a month
	ListMonth(ctx context.Context, month string) ([]*entities.UsageLedgerEntry, error)
}

// BudgetEventRepository is the write-only audit log for refused billable
// calls. Nothing in the budget check reads it back.
type BudgetEventRepository interface {
	Log(ctx context.Context, event *entities.BudgetEvent) error
}
