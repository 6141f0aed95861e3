package database

import (
	"context"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
)

// UsageLedgerAdapter implements UsageLedgerRepository
type UsageLedgerAdapter struct {
	client *postgres.Client
}

// NewUsageLedgerAdapter creates a new usage ledger adapter
func NewUsageLedgerAdapter(client *postgres.Client) repositories.UsageLedgerRepository {
	return &UsageLedgerAdapter{client: client}
}

// MonthlyCost returns the accumulated cost across all operations for a month
func (a *UsageLedgerAdapter) MonthlyCost(ctx context.Context, month string) (float64, error) {
	query := `SELECT COALESCE(SUM(cost_usd), 0) FROM places_usage_ledger WHERE month = $1`

	var cost float64
	if err := a.client.DB().QueryRowContext(ctx, query, month).Scan(&cost); err != nil {
		return 0, apperrors.NewInternalError("failed to read monthly cost", err)
	}
	return cost, nil
}

// RecordUsage atomically records one call. The free-tier allowance depletes
// before any cost accrues; all arithmetic runs inside the upsert itself so
// two concurrent requests cannot both observe a remaining allowance and
// double-spend it.
func (a *UsageLedgerAdapter) RecordUsage(ctx context.Context, month, operation string, costPerCall float64, freeTierCalls int) (*entities.UsageLedgerEntry, error) {
	query := `
		INSERT INTO places_usage_ledger
			(month, operation, total_calls, billable_calls, cost_usd, free_calls_remaining)
		VALUES
			($1, $2, 1,
			 CASE WHEN $4 <= 0 THEN 1 ELSE 0 END,
			 CASE WHEN $4 <= 0 THEN $3::numeric ELSE 0 END,
			 GREATEST($4 - 1, 0))
		ON CONFLICT (month, operation) DO UPDATE SET
			total_calls = places_usage_ledger.total_calls + 1,
			billable_calls = places_usage_ledger.billable_calls +
				CASE WHEN places_usage_ledger.free_calls_remaining > 0 THEN 0 ELSE 1 END,
			cost_usd = places_usage_ledger.cost_usd +
				CASE WHEN places_usage_ledger.free_calls_remaining > 0 THEN 0 ELSE $3::numeric END,
			free_calls_remaining = GREATEST(places_usage_ledger.free_calls_remaining - 1, 0)
		RETURNING month, operation, total_calls, billable_calls, cost_usd, free_calls_remaining
	`

	entry := &entities.UsageLedgerEntry{}
	err := a.client.DB().QueryRowContext(ctx, query, month, operation, costPerCall, freeTierCalls).Scan(
		&entry.Month,
		&entry.Operation,
		&entry.TotalCalls,
		&entry.BillableCalls,
		&entry.CostUSD,
		&entry.FreeCallsRemaining,
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to record places usage", err)
	}

	return entry, nil
}

// ListMonth returns all ledger rows for a month
func (a *UsageLedgerAdapter) ListMonth(ctx context.Context, month string) ([]*entities.UsageLedgerEntry, error) {
	query := `
		SELECT month, operation, total_calls, billable_calls, cost_usd, free_calls_remaining
		FROM places_usage_ledger
		WHERE month = $1
		ORDER BY operation
	`

	rows, err := a.client.DB().QueryContext(ctx, query, month)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list usage ledger", err)
	}
	defer rows.Close()

	var entries []*entities.UsageLedgerEntry
	for rows.Next() {
		e := &entities.UsageLedgerEntry{}
		err := rows.Scan(&e.Month, &e.Operation, &e.TotalCalls, &e.BillableCalls, &e.CostUSD, &e.FreeCallsRemaining)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan ledger entry", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
