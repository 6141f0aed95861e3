package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUsage_SingleUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewUsageLedgerAdapter(postgres.NewClientWithDB(db))

	rows := sqlmock.NewRows([]string{
		"month", "operation", "total_calls", "billable_calls", "cost_usd", "free_calls_remaining",
	}).AddRow("2026-08", "text_search", 5, 2, 0.064, 0)

	mock.ExpectQuery("INSERT INTO places_usage_ledger").
		WithArgs("2026-08", "text_search", 0.032, 3).
		WillReturnRows(rows)

	entry, err := adapter.RecordUsage(context.Background(), "2026-08", "text_search", 0.032, 3)
	require.NoError(t, err)

	assert.Equal(t, 5, entry.TotalCalls)
	assert.Equal(t, 2, entry.BillableCalls)
	assert.Equal(t, 0, entry.FreeCallsRemaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyCost_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewUsageLedgerAdapter(postgres.NewClientWithDB(db))

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("2026-08").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0.0))

	cost, err := adapter.MonthlyCost(context.Background(), "2026-08")
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost)
}

func TestListMonth(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	adapter := NewUsageLedgerAdapter(postgres.NewClientWithDB(db))

	rows := sqlmock.NewRows([]string{
		"month", "operation", "total_calls", "billable_calls", "cost_usd", "free_calls_remaining",
	}).
		AddRow("2026-08", "place_details", 12, 0, 0.0, 988).
		AddRow("2026-08", "text_search", 40, 10, 0.32, 0)

	mock.ExpectQuery("SELECT month, operation").
		WithArgs("2026-08").
		WillReturnRows(rows)

	entries, err := adapter.ListMonth(context.Background(), "2026-08")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "place_details", entries[0].Operation)
	assert.Equal(t, 10, entries[1].BillableCalls)
}
