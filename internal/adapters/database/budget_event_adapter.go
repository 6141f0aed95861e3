package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/google/uuid"
	"github.com/snapmap/storefinder/backend/internal/domain/entities"
	"github.com/snapmap/storefinder/backend/internal/domain/repositories"
	"github.com/snapmap/storefinder/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/snapmap/storefinder/backend/pkg/errors"
)

// BudgetEventAdapter implements the write-only BudgetEventRepository
type BudgetEventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBudgetEventAdapter creates a new budget event adapter
func NewBudgetEventAdapter(client *postgres.Client) repositories.BudgetEventRepository {
	return &BudgetEventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Log records a refused billable call for auditability
func (a *BudgetEventAdapter) Log(ctx context.Context, event *entities.BudgetEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query, args, err := a.db.Insert("places_budget_events").Rows(goqu.Record{
		"id":                event.ID,
		"month":             event.Month,
		"ceiling_usd":       event.CeilingUSD,
		"operation":         event.Operation,
		"pre_call_cost_usd": event.PreCallCostUSD,
		"created_at":        event.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build budget event insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to log budget event", err)
	}

	return nil
}
