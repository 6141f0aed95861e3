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

// ClickEventAdapter implements ClickEventRepository
type ClickEventAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewClickEventAdapter creates a new click event adapter
func NewClickEventAdapter(client *postgres.Client) repositories.ClickEventRepository {
	return &ClickEventAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Record persists a click event
func (a *ClickEventAdapter) Record(ctx context.Context, event *entities.ClickEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.ClickedAt.IsZero() {
		event.ClickedAt = time.Now()
	}

	query, args, err := a.db.Insert("store_clicks").Rows(goqu.Record{
		"id":         event.ID,
		"store_id":   event.StoreID,
		"clicked_at": event.ClickedAt,
		"user_lat":   event.UserLat,
		"user_lng":   event.UserLng,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build click insert", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to record click event", err)
	}

	return nil
}

// ListRecent returns click events for the given stores at or after since
func (a *ClickEventAdapter) ListRecent(ctx context.Context, storeIDs []string, since time.Time) ([]*entities.ClickEvent, error) {
	if len(storeIDs) == 0 {
		return []*entities.ClickEvent{}, nil
	}

	query, args, err := a.db.Select("id", "store_id", "clicked_at", "user_lat", "user_lng").
		From("store_clicks").
		Where(
			goqu.Ex{"store_id": storeIDs},
			goqu.C("clicked_at").Gte(since),
		).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build click query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list click events", err)
	}
	defer rows.Close()

	var events []*entities.ClickEvent
	for rows.Next() {
		e := &entities.ClickEvent{}
		if err := rows.Scan(&e.ID, &e.StoreID, &e.ClickedAt, &e.UserLat, &e.UserLng); err != nil {
			return nil, apperrors.NewInternalError("failed to scan click event", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}
