package repositories

import (
	"context"
	"time"

	"github.com/snapmap/storefinder/backend/internal/domain/entities"
)

// ClickEventRepository stores and queries recent store click events
type ClickEventRepository interface {
	// Record persists a click event
	Record(ctx context.Context, event *entities.ClickEvent) error

	// ListRecent returns events for the given store ids clicked at or after
	// the time lower bound
	ListRecent(ctx context.Context, storeIDs []string, since time.Time) ([]*entities.ClickEvent, error)
}
