package interfaces

import (
	"context"

	"github.com/secmon-lab/trustflow/pkg/domain/model"
)

// ActivityRepository persists activity events for the queryable log views
type ActivityRepository interface {
	// Put stores an event. Events are never updated.
	Put(ctx context.Context, event *model.ActivityEvent) error

	// ListRecent returns up to limit events, newest first
	ListRecent(ctx context.Context, limit int) ([]*model.ActivityEvent, error)

	// ListByUser returns up to limit events of userID, newest first
	ListByUser(ctx context.Context, userID string, limit int) ([]*model.ActivityEvent, error)
}
