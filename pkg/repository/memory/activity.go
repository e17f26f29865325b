package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
)

type activityRepository struct {
	mu     sync.RWMutex
	events []*model.ActivityEvent
}

func newActivityRepository() *activityRepository {
	return &activityRepository{}
}

func (r *activityRepository) Put(ctx context.Context, event *model.ActivityEvent) error {
	if event.ID == "" {
		return goerr.Wrap(interfaces.ErrInvalidArgument, "activity event ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *event
	r.events = append(r.events, &copied)
	return nil
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]*model.ActivityEvent, error) {
	return r.list(limit, func(*model.ActivityEvent) bool { return true }), nil
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ActivityEvent, error) {
	return r.list(limit, func(ev *model.ActivityEvent) bool { return ev.UserID == userID }), nil
}

func (r *activityRepository) list(limit int, match func(*model.ActivityEvent) bool) []*model.ActivityEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*model.ActivityEvent, 0)
	for _, ev := range r.events {
		if match(ev) {
			copied := *ev
			matched = append(matched, &copied)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
