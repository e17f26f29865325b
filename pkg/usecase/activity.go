package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/service/activity"
)

const (
	// DefaultTailTimeout bounds each read attempt of the recent activity feed
	DefaultTailTimeout = 500 * time.Millisecond

	DefaultLogLimit     = 100
	DefaultUserLogCount = 5
)

// ActivityUseCase serves the activity feeds. The recent feed tails the activity topic; the log views
// query the persisted copy of the events.
type ActivityUseCase struct {
	repo      interfaces.Repository
	publisher ActivityPublisher
	tailer    ActivityTailer
	clock     func() time.Time
}

func NewActivityUseCase(repo interfaces.Repository, publisher ActivityPublisher, tailer ActivityTailer, clock func() time.Time) *ActivityUseCase {
	if clock == nil {
		clock = time.Now
	}
	return &ActivityUseCase{
		repo:      repo,
		publisher: publisher,
		tailer:    tailer,
		clock:     clock,
	}
}

// SendActivity publishes ev to the activity topic and waits for the acknowledgment
func (uc *ActivityUseCase) SendActivity(ctx context.Context, ev *model.ActivityEvent) error {
	if uc.publisher == nil {
		return goerr.Wrap(ErrAuditDelivery, "activity publisher is not configured")
	}
	if ev == nil {
		return validationError("activity event is required")
	}
	if ev.Status == "" {
		ev.Status = types.ActivityStatusSuccess
	}
	if ev.Source == "" {
		ev.Source = model.RequestMetaFromContext(ctx).Source
	}

	if err := uc.publisher.Publish(ctx, ev); err != nil {
		if errors.Is(err, activity.ErrInvalidEvent) {
			return goerr.Wrap(fmt.Errorf("%w: %w", ErrValidation, err), "invalid activity event")
		}
		return goerr.Wrap(err, "failed to send activity")
	}
	return nil
}

// RecentActivity returns summaries of the latest count events of the activity topic in offset order
func (uc *ActivityUseCase) RecentActivity(ctx context.Context, count int) ([]*model.ActivitySummary, error) {
	if count <= 0 {
		return nil, validationError("count must be positive", goerr.V("count", count))
	}
	if uc.tailer == nil {
		return nil, goerr.New("activity feed is not configured")
	}

	events, err := uc.tailer.TailRecent(ctx, count, DefaultTailTimeout)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read recent activity", goerr.V("count", count))
	}

	return uc.summarize(ctx, events)
}

// FetchLogs returns up to limit persisted events, newest first
func (uc *ActivityUseCase) FetchLogs(ctx context.Context, limit int) ([]*model.ActivityEvent, error) {
	if limit <= 0 {
		limit = DefaultLogLimit
	}

	events, err := uc.repo.Activity().ListRecent(ctx, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch activity logs", goerr.V("limit", limit))
	}
	return events, nil
}

// RecentLogs returns summaries of the latest persisted events, newest first
func (uc *ActivityUseCase) RecentLogs(ctx context.Context, count int) ([]*model.ActivitySummary, error) {
	if count <= 0 {
		count = activity.DefaultTailCount
	}

	events, err := uc.repo.Activity().ListRecent(ctx, count)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch recent activity logs", goerr.V("count", count))
	}
	return uc.summarize(ctx, events)
}

// UserLogs returns summaries of the latest persisted events of one user, newest first
func (uc *ActivityUseCase) UserLogs(ctx context.Context, userID string, count int) ([]*model.ActivitySummary, error) {
	if userID == "" {
		return nil, validationError("user id is required")
	}
	if count <= 0 {
		count = DefaultUserLogCount
	}

	events, err := uc.repo.Activity().ListByUser(ctx, userID, count)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch user activity logs", goerr.V("user_id", userID))
	}
	return uc.summarize(ctx, events)
}

// summarize renders events for the feed. User names are resolved in one batch; events whose user does
// not resolve are attributed to "System".
func (uc *ActivityUseCase) summarize(ctx context.Context, events []*model.ActivityEvent) ([]*model.ActivitySummary, error) {
	userIDs := make([]string, 0, len(events))
	for _, ev := range events {
		userIDs = append(userIDs, ev.UserID)
	}

	names, err := lookupCache(ctx, uc.repo.Lookup()).Resolve(ctx, types.LookupKindUser, userIDs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve activity users")
	}

	now := uc.clock()
	summaries := make([]*model.ActivitySummary, 0, len(events))
	for _, ev := range events {
		user, ok := names[ev.UserID]
		if !ok {
			user = model.SystemUserName
		}
		summaries = append(summaries, &model.ActivitySummary{
			ID:          ev.ID,
			User:        user,
			Description: ev.Description,
			RelativeAge: model.RelativeAge(now, ev.Timestamp),
			Timestamp:   ev.Timestamp,
		})
	}
	return summaries, nil
}
