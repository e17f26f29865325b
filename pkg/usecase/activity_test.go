package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/service/activity"
	"github.com/secmon-lab/trustflow/pkg/service/eventlog"
	"github.com/secmon-lab/trustflow/pkg/usecase"
)

var baseTime = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return baseTime }

func newEvent(userID, description string, age time.Duration) *model.ActivityEvent {
	return &model.ActivityEvent{
		Timestamp:   baseTime.Add(-age),
		UserID:      userID,
		Category:    types.ActivityCategoryIssue,
		EntityType:  types.EntityTypeIssue,
		Action:      types.ActivityActionCreate,
		Description: description,
		Source:      types.ActivitySourceAPI,
		Status:      types.ActivityStatusSuccess,
	}
}

func TestActivityUseCase_RecentActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("renders the tail of the topic", func(t *testing.T) {
		repo := newSpyRepo(t)
		log := eventlog.NewMemory()
		pub := activity.NewPublisher(log)

		gt.NoError(t, pub.Publish(ctx, newEvent("u-alice", "created BUG-1", 90*time.Second))).Required()
		_, err := log.Append(ctx, []byte("not json"))
		gt.NoError(t, err).Required()
		gt.NoError(t, pub.Publish(ctx, newEvent("", "nightly cleanup", 2*time.Hour))).Required()
		gt.NoError(t, pub.Publish(ctx, newEvent("u-gone", "created BUG-2", 3*24*time.Hour))).Required()

		uc := usecase.New(repo,
			usecase.WithActivityTailer(activity.NewConsumer(log)),
			usecase.WithClock(fixedClock))

		summaries, err := uc.Activity.RecentActivity(ctx, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, summaries).Length(3)

		gt.Value(t, summaries[0].User).Equal("alice")
		gt.Value(t, summaries[0].Description).Equal("created BUG-1")
		gt.Value(t, summaries[0].RelativeAge).Equal("1 minute ago")
		gt.Value(t, summaries[1].User).Equal("System")
		gt.Value(t, summaries[1].RelativeAge).Equal("2 hours ago")
		gt.Value(t, summaries[2].User).Equal("System")
		gt.Value(t, summaries[2].RelativeAge).Equal("3 days ago")

		gt.Number(t, repo.lookup.Calls(types.LookupKindUser)).Equal(1)
	})

	t.Run("count must be positive", func(t *testing.T) {
		uc := usecase.New(newSpyRepo(t), usecase.WithActivityTailer(activity.NewConsumer(eventlog.NewMemory())))
		_, err := uc.Activity.RecentActivity(ctx, 0)
		gt.Bool(t, errors.Is(err, usecase.ErrValidation)).True()
	})

	t.Run("feed not configured", func(t *testing.T) {
		uc := usecase.New(newSpyRepo(t))
		_, err := uc.Activity.RecentActivity(ctx, 10)
		gt.Value(t, err).NotNil()
	})
}

func TestActivityUseCase_SendActivity(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes to the log", func(t *testing.T) {
		log := eventlog.NewMemory()
		uc := usecase.New(newSpyRepo(t), usecase.WithActivityPublisher(activity.NewPublisher(log)))

		ev := newEvent("u-alice", "manual entry", 0)
		ev.Status = ""
		gt.NoError(t, uc.Activity.SendActivity(ctx, ev)).Required()

		_, high, err := log.Watermarks(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, high).Equal(1)
		gt.Value(t, ev.Status).Equal(types.ActivityStatusSuccess)
	})

	t.Run("invalid event", func(t *testing.T) {
		uc := usecase.New(newSpyRepo(t), usecase.WithActivityPublisher(activity.NewPublisher(eventlog.NewMemory())))
		ev := newEvent("u-alice", "no action", 0)
		ev.Action = ""
		err := uc.Activity.SendActivity(ctx, ev)
		gt.Bool(t, errors.Is(err, usecase.ErrValidation)).True()
	})

	t.Run("unavailable log is a delivery failure", func(t *testing.T) {
		log := eventlog.NewMemory()
		gt.NoError(t, log.Close()).Required()
		uc := usecase.New(newSpyRepo(t), usecase.WithActivityPublisher(activity.NewPublisher(log)))

		err := uc.Activity.SendActivity(ctx, newEvent("u-alice", "lost", 0))
		gt.Bool(t, errors.Is(err, usecase.ErrAuditDelivery)).True()
	})
}

func TestActivityUseCase_Logs(t *testing.T) {
	ctx := context.Background()
	repo := newSpyRepo(t)
	uc := usecase.New(repo, usecase.WithClock(fixedClock))

	for i, ev := range []*model.ActivityEvent{
		newEvent("u-alice", "oldest", 3*time.Hour),
		newEvent("u-bob", "middle", 2*time.Hour),
		newEvent("u-alice", "newest", time.Minute),
	} {
		ev.ID = model.ActivityEventID([]string{"a", "b", "c"}[i])
		gt.NoError(t, repo.Activity().Put(ctx, ev)).Required()
	}

	logs, err := uc.Activity.FetchLogs(ctx, 0)
	gt.NoError(t, err).Required()
	gt.Array(t, logs).Length(3)
	gt.Value(t, logs[0].Description).Equal("newest")

	recent, err := uc.Activity.RecentLogs(ctx, 2)
	gt.NoError(t, err).Required()
	gt.Array(t, recent).Length(2)
	gt.Value(t, recent[0].RelativeAge).Equal("1 minute ago")
	gt.Value(t, recent[1].User).Equal("bob")

	mine, err := uc.Activity.UserLogs(ctx, "u-alice", 0)
	gt.NoError(t, err).Required()
	gt.Array(t, mine).Length(2)
	gt.Value(t, mine[0].Description).Equal("newest")
	gt.Value(t, mine[1].RelativeAge).Equal("3 hours ago")

	_, err = uc.Activity.UserLogs(ctx, "", 0)
	gt.Bool(t, errors.Is(err, usecase.ErrValidation)).True()
}
