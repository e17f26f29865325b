package model_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

func TestRelativeAge(t *testing.T) {
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		age  time.Duration
		want string
	}{
		{name: "just now", age: 10 * time.Second, want: "0 minute ago"},
		{name: "90 seconds", age: 90 * time.Second, want: "1 minute ago"},
		{name: "two minutes", age: 2 * time.Minute, want: "2 minutes ago"},
		{name: "59 minutes", age: 59 * time.Minute, want: "59 minutes ago"},
		{name: "one hour", age: 60 * time.Minute, want: "1 hour ago"},
		{name: "7200 seconds", age: 7200 * time.Second, want: "2 hours ago"},
		{name: "one day", age: 30 * time.Hour, want: "1 day ago"},
		{name: "29 days", age: 29 * 24 * time.Hour, want: "29 days ago"},
		{name: "one month", age: 45 * 24 * time.Hour, want: "1 month ago"},
		{name: "three months", age: 95 * 24 * time.Hour, want: "3 months ago"},
		{name: "one year", age: 400 * 24 * time.Hour, want: "1 year ago"},
		{name: "two years", age: 800 * 24 * time.Hour, want: "2 years ago"},
		{name: "future timestamp", age: -5 * time.Minute, want: "0 minute ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.RelativeAge(now, now.Add(-tt.age))).Equal(tt.want)
		})
	}
}

func TestActivityEvent_Validate(t *testing.T) {
	valid := func() *model.ActivityEvent {
		return &model.ActivityEvent{
			Timestamp:  time.Now(),
			Category:   types.ActivityCategoryIssue,
			EntityType: types.EntityTypeIssue,
			Action:     types.ActivityActionCreate,
			Source:     types.ActivitySourceAPI,
			Status:     types.ActivityStatusSuccess,
		}
	}

	t.Run("valid event", func(t *testing.T) {
		gt.NoError(t, valid().Validate())
	})

	t.Run("missing timestamp", func(t *testing.T) {
		ev := valid()
		ev.Timestamp = time.Time{}
		gt.Value(t, ev.Validate()).NotNil()
	})

	t.Run("missing action", func(t *testing.T) {
		ev := valid()
		ev.Action = ""
		gt.Value(t, ev.Validate()).NotNil()
	})

	t.Run("invalid status", func(t *testing.T) {
		ev := valid()
		ev.Status = "done"
		gt.Value(t, ev.Validate()).NotNil()
	})
}

func TestActivityEvent_JSONFieldOrder(t *testing.T) {
	ev := &model.ActivityEvent{
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UserID:      "u1",
		Category:    types.ActivityCategoryIssue,
		EntityType:  types.EntityTypeIssue,
		Action:      types.ActivityActionCreate,
		Description: "Issue BUG-1 created",
		Source:      types.ActivitySourceAPI,
		Status:      types.ActivityStatusSuccess,
	}

	raw, err := json.Marshal(ev)
	gt.NoError(t, err).Required()

	s := string(raw)
	gt.B(t, strings.HasPrefix(s, `{"timestamp":"2026-01-02T03:04:05Z","userId":"u1","category":"issue"`)).True()
	gt.B(t, strings.Contains(s, "oldValue")).False()
	gt.B(t, strings.Index(s, `"description"`) < strings.Index(s, `"source"`)).True()
}
