package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/usecase"
)

func TestEnrich(t *testing.T) {
	ctx := context.Background()

	t.Run("empty batch resolves nothing", func(t *testing.T) {
		repo := newSpyRepo(t)
		views, err := usecase.Enrich(ctx, usecase.NewLookupCache(repo.Lookup()), nil)
		gt.NoError(t, err).Required()
		gt.Bool(t, views != nil).True()
		gt.Number(t, len(views)).Equal(0)
		gt.Number(t, repo.lookup.TotalCalls()).Equal(0)
	})

	t.Run("one resolution per kind for the whole batch", func(t *testing.T) {
		repo := newSpyRepo(t)
		issues := make([]*model.Issue, 0, 20)
		for i := 0; i < 20; i++ {
			issue := newIssueInput("issue")
			issue.ID = model.NewIssueID()
			if i%2 == 0 {
				issue.StatusID = "st-closed"
			}
			issues = append(issues, issue)
		}

		views, err := usecase.Enrich(ctx, usecase.NewLookupCache(repo.Lookup()), issues)
		gt.NoError(t, err).Required()
		gt.Number(t, len(views)).Equal(20)
		for _, kind := range types.AllLookupKinds() {
			gt.Number(t, repo.lookup.Calls(kind)).Equal(1)
		}

		gt.Value(t, views[0].Status.Name).Equal("Closed")
		gt.Value(t, views[1].Status.Name).Equal("Open")
		gt.Value(t, views[1].Priority.Name).Equal("High")
		gt.Value(t, views[1].Type.Name).Equal("Bug")
		gt.Value(t, views[1].Severity.Name).Equal("Major")
		gt.Value(t, views[1].Reporter).Equal(model.LookupRef{ID: "u-alice", Name: "alice"})
		gt.Value(t, views[1].ID).Equal(issues[1].ID)
	})

	t.Run("kinds not referenced are not resolved", func(t *testing.T) {
		repo := newSpyRepo(t)
		issue := &model.Issue{ID: "i-1", Title: "bare", StatusID: "st-open"}

		_, err := usecase.Enrich(ctx, usecase.NewLookupCache(repo.Lookup()), []*model.Issue{issue})
		gt.NoError(t, err).Required()
		gt.Number(t, repo.lookup.Calls(types.LookupKindStatus)).Equal(1)
		gt.Number(t, repo.lookup.TotalCalls()).Equal(1)
	})

	t.Run("dangling references render Unknown", func(t *testing.T) {
		repo := newSpyRepo(t)
		issue := newIssueInput("dangling")
		issue.ID = "i-1"
		issue.StatusID = "st-deleted"
		issue.AssigneeUserIDs = []string{"u-bob", "u-gone"}

		views, err := usecase.Enrich(ctx, usecase.NewLookupCache(repo.Lookup()), []*model.Issue{issue})
		gt.NoError(t, err).Required()
		gt.Value(t, views[0].Status).Equal(model.LookupRef{ID: "st-deleted", Name: "Unknown"})
		gt.Value(t, views[0].Assignees).Equal([]model.LookupRef{
			{ID: "u-bob", Name: "bob"},
			{ID: "u-gone", Name: "Unknown"},
		})
	})

	t.Run("store failure fails enrichment", func(t *testing.T) {
		repo := newSpyRepo(t)
		repo.lookup.err = interfaces.ErrStorageUnavailable
		issue := newIssueInput("x")

		_, err := usecase.Enrich(ctx, usecase.NewLookupCache(repo.Lookup()), []*model.Issue{issue})
		gt.Bool(t, errors.Is(err, interfaces.ErrStorageUnavailable)).True()
	})
}
