package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"golang.org/x/sync/errgroup"
)

// Enrich builds the read models of issues. Referenced ids are collected per lookup kind across the
// whole batch and each kind present is resolved once, all kinds concurrently. Ids that do not resolve
// render as "Unknown".
func Enrich(ctx context.Context, cache *LookupCache, issues []*model.Issue) ([]*model.IssueView, error) {
	views := make([]*model.IssueView, 0, len(issues))
	if len(issues) == 0 {
		return views, nil
	}

	idsByKind := make(map[types.LookupKind][]string)
	for _, kind := range types.AllLookupKinds() {
		var ids []string
		for _, issue := range issues {
			ids = append(ids, issue.LookupIDs(kind)...)
		}
		if ids = model.UniqueStrings(ids); len(ids) > 0 {
			idsByKind[kind] = ids
		}
	}

	var mu sync.Mutex
	names := make(map[types.LookupKind]map[string]string, len(idsByKind))

	eg, egCtx := errgroup.WithContext(ctx)
	for kind, ids := range idsByKind {
		eg.Go(func() error {
			resolved, err := cache.Resolve(egCtx, kind, ids)
			if err != nil {
				return err
			}
			mu.Lock()
			names[kind] = resolved
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "failed to enrich issues", goerr.V("count", len(issues)))
	}

	ref := func(kind types.LookupKind, id string) model.LookupRef {
		if id == "" {
			return model.LookupRef{Name: model.UnknownLookupName}
		}
		if name, ok := names[kind][id]; ok {
			return model.LookupRef{ID: id, Name: name}
		}
		return model.LookupRef{ID: id, Name: model.UnknownLookupName}
	}

	for _, issue := range issues {
		view := &model.IssueView{
			ID:             issue.ID,
			HumanID:        issue.HumanID,
			Title:          issue.Title,
			Description:    issue.Description,
			ProjectID:      issue.ProjectID,
			Status:         ref(types.LookupKindStatus, issue.StatusID),
			Priority:       ref(types.LookupKindPriority, issue.PriorityID),
			Type:           ref(types.LookupKindType, issue.TypeID),
			Severity:       ref(types.LookupKindSeverity, issue.SeverityID),
			Reporter:       ref(types.LookupKindUser, issue.ReporterUserID),
			Assignees:      make([]model.LookupRef, 0, len(issue.AssigneeUserIDs)),
			LinkedIssueIDs: issue.LinkedIssueIDs,
			CreatedAt:      issue.CreatedAt,
			UpdatedAt:      issue.UpdatedAt,
		}
		for _, id := range issue.AssigneeUserIDs {
			view.Assignees = append(view.Assignees, ref(types.LookupKindUser, id))
		}
		views = append(views, view)
	}

	return views, nil
}
