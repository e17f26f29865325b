package usecase

import (
	"context"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

// statusClassifier splits status ids into open and closed. Ids of unknown statuses are neither.
type statusClassifier map[string]bool

func (uc *IssueUseCase) statusClassifier(ctx context.Context) (statusClassifier, error) {
	statuses, err := uc.repo.Lookup().List(ctx, types.LookupKindStatus)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list statuses")
	}

	closed := make(statusClassifier, len(statuses))
	for _, s := range statuses {
		closed[s.ID] = s.IsClosedStatus()
	}
	return closed, nil
}

func (c statusClassifier) count(issue *model.Issue, total, open, closed *int) {
	*total++
	isClosed, known := c[issue.StatusID]
	switch {
	case !known:
	case isClosed:
		*closed++
	default:
		*open++
	}
}

// ProjectWiseAnalytics counts issues per project, ordered by project id
func (uc *IssueUseCase) ProjectWiseAnalytics(ctx context.Context) ([]*model.ProjectIssueStats, error) {
	classifier, err := uc.statusClassifier(ctx)
	if err != nil {
		return nil, err
	}

	issues, err := uc.repo.Issue().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues")
	}

	byProject := make(map[string]*model.ProjectIssueStats)
	for _, issue := range issues {
		stats, ok := byProject[issue.ProjectID]
		if !ok {
			stats = &model.ProjectIssueStats{ProjectID: issue.ProjectID}
			byProject[issue.ProjectID] = stats
		}
		classifier.count(issue, &stats.TotalIssues, &stats.OpenIssues, &stats.ClosedIssues)
	}

	result := make([]*model.ProjectIssueStats, 0, len(byProject))
	for _, stats := range byProject {
		result = append(result, stats)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProjectID < result[j].ProjectID
	})
	return result, nil
}

// UserWiseAnalytics counts issues per assignee, ordered by user id. An issue with several assignees
// counts once for each of them.
func (uc *IssueUseCase) UserWiseAnalytics(ctx context.Context) ([]*model.UserIssueStats, error) {
	classifier, err := uc.statusClassifier(ctx)
	if err != nil {
		return nil, err
	}

	issues, err := uc.repo.Issue().List(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list issues")
	}

	byUser := make(map[string]*model.UserIssueStats)
	for _, issue := range issues {
		for _, userID := range issue.AssigneeUserIDs {
			stats, ok := byUser[userID]
			if !ok {
				stats = &model.UserIssueStats{UserID: userID}
				byUser[userID] = stats
			}
			classifier.count(issue, &stats.TotalIssues, &stats.OpenIssues, &stats.ClosedIssues)
		}
	}

	userIDs := make([]string, 0, len(byUser))
	for id := range byUser {
		userIDs = append(userIDs, id)
	}
	names, err := lookupCache(ctx, uc.repo.Lookup()).Resolve(ctx, types.LookupKindUser, userIDs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve assignees")
	}

	result := make([]*model.UserIssueStats, 0, len(byUser))
	for id, stats := range byUser {
		stats.UserName = model.UnknownLookupName
		if name, ok := names[id]; ok {
			stats.UserName = name
		}
		result = append(result, stats)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}
