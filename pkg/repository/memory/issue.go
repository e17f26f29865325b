package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
)

type issueRepository struct {
	mu     sync.RWMutex
	issues map[model.IssueID]*model.Issue
}

func newIssueRepository() *issueRepository {
	return &issueRepository{
		issues: make(map[model.IssueID]*model.Issue),
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if issue.ID == "" {
		return nil, goerr.Wrap(interfaces.ErrInvalidArgument, "issue ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.issues[issue.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "issue already exists", goerr.V("id", issue.ID))
	}

	now := time.Now().UTC()
	created := issue.Copy()
	created.AssigneeUserIDs = model.UniqueStrings(created.AssigneeUserIDs)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	r.issues[created.ID] = created
	return created.Copy(), nil
}

func (r *issueRepository) Get(ctx context.Context, id model.IssueID) (*model.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, exists := r.issues[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	return issue.Copy(), nil
}

func (r *issueRepository) List(ctx context.Context, opts ...interfaces.ListIssueOption) ([]*model.Issue, error) {
	cfg := interfaces.BuildListIssueConfig(opts...)

	r.mu.RLock()
	defer r.mu.RUnlock()

	issues := make([]*model.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		if !cfg.Match(issue.ProjectID, issue.ReporterUserID, issue.StatusID, issue.AssigneeUserIDs) {
			continue
		}
		issues = append(issues, issue.Copy())
	}

	sort.Slice(issues, func(i, j int) bool {
		if issues[i].CreatedAt.Equal(issues[j].CreatedAt) {
			return issues[i].ID < issues[j].ID
		}
		return issues[i].CreatedAt.Before(issues[j].CreatedAt)
	})

	return issues, nil
}

func (r *issueRepository) Replace(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.issues[issue.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", issue.ID))
	}

	updated := issue.Copy()
	updated.AssigneeUserIDs = model.UniqueStrings(updated.AssigneeUserIDs)
	updated.HumanID = existing.HumanID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.issues[updated.ID] = updated
	return updated.Copy(), nil
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id model.IssueID, statusID string) (*model.Issue, *model.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.issues[id]
	if !exists {
		return nil, nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	before := existing.Copy()
	existing.StatusID = statusID
	existing.UpdatedAt = time.Now().UTC()

	return before, existing.Copy(), nil
}

func (r *issueRepository) Delete(ctx context.Context, id model.IssueID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.issues[id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	delete(r.issues, id)
	return nil
}
