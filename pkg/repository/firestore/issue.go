package firestore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"google.golang.org/api/iterator"
)

const issuesCollection = "issues"

type issueRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.IssueRepository = &issueRepository{}

func newIssueRepository(client *firestore.Client) *issueRepository {
	return &issueRepository{client: client}
}

// issueDoc is the Firestore persistence model
type issueDoc struct {
	ID              string    `firestore:"id"`
	HumanID         string    `firestore:"human_id"`
	Title           string    `firestore:"title"`
	Description     string    `firestore:"description"`
	ProjectID       string    `firestore:"project_id"`
	ReporterUserID  string    `firestore:"reporter_user_id"`
	AssigneeUserIDs []string  `firestore:"assignee_user_ids"`
	StatusID        string    `firestore:"status_id"`
	PriorityID      string    `firestore:"priority_id"`
	TypeID          string    `firestore:"type_id"`
	SeverityID      string    `firestore:"severity_id"`
	LinkedIssueIDs  []string  `firestore:"linked_issue_ids"`
	CreatedAt       time.Time `firestore:"created_at"`
	UpdatedAt       time.Time `firestore:"updated_at"`
}

func toIssueDoc(x *model.Issue) *issueDoc {
	linked := make([]string, len(x.LinkedIssueIDs))
	for i, id := range x.LinkedIssueIDs {
		linked[i] = id.String()
	}

	return &issueDoc{
		ID:              x.ID.String(),
		HumanID:         x.HumanID,
		Title:           x.Title,
		Description:     x.Description,
		ProjectID:       x.ProjectID,
		ReporterUserID:  x.ReporterUserID,
		AssigneeUserIDs: model.UniqueStrings(x.AssigneeUserIDs),
		StatusID:        x.StatusID,
		PriorityID:      x.PriorityID,
		TypeID:          x.TypeID,
		SeverityID:      x.SeverityID,
		LinkedIssueIDs:  linked,
		CreatedAt:       x.CreatedAt,
		UpdatedAt:       x.UpdatedAt,
	}
}

func fromIssueDoc(d *issueDoc) *model.Issue {
	var linked []model.IssueID
	if len(d.LinkedIssueIDs) > 0 {
		linked = make([]model.IssueID, len(d.LinkedIssueIDs))
		for i, id := range d.LinkedIssueIDs {
			linked[i] = model.IssueID(id)
		}
	}

	return &model.Issue{
		ID:              model.IssueID(d.ID),
		HumanID:         d.HumanID,
		Title:           d.Title,
		Description:     d.Description,
		ProjectID:       d.ProjectID,
		ReporterUserID:  d.ReporterUserID,
		AssigneeUserIDs: d.AssigneeUserIDs,
		StatusID:        d.StatusID,
		PriorityID:      d.PriorityID,
		TypeID:          d.TypeID,
		SeverityID:      d.SeverityID,
		LinkedIssueIDs:  linked,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (r *issueRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, issuesCollection))
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if issue.ID == "" {
		return nil, goerr.Wrap(interfaces.ErrInvalidArgument, "issue ID is required")
	}

	now := time.Now().UTC()
	created := issue.Copy()
	created.AssigneeUserIDs = model.UniqueStrings(created.AssigneeUserIDs)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Create(ctx, toIssueDoc(created)); err != nil {
		if isAlreadyExists(err) {
			return nil, goerr.Wrap(fmt.Errorf("%w: %w", interfaces.ErrAlreadyExists, err), "issue already exists", goerr.V("id", created.ID))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to create issue", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *issueRepository) Get(ctx context.Context, id model.IssueID) (*model.Issue, error) {
	if !validDocID(id.String()) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	snap, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to get issue", goerr.V("id", id))
	}

	var d issueDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode issue", goerr.V("id", id))
	}

	return fromIssueDoc(&d), nil
}

// List uses equality filters only so that no composite index is needed; ordering is applied in memory.
func (r *issueRepository) List(ctx context.Context, opts ...interfaces.ListIssueOption) ([]*model.Issue, error) {
	cfg := interfaces.BuildListIssueConfig(opts...)

	query := r.collection().Query
	if v := cfg.ProjectID(); v != "" {
		query = query.Where("project_id", "==", v)
	}
	if v := cfg.ReporterUserID(); v != "" {
		query = query.Where("reporter_user_id", "==", v)
	}
	if v := cfg.StatusID(); v != "" {
		query = query.Where("status_id", "==", v)
	}
	if v := cfg.AssigneeUserID(); v != "" {
		query = query.Where("assignee_user_ids", "array-contains", v)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	issues := make([]*model.Issue, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(unavailable(err), "failed to iterate issues")
		}

		var d issueDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode issue", goerr.V("docID", snap.Ref.ID))
		}
		issues = append(issues, fromIssueDoc(&d))
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
	if !validDocID(issue.ID.String()) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", issue.ID))
	}

	ref := r.collection().Doc(issue.ID.String())

	var updated *model.Issue
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", issue.ID))
			}
			return goerr.Wrap(unavailable(err), "failed to get issue", goerr.V("id", issue.ID))
		}

		var d issueDoc
		if err := snap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode issue", goerr.V("id", issue.ID))
		}

		updated = issue.Copy()
		updated.AssigneeUserIDs = model.UniqueStrings(updated.AssigneeUserIDs)
		updated.HumanID = d.HumanID
		updated.CreatedAt = d.CreatedAt
		updated.UpdatedAt = time.Now().UTC()

		return tx.Set(ref, toIssueDoc(updated))
	})
	if err != nil {
		return nil, wrapTxErr(err, "failed to replace issue", issue.ID)
	}

	return updated, nil
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id model.IssueID, statusID string) (*model.Issue, *model.Issue, error) {
	if !validDocID(id.String()) {
		return nil, nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	ref := r.collection().Doc(id.String())

	var before, after *model.Issue
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
			}
			return goerr.Wrap(unavailable(err), "failed to get issue", goerr.V("id", id))
		}

		var d issueDoc
		if err := snap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode issue", goerr.V("id", id))
		}

		now := time.Now().UTC()
		before = fromIssueDoc(&d)
		after = before.Copy()
		after.StatusID = statusID
		after.UpdatedAt = now

		return tx.Update(ref, []firestore.Update{
			{Path: "status_id", Value: statusID},
			{Path: "updated_at", Value: now},
		})
	})
	if err != nil {
		return nil, nil, wrapTxErr(err, "failed to update issue status", id)
	}

	return before, after, nil
}

func (r *issueRepository) Delete(ctx context.Context, id model.IssueID) error {
	if !validDocID(id.String()) {
		return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}

	if _, err := r.collection().Doc(id.String()).Delete(ctx, firestore.Exists); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return goerr.Wrap(unavailable(err), "failed to delete issue", goerr.V("id", id))
	}
	return nil
}

// wrapTxErr keeps errors classified inside a transaction callback and marks everything else as a storage failure
func wrapTxErr(err error, msg string, id model.IssueID) error {
	if errors.Is(err, interfaces.ErrNotFound) || errors.Is(err, interfaces.ErrStorageUnavailable) {
		return goerr.Wrap(err, msg, goerr.V("id", id))
	}
	return goerr.Wrap(unavailable(err), msg, goerr.V("id", id))
}
