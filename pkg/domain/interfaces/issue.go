package interfaces

import (
	"context"

	"github.com/secmon-lab/trustflow/pkg/domain/model"
)

// IssueRepository defines the interface for Issue data access
type IssueRepository interface {
	// Create persists a new issue. ID and HumanID must be set by the caller.
	Create(ctx context.Context, issue *model.Issue) (*model.Issue, error)

	// Get retrieves an issue by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id model.IssueID) (*model.Issue, error)

	// List retrieves issues with optional filtering, ordered by creation time
	List(ctx context.Context, opts ...ListIssueOption) ([]*model.Issue, error)

	// Replace overwrites the mutable fields of an existing issue. Returns ErrNotFound if it does not exist.
	Replace(ctx context.Context, issue *model.Issue) (*model.Issue, error)

	// UpdateStatus atomically sets the status of an issue and returns the issue before and after the update.
	// Returns ErrNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id model.IssueID, statusID string) (before *model.Issue, after *model.Issue, err error)

	// Delete removes an issue. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id model.IssueID) error
}
