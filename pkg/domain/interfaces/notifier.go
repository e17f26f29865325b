package interfaces

import (
	"context"

	"github.com/secmon-lab/trustflow/pkg/domain/model"
)

// Notifier delivers human readable notifications about issue changes to an external channel
type Notifier interface {
	// IssueCreated notifies about a newly created issue
	IssueCreated(ctx context.Context, issue *model.IssueView) error

	// IssueStatusChanged notifies about a status transition
	IssueStatusChanged(ctx context.Context, issue *model.IssueView, oldStatus, newStatus string) error
}
