// Package notify sends issue notifications to chat tools
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
)

// Multi fans out notifications to every configured notifier. All notifiers are called even if one fails.
type Multi []interfaces.Notifier

var _ interfaces.Notifier = Multi{}

func (m Multi) IssueCreated(ctx context.Context, issue *model.IssueView) error {
	var errs []error
	for _, n := range m {
		if err := n.IssueCreated(ctx, issue); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) IssueStatusChanged(ctx context.Context, issue *model.IssueView, oldStatus, newStatus string) error {
	var errs []error
	for _, n := range m {
		if err := n.IssueStatusChanged(ctx, issue, oldStatus, newStatus); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func createdText(issue *model.IssueView) string {
	return fmt.Sprintf("New issue %s: %s", issue.HumanID, issue.Title)
}

func statusChangedText(issue *model.IssueView, oldStatus, newStatus string) string {
	return fmt.Sprintf("Issue %s status changed from %s to %s", issue.HumanID, oldStatus, newStatus)
}

// issueFacts are the key/value lines shown in every notification
func issueFacts(issue *model.IssueView) [][2]string {
	assignees := make([]string, 0, len(issue.Assignees))
	for _, a := range issue.Assignees {
		assignees = append(assignees, a.Name)
	}

	facts := [][2]string{
		{"Type", issue.Type.Name},
		{"Priority", issue.Priority.Name},
		{"Severity", issue.Severity.Name},
		{"Status", issue.Status.Name},
		{"Reported By", issue.Reporter.Name},
	}
	if len(assignees) > 0 {
		facts = append(facts, [2]string{"Assigned To", strings.Join(assignees, ", ")})
	}
	return facts
}
