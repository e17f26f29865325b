package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

// IssueID is the storage identifier of an issue. It is distinct from the human readable ID ("BUG-137").
type IssueID string

// NewIssueID generates a new random IssueID
func NewIssueID() IssueID {
	return IssueID(uuid.NewString())
}

// String returns the string representation of IssueID
func (id IssueID) String() string {
	return string(id)
}

// Issue is the persisted issue record. Foreign keys are not enforced by the store.
type Issue struct {
	ID              IssueID
	HumanID         string // "<CATEGORY>-<seq>"
	Title           string
	Description     string
	ProjectID       string
	ReporterUserID  string
	AssigneeUserIDs []string // set semantics, duplicates are dropped on write
	StatusID        string
	PriorityID      string
	TypeID          string
	SeverityID      string
	LinkedIssueIDs  []IssueID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Copy returns a deep copy of the issue
func (x *Issue) Copy() *Issue {
	copied := *x
	if x.AssigneeUserIDs != nil {
		copied.AssigneeUserIDs = make([]string, len(x.AssigneeUserIDs))
		copy(copied.AssigneeUserIDs, x.AssigneeUserIDs)
	}
	if x.LinkedIssueIDs != nil {
		copied.LinkedIssueIDs = make([]IssueID, len(x.LinkedIssueIDs))
		copy(copied.LinkedIssueIDs, x.LinkedIssueIDs)
	}
	return &copied
}

// LookupIDs returns the foreign keys of the issue pointing into the collection of kind.
// Empty IDs are omitted.
func (x *Issue) LookupIDs(kind types.LookupKind) []string {
	var ids []string
	switch kind {
	case types.LookupKindStatus:
		ids = []string{x.StatusID}
	case types.LookupKindPriority:
		ids = []string{x.PriorityID}
	case types.LookupKindType:
		ids = []string{x.TypeID}
	case types.LookupKindSeverity:
		ids = []string{x.SeverityID}
	case types.LookupKindUser:
		ids = make([]string, 0, len(x.AssigneeUserIDs)+1)
		ids = append(ids, x.ReporterUserID)
		ids = append(ids, x.AssigneeUserIDs...)
	}

	result := ids[:0]
	for _, id := range ids {
		if id != "" {
			result = append(result, id)
		}
	}
	return result
}

// UniqueStrings removes duplicates and empty values while preserving order
func UniqueStrings(s []string) []string {
	seen := make(map[string]struct{}, len(s))
	result := make([]string, 0, len(s))
	for _, v := range s {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			result = append(result, v)
		}
	}
	return result
}
