package model

import "time"

// UnknownLookupName is rendered for foreign keys whose lookup entity does not exist
const UnknownLookupName = "Unknown"

// LookupRef is a resolved foreign key
type LookupRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueView is the request-scoped read model of an issue. It is never persisted.
type IssueView struct {
	ID             IssueID     `json:"id"`
	HumanID        string      `json:"issueId"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	ProjectID      string      `json:"projectId"`
	Status         LookupRef   `json:"status"`
	Priority       LookupRef   `json:"priority"`
	Type           LookupRef   `json:"type"`
	Severity       LookupRef   `json:"severity"`
	Reporter       LookupRef   `json:"reporter"`
	Assignees      []LookupRef `json:"assignees"`
	LinkedIssueIDs []IssueID   `json:"linkedIssues"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}
