package model

// ProjectIssueStats counts issues of one project by open/closed status
type ProjectIssueStats struct {
	ProjectID    string `json:"projectId"`
	TotalIssues  int    `json:"totalIssues"`
	OpenIssues   int    `json:"openIssues"`
	ClosedIssues int    `json:"closedIssues"`
}

// UserIssueStats counts issues assigned to one user by open/closed status
type UserIssueStats struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	TotalIssues  int    `json:"totalIssues"`
	OpenIssues   int    `json:"openIssues"`
	ClosedIssues int    `json:"closedIssues"`
}
