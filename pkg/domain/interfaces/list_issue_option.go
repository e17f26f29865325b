package interfaces

// ListIssueOption is a functional option for filtering issues in List
type ListIssueOption func(*listIssueConfig)

type listIssueConfig struct {
	projectID      string
	reporterUserID string
	assigneeUserID string
	statusID       string
}

// WithProjectID filters issues by project
func WithProjectID(projectID string) ListIssueOption {
	return func(c *listIssueConfig) {
		c.projectID = projectID
	}
}

// WithReporter filters issues by reporter user
func WithReporter(userID string) ListIssueOption {
	return func(c *listIssueConfig) {
		c.reporterUserID = userID
	}
}

// WithAssignee filters issues assigned to the user
func WithAssignee(userID string) ListIssueOption {
	return func(c *listIssueConfig) {
		c.assigneeUserID = userID
	}
}

// WithStatusID filters issues by status
func WithStatusID(statusID string) ListIssueOption {
	return func(c *listIssueConfig) {
		c.statusID = statusID
	}
}

// BuildListIssueConfig builds a listIssueConfig from options
func BuildListIssueConfig(opts ...ListIssueOption) *listIssueConfig {
	cfg := &listIssueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// ProjectID returns the project filter, or an empty string if not set
func (c *listIssueConfig) ProjectID() string { return c.projectID }

// ReporterUserID returns the reporter filter, or an empty string if not set
func (c *listIssueConfig) ReporterUserID() string { return c.reporterUserID }

// AssigneeUserID returns the assignee filter, or an empty string if not set
func (c *listIssueConfig) AssigneeUserID() string { return c.assigneeUserID }

// StatusID returns the status filter, or an empty string if not set
func (c *listIssueConfig) StatusID() string { return c.statusID }

// Match reports whether issue fields satisfy all filters
func (c *listIssueConfig) Match(projectID, reporterUserID, statusID string, assigneeUserIDs []string) bool {
	if c.projectID != "" && c.projectID != projectID {
		return false
	}
	if c.reporterUserID != "" && c.reporterUserID != reporterUserID {
		return false
	}
	if c.statusID != "" && c.statusID != statusID {
		return false
	}
	if c.assigneeUserID != "" {
		found := false
		for _, id := range assigneeUserIDs {
			if id == c.assigneeUserID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
