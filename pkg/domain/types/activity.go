package types

// ActivityCategory groups activity events by the area of the system that emitted them
type ActivityCategory string

const (
	ActivityCategoryIssue   ActivityCategory = "issue"
	ActivityCategoryProject ActivityCategory = "project"
	ActivityCategoryUser    ActivityCategory = "user"
	ActivityCategorySystem  ActivityCategory = "system"
)

// ActivityAction is the verb of an activity event
type ActivityAction string

const (
	ActivityActionCreate       ActivityAction = "create"
	ActivityActionUpdate       ActivityAction = "update"
	ActivityActionStatusChange ActivityAction = "status_change"
	ActivityActionDelete       ActivityAction = "delete"
)

// ActivityStatus records whether the audited operation succeeded
type ActivityStatus string

const (
	ActivityStatusSuccess ActivityStatus = "success"
	ActivityStatusFailure ActivityStatus = "failure"
)

// IsValid checks if the activity status is known
func (s ActivityStatus) IsValid() bool {
	switch s {
	case ActivityStatusSuccess, ActivityStatusFailure:
		return true
	default:
		return false
	}
}

// Activity sources
const (
	ActivitySourceAPI    = "api"
	ActivitySourceCLI    = "cli"
	ActivitySourceSystem = "system"
)

// Entity types referenced by activity events
const (
	EntityTypeIssue   = "issue"
	EntityTypeProject = "project"
	EntityTypeUser    = "user"
)
