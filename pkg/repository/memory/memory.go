package memory

import (
	"context"

	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository. It is used by tests and by `serve --repository-backend=memory`.
type Memory struct {
	counter  *counterRepository
	issue    *issueRepository
	lookup   *lookupRepository
	activity *activityRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		counter:  newCounterRepository(),
		issue:    newIssueRepository(),
		lookup:   newLookupRepository(),
		activity: newActivityRepository(),
	}
}

func (m *Memory) Counter() interfaces.CounterRepository {
	return m.counter
}

func (m *Memory) Issue() interfaces.IssueRepository {
	return m.issue
}

func (m *Memory) Lookup() interfaces.LookupRepository {
	return m.lookup
}

func (m *Memory) Activity() interfaces.ActivityRepository {
	return m.activity
}

func (m *Memory) Close(ctx context.Context) error {
	return nil
}
