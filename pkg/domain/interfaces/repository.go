package interfaces

import "context"

// Repository defines the interface for data persistence
type Repository interface {
	Counter() CounterRepository
	Issue() IssueRepository
	Lookup() LookupRepository
	Activity() ActivityRepository

	// Close releases the underlying client
	Close(ctx context.Context) error
}
