package interfaces

import (
	"context"

	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

// CounterRepository allocates per-category sequence numbers
type CounterRepository interface {
	// Next atomically increments the counter of category and returns the new value.
	// The first call for a category returns 1. A value once returned is never returned again.
	Next(ctx context.Context, category types.IssueCategory) (int64, error)

	// Get returns the current counter of category. Returns ErrNotFound if nothing was allocated yet.
	Get(ctx context.Context, category types.IssueCategory) (*model.Counter, error)
}
