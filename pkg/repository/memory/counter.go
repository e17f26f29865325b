package memory

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

type counterRepository struct {
	mu       sync.Mutex
	counters map[types.IssueCategory]*model.Counter
}

func newCounterRepository() *counterRepository {
	return &counterRepository{
		counters: make(map[types.IssueCategory]*model.Counter),
	}
}

func (r *counterRepository) Next(ctx context.Context, category types.IssueCategory) (int64, error) {
	if category == "" {
		return 0, goerr.Wrap(interfaces.ErrInvalidArgument, "counter category is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.counters[category]
	if !exists {
		c = &model.Counter{Identifier: category.String()}
		r.counters[category] = c
	}
	c.Seq++
	c.UpdatedAt = time.Now().UTC()

	return c.Seq, nil
}

func (r *counterRepository) Get(ctx context.Context, category types.IssueCategory) (*model.Counter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.counters[category]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "counter not found", goerr.V("category", category))
	}

	copied := *c
	return &copied, nil
}
