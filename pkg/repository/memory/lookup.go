package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

type lookupRepository struct {
	mu      sync.RWMutex
	lookups map[types.LookupKind]map[string]*model.Lookup
}

func newLookupRepository() *lookupRepository {
	return &lookupRepository{
		lookups: make(map[types.LookupKind]map[string]*model.Lookup),
	}
}

func copyLookup(l *model.Lookup) *model.Lookup {
	copied := *l
	return &copied
}

func (r *lookupRepository) GetByIDs(ctx context.Context, kind types.LookupKind, ids []string) (map[string]*model.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*model.Lookup, len(ids))
	byID := r.lookups[kind]
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			result[id] = copyLookup(l)
		}
	}

	return result, nil
}

func (r *lookupRepository) Get(ctx context.Context, kind types.LookupKind, id string) (*model.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.lookups[kind][id]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
	}
	return copyLookup(l), nil
}

func (r *lookupRepository) List(ctx context.Context, kind types.LookupKind) ([]*model.Lookup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Lookup, 0, len(r.lookups[kind]))
	for _, l := range r.lookups[kind] {
		result = append(result, copyLookup(l))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

func (r *lookupRepository) SaveMany(ctx context.Context, lookups []*model.Lookup) error {
	for _, l := range lookups {
		if !l.Kind.IsValid() {
			return goerr.New("invalid lookup kind", goerr.V("kind", l.Kind), goerr.V("id", l.ID))
		}
		if l.ID == "" {
			return goerr.Wrap(interfaces.ErrInvalidArgument, "lookup ID is required", goerr.V("kind", l.Kind))
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range lookups {
		if _, ok := r.lookups[l.Kind]; !ok {
			r.lookups[l.Kind] = make(map[string]*model.Lookup)
		}
		r.lookups[l.Kind][l.ID] = copyLookup(l)
	}
	return nil
}

func (r *lookupRepository) Delete(ctx context.Context, kind types.LookupKind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lookups[kind][id]; !ok {
		return goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
	}
	delete(r.lookups[kind], id)
	return nil
}
