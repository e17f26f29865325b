package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

// LookupCache resolves lookup ids to names in batches. It is scoped to one request: a kind/id pair
// once resolved, found or not, is not fetched again during the cache's lifetime.
type LookupCache struct {
	repo interfaces.LookupRepository

	mu    sync.Mutex
	names map[types.LookupKind]map[string]string
	// ids known to be absent
	missing map[types.LookupKind]map[string]struct{}
}

func NewLookupCache(repo interfaces.LookupRepository) *LookupCache {
	return &LookupCache{
		repo:    repo,
		names:   make(map[types.LookupKind]map[string]string),
		missing: make(map[types.LookupKind]map[string]struct{}),
	}
}

// Resolve maps ids of kind to lookup names. Duplicate and empty ids are ignored. Ids not cached yet are
// fetched with exactly one batched repository call. Unresolved ids are absent from the result.
func (c *LookupCache) Resolve(ctx context.Context, kind types.LookupKind, ids []string) (map[string]string, error) {
	if !kind.IsValid() {
		return nil, goerr.Wrap(ErrValidation, "invalid lookup kind", goerr.V(LookupKindKey, kind))
	}

	result := make(map[string]string, len(ids))
	var pending []string
	seen := make(map[string]struct{}, len(ids))

	c.mu.Lock()
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		if name, ok := c.names[kind][id]; ok {
			result[id] = name
			continue
		}
		if _, ok := c.missing[kind][id]; ok {
			continue
		}
		pending = append(pending, id)
	}
	c.mu.Unlock()

	if len(pending) == 0 {
		return result, nil
	}

	found, err := c.repo.GetByIDs(ctx, kind, pending)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve lookups",
			goerr.V(LookupKindKey, kind),
			goerr.V("count", len(pending)))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.names[kind] == nil {
		c.names[kind] = make(map[string]string)
	}
	if c.missing[kind] == nil {
		c.missing[kind] = make(map[string]struct{})
	}
	for _, id := range pending {
		if lookup, ok := found[id]; ok && lookup != nil {
			c.names[kind][id] = lookup.Name
			result[id] = lookup.Name
		} else {
			c.missing[kind][id] = struct{}{}
		}
	}

	return result, nil
}

type lookupCacheKey struct{}

// WithLookupCache attaches cache to ctx
func WithLookupCache(ctx context.Context, cache *LookupCache) context.Context {
	return context.WithValue(ctx, lookupCacheKey{}, cache)
}

// LookupCacheFrom returns the cache attached to ctx, or nil
func LookupCacheFrom(ctx context.Context) *LookupCache {
	cache, _ := ctx.Value(lookupCacheKey{}).(*LookupCache)
	return cache
}

// lookupCache returns the request-scoped cache of ctx or a fresh one
func lookupCache(ctx context.Context, repo interfaces.LookupRepository) *LookupCache {
	if cache := LookupCacheFrom(ctx); cache != nil {
		return cache
	}
	return NewLookupCache(repo)
}
