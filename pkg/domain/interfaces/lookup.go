package interfaces

import (
	"context"

	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

// LookupRepository provides read access to the reference collections used by issues
// (status, priority, type, severity and the user projection)
type LookupRepository interface {
	// GetByIDs resolves ids of kind in one logical call. Ids that do not exist are absent from the result;
	// they are not an error.
	GetByIDs(ctx context.Context, kind types.LookupKind, ids []string) (map[string]*model.Lookup, error)

	// Get retrieves a single lookup. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, kind types.LookupKind, id string) (*model.Lookup, error)

	// List returns all lookups of kind ordered by Order then Name
	List(ctx context.Context, kind types.LookupKind) ([]*model.Lookup, error)

	// SaveMany upserts lookups
	SaveMany(ctx context.Context, lookups []*model.Lookup) error

	// Delete removes a lookup. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, kind types.LookupKind, id string) error
}
