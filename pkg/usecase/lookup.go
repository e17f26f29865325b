package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/model/config"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/utils/logging"
)

// LookupUseCase manages the reference collections
type LookupUseCase struct {
	repo interfaces.Repository
}

func NewLookupUseCase(repo interfaces.Repository) *LookupUseCase {
	return &LookupUseCase{repo: repo}
}

// Seed stores the entries of seed for every kind whose collection is still empty. Kinds that already
// hold entries are left untouched. It returns the number of entries written per kind.
func (uc *LookupUseCase) Seed(ctx context.Context, seed *config.LookupSeed) (map[types.LookupKind]int, error) {
	if seed == nil {
		seed = config.DefaultLookupSeed()
	}

	result := make(map[types.LookupKind]int)
	now := time.Now().UTC()

	for _, kind := range types.AllLookupKinds() {
		entries := seed.ByKind(kind)
		if len(entries) == 0 {
			continue
		}

		existing, err := uc.repo.Lookup().List(ctx, kind)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list lookups", goerr.V(LookupKindKey, kind))
		}
		if len(existing) > 0 {
			logging.From(ctx).Info("lookups already present, skip seeding", "kind", kind, "count", len(existing))
			continue
		}

		lookups := make([]*model.Lookup, 0, len(entries))
		for _, e := range entries {
			lookups = append(lookups, &model.Lookup{
				ID:          e.ID,
				Kind:        kind,
				Name:        e.Name,
				Description: e.Description,
				Order:       e.Order,
				IsDefault:   e.IsDefault,
				UpdatedAt:   now,
			})
		}

		if err := uc.repo.Lookup().SaveMany(ctx, lookups); err != nil {
			return nil, goerr.Wrap(err, "failed to seed lookups", goerr.V(LookupKindKey, kind))
		}
		logging.From(ctx).Info("lookups seeded", "kind", kind, "count", len(lookups))
		result[kind] = len(lookups)
	}

	return result, nil
}

func (uc *LookupUseCase) ListLookups(ctx context.Context, kind types.LookupKind) ([]*model.Lookup, error) {
	if !kind.IsValid() {
		return nil, validationError("invalid lookup kind", goerr.V(LookupKindKey, kind))
	}

	lookups, err := uc.repo.Lookup().List(ctx, kind)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list lookups", goerr.V(LookupKindKey, kind))
	}
	return lookups, nil
}
