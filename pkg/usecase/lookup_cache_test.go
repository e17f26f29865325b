package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/usecase"
)

func TestLookupCache_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("one batched call for duplicate ids", func(t *testing.T) {
		repo := newSpyRepo(t)
		cache := usecase.NewLookupCache(repo.Lookup())

		names, err := cache.Resolve(ctx, types.LookupKindStatus, []string{"st-open", "st-open", "", "st-closed", "st-gone"})
		gt.NoError(t, err).Required()
		gt.Number(t, repo.lookup.Calls(types.LookupKindStatus)).Equal(1)
		gt.Number(t, len(names)).Equal(2)
		gt.Value(t, names["st-open"]).Equal("Open")
		gt.Value(t, names["st-closed"]).Equal("Closed")

		_, ok := names["st-gone"]
		gt.Bool(t, ok).False()
	})

	t.Run("resolved and missing ids are memoized", func(t *testing.T) {
		repo := newSpyRepo(t)
		cache := usecase.NewLookupCache(repo.Lookup())

		_, err := cache.Resolve(ctx, types.LookupKindUser, []string{"u-alice", "u-gone"})
		gt.NoError(t, err).Required()

		names, err := cache.Resolve(ctx, types.LookupKindUser, []string{"u-alice", "u-gone"})
		gt.NoError(t, err).Required()
		gt.Number(t, repo.lookup.Calls(types.LookupKindUser)).Equal(1)
		gt.Value(t, names["u-alice"]).Equal("alice")

		_, err = cache.Resolve(ctx, types.LookupKindUser, []string{"u-alice", "u-bob"})
		gt.NoError(t, err).Required()
		gt.Number(t, repo.lookup.Calls(types.LookupKindUser)).Equal(2)
	})

	t.Run("empty input makes no call", func(t *testing.T) {
		repo := newSpyRepo(t)
		cache := usecase.NewLookupCache(repo.Lookup())

		names, err := cache.Resolve(ctx, types.LookupKindType, nil)
		gt.NoError(t, err).Required()
		gt.Number(t, len(names)).Equal(0)
		gt.Number(t, repo.lookup.TotalCalls()).Equal(0)
	})

	t.Run("invalid kind", func(t *testing.T) {
		repo := newSpyRepo(t)
		_, err := usecase.NewLookupCache(repo.Lookup()).Resolve(ctx, types.LookupKind("team"), []string{"x"})
		gt.Bool(t, errors.Is(err, usecase.ErrValidation)).True()
	})

	t.Run("store failure is returned", func(t *testing.T) {
		repo := newSpyRepo(t)
		repo.lookup.err = interfaces.ErrStorageUnavailable
		_, err := usecase.NewLookupCache(repo.Lookup()).Resolve(ctx, types.LookupKindType, []string{"ty-bug"})
		gt.Bool(t, errors.Is(err, interfaces.ErrStorageUnavailable)).True()
	})
}

func TestLookupCacheContext(t *testing.T) {
	repo := newSpyRepo(t)
	cache := usecase.NewLookupCache(repo.Lookup())

	gt.Value(t, usecase.LookupCacheFrom(context.Background())).Nil()

	ctx := usecase.WithLookupCache(context.Background(), cache)
	gt.Value(t, usecase.LookupCacheFrom(ctx)).Equal(cache)
}
