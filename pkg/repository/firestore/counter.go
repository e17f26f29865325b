package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
)

const countersCollection = "counters"

type counterRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.CounterRepository = &counterRepository{}

func newCounterRepository(client *firestore.Client) *counterRepository {
	return &counterRepository{client: client}
}

type counterDoc struct {
	Identifier string    `firestore:"identifier"`
	Seq        int64     `firestore:"seq"`
	UpdatedAt  time.Time `firestore:"updated_at"`
}

func (r *counterRepository) doc(category types.IssueCategory) *firestore.DocumentRef {
	return r.client.Collection(collectionName(r.collectionPrefix, countersCollection)).Doc(category.String())
}

// Next increments the counter inside a transaction. Firestore retries the transaction on contention,
// so concurrent callers observe distinct consecutive values.
func (r *counterRepository) Next(ctx context.Context, category types.IssueCategory) (int64, error) {
	if category == "" {
		return 0, goerr.Wrap(interfaces.ErrInvalidArgument, "counter category is required")
	}

	ref := r.doc(category)

	var next int64
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()

		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				next = 1
				return tx.Set(ref, &counterDoc{
					Identifier: category.String(),
					Seq:        next,
					UpdatedAt:  now,
				})
			}
			return goerr.Wrap(err, "failed to get counter")
		}

		var d counterDoc
		if err := snap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode counter")
		}

		next = d.Seq + 1
		return tx.Update(ref, []firestore.Update{
			{Path: "seq", Value: next},
			{Path: "updated_at", Value: now},
		})
	})
	if err != nil {
		return 0, goerr.Wrap(unavailable(err), "failed to allocate sequence", goerr.V("category", category))
	}

	return next, nil
}

func (r *counterRepository) Get(ctx context.Context, category types.IssueCategory) (*model.Counter, error) {
	snap, err := r.doc(category).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "counter not found", goerr.V("category", category))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to get counter", goerr.V("category", category))
	}

	var d counterDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode counter", goerr.V("category", category))
	}

	return &model.Counter{
		Identifier: d.Identifier,
		Seq:        d.Seq,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
