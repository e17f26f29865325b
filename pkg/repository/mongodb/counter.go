package mongodb

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterRepository struct {
	coll *mongo.Collection
}

var _ interfaces.CounterRepository = &counterRepository{}

type counterDoc struct {
	Identifier string    `bson:"identifier"`
	Seq        int64     `bson:"seq"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

const counterIdentifierIndex = "identifier_unique"

func (r *counterRepository) ensureIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "identifier", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(counterIdentifierIndex),
	}
	if _, err := r.coll.Indexes().CreateOne(ctx, index); err != nil {
		return goerr.Wrap(unavailable(err), "failed to create counter index", goerr.V("collection", r.coll.Name()))
	}
	return nil
}

// Next is a single upsert-increment; the server serializes concurrent updates of one document.
// Two first allocations of a category can both take the insert path; the unique index rejects
// the loser, whose retry then matches the inserted document.
func (r *counterRepository) Next(ctx context.Context, category types.IssueCategory) (int64, error) {
	if category == "" {
		return 0, goerr.Wrap(interfaces.ErrInvalidArgument, "counter category is required")
	}

	seq, err := r.increment(ctx, category)
	if mongo.IsDuplicateKeyError(err) {
		seq, err = r.increment(ctx, category)
	}
	if err != nil {
		return 0, goerr.Wrap(unavailable(err), "failed to allocate sequence", goerr.V("category", category))
	}

	return seq, nil
}

func (r *counterRepository) increment(ctx context.Context, category types.IssueCategory) (int64, error) {
	filter := bson.M{"identifier": category.String()}
	update := bson.M{
		"$inc": bson.M{"seq": int64(1)},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var d counterDoc
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&d); err != nil {
		return 0, err
	}
	return d.Seq, nil
}

func (r *counterRepository) Get(ctx context.Context, category types.IssueCategory) (*model.Counter, error) {
	var d counterDoc
	if err := r.coll.FindOne(ctx, bson.M{"identifier": category.String()}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "counter not found", goerr.V("category", category))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to get counter", goerr.V("category", category))
	}

	return &model.Counter{
		Identifier: d.Identifier,
		Seq:        d.Seq,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}
