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

type lookupRepository struct {
	colls map[types.LookupKind]*mongo.Collection
}

var _ interfaces.LookupRepository = &lookupRepository{}

func newLookupRepository(coll func(name string) *mongo.Collection) *lookupRepository {
	return &lookupRepository{
		colls: map[types.LookupKind]*mongo.Collection{
			types.LookupKindStatus:   coll("statuses"),
			types.LookupKindPriority: coll("priorities"),
			types.LookupKindType:     coll("types"),
			types.LookupKindSeverity: coll("severities"),
			types.LookupKindUser:     coll("users"),
		},
	}
}

// lookupDoc covers all reference collections. User documents carry username/email instead of name.
type lookupDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name,omitempty"`
	Username    string    `bson:"username,omitempty"`
	Email       string    `bson:"email,omitempty"`
	Description string    `bson:"description,omitempty"`
	Order       int       `bson:"order"`
	IsDefault   bool      `bson:"isDefault"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func toLookupDoc(l *model.Lookup) *lookupDoc {
	d := &lookupDoc{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Order:       l.Order,
		IsDefault:   l.IsDefault,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.Kind == types.LookupKindUser {
		d.Username = l.Name
	}
	return d
}

func fromLookupDoc(kind types.LookupKind, d *lookupDoc) *model.Lookup {
	name := d.Name
	if name == "" {
		name = d.Username
	}
	if name == "" {
		name = d.Email
	}

	return &model.Lookup{
		ID:          d.ID,
		Kind:        kind,
		Name:        name,
		Description: d.Description,
		Order:       d.Order,
		IsDefault:   d.IsDefault,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (r *lookupRepository) collection(kind types.LookupKind) (*mongo.Collection, error) {
	coll, ok := r.colls[kind]
	if !ok {
		return nil, goerr.New("invalid lookup kind", goerr.V("kind", kind))
	}
	return coll, nil
}

// GetByIDs resolves all ids of kind with a single $in query
func (r *lookupRepository) GetByIDs(ctx context.Context, kind types.LookupKind, ids []string) (map[string]*model.Lookup, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*model.Lookup, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	cursor, err := coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to find lookups", goerr.V("kind", kind), goerr.V("count", len(ids)))
	}
	defer cursor.Close(ctx)

	var docs []*lookupDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to decode lookups", goerr.V("kind", kind))
	}

	for _, d := range docs {
		result[d.ID] = fromLookupDoc(kind, d)
	}
	return result, nil
}

func (r *lookupRepository) Get(ctx context.Context, kind types.LookupKind, id string) (*model.Lookup, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}

	var d lookupDoc
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to get lookup", goerr.V("kind", kind), goerr.V("id", id))
	}
	return fromLookupDoc(kind, &d), nil
}

func (r *lookupRepository) List(ctx context.Context, kind types.LookupKind) ([]*model.Lookup, error) {
	coll, err := r.collection(kind)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to list lookups", goerr.V("kind", kind))
	}
	defer cursor.Close(ctx)

	var docs []*lookupDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to decode lookups", goerr.V("kind", kind))
	}

	result := make([]*model.Lookup, 0, len(docs))
	for _, d := range docs {
		result = append(result, fromLookupDoc(kind, d))
	}
	return result, nil
}

// SaveMany upserts lookups with one bulk write per kind
func (r *lookupRepository) SaveMany(ctx context.Context, lookups []*model.Lookup) error {
	byKind := make(map[types.LookupKind][]mongo.WriteModel)
	for _, l := range lookups {
		if _, err := r.collection(l.Kind); err != nil {
			return goerr.Wrap(err, "failed to save lookup", goerr.V("id", l.ID))
		}
		if l.ID == "" {
			return goerr.Wrap(interfaces.ErrInvalidArgument, "lookup ID is required", goerr.V("kind", l.Kind))
		}

		m := mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": l.ID}).
			SetReplacement(toLookupDoc(l)).
			SetUpsert(true)
		byKind[l.Kind] = append(byKind[l.Kind], m)
	}

	for kind, models := range byKind {
		if _, err := r.colls[kind].BulkWrite(ctx, models); err != nil {
			return goerr.Wrap(unavailable(err), "failed to save lookups", goerr.V("kind", kind), goerr.V("count", len(models)))
		}
	}
	return nil
}

func (r *lookupRepository) Delete(ctx context.Context, kind types.LookupKind, id string) error {
	coll, err := r.collection(kind)
	if err != nil {
		return err
	}

	result, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return goerr.Wrap(unavailable(err), "failed to delete lookup", goerr.V("kind", kind), goerr.V("id", id))
	}
	if result.DeletedCount == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
	}
	return nil
}
