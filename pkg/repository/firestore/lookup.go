package firestore

import (
	"context"
	"slices"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"google.golang.org/api/iterator"
)

type lookupRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.LookupRepository = &lookupRepository{}

func newLookupRepository(client *firestore.Client) *lookupRepository {
	return &lookupRepository{client: client}
}

// lookupDoc is the Firestore persistence model
type lookupDoc struct {
	ID          string    `firestore:"id"`
	Name        string    `firestore:"name"`
	Description string    `firestore:"description"`
	Order       int       `firestore:"order"`
	IsDefault   bool      `firestore:"is_default"`
	UpdatedAt   time.Time `firestore:"updated_at"`
}

// collection returns one collection per kind: statuses, priorities, types, severities, users
func (r *lookupRepository) collection(kind types.LookupKind) *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, lookupCollectionNames[kind]))
}

var lookupCollectionNames = map[types.LookupKind]string{
	types.LookupKindStatus:   "statuses",
	types.LookupKindPriority: "priorities",
	types.LookupKindType:     "types",
	types.LookupKindSeverity: "severities",
	types.LookupKindUser:     "users",
}

func toLookupDoc(l *model.Lookup) *lookupDoc {
	return &lookupDoc{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		Order:       l.Order,
		IsDefault:   l.IsDefault,
		UpdatedAt:   l.UpdatedAt,
	}
}

func fromLookupDoc(kind types.LookupKind, d *lookupDoc) *model.Lookup {
	return &model.Lookup{
		ID:          d.ID,
		Kind:        kind,
		Name:        d.Name,
		Description: d.Description,
		Order:       d.Order,
		IsDefault:   d.IsDefault,
		UpdatedAt:   d.UpdatedAt,
	}
}

// GetByIDs handles the Firestore GetAll limit by splitting ids into multiple requests
func (r *lookupRepository) GetByIDs(ctx context.Context, kind types.LookupKind, ids []string) (map[string]*model.Lookup, error) {
	if !kind.IsValid() {
		return nil, goerr.New("invalid lookup kind", goerr.V("kind", kind))
	}

	result := make(map[string]*model.Lookup, len(ids))
	ids = slices.DeleteFunc(slices.Clone(ids), func(id string) bool { return !validDocID(id) })
	if len(ids) == 0 {
		return result, nil
	}

	for i := 0; i < len(ids); i += firestoreGetAllLimit {
		end := min(i+firestoreGetAllLimit, len(ids))
		batch := ids[i:end]

		refs := make([]*firestore.DocumentRef, len(batch))
		for j, id := range batch {
			refs[j] = r.collection(kind).Doc(id)
		}

		snaps, err := r.client.GetAll(ctx, refs)
		if err != nil {
			return nil, goerr.Wrap(unavailable(err), "failed to batch get lookups",
				goerr.V("kind", kind),
				goerr.V("count", len(batch)))
		}

		for idx, snap := range snaps {
			if !snap.Exists() {
				// Missing lookups are not included in the result map (not an error)
				continue
			}

			var d lookupDoc
			if err := snap.DataTo(&d); err != nil {
				return nil, goerr.Wrap(err, "failed to decode lookup", goerr.V("kind", kind), goerr.V("id", batch[idx]))
			}
			result[batch[idx]] = fromLookupDoc(kind, &d)
		}
	}

	return result, nil
}

func (r *lookupRepository) Get(ctx context.Context, kind types.LookupKind, id string) (*model.Lookup, error) {
	if !kind.IsValid() {
		return nil, goerr.New("invalid lookup kind", goerr.V("kind", kind))
	}
	if !validDocID(id) {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
	}

	snap, err := r.collection(kind).Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to get lookup", goerr.V("kind", kind), goerr.V("id", id))
	}

	var d lookupDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode lookup", goerr.V("kind", kind), goerr.V("id", id))
	}
	return fromLookupDoc(kind, &d), nil
}

func (r *lookupRepository) List(ctx context.Context, kind types.LookupKind) ([]*model.Lookup, error) {
	if !kind.IsValid() {
		return nil, goerr.New("invalid lookup kind", goerr.V("kind", kind))
	}

	iter := r.collection(kind).Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Lookup, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(unavailable(err), "failed to iterate lookups", goerr.V("kind", kind))
		}

		var d lookupDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode lookup", goerr.V("docID", snap.Ref.ID))
		}
		result = append(result, fromLookupDoc(kind, &d))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Name < result[j].Name
	})

	return result, nil
}

// SaveMany upserts lookups with a BulkWriter, which handles the batch write limit
func (r *lookupRepository) SaveMany(ctx context.Context, lookups []*model.Lookup) error {
	if len(lookups) == 0 {
		return nil
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	jobs := make([]*firestore.BulkWriterJob, 0, len(lookups))
	for _, l := range lookups {
		if !l.Kind.IsValid() {
			return goerr.New("invalid lookup kind", goerr.V("kind", l.Kind), goerr.V("id", l.ID))
		}
		if l.ID == "" {
			return goerr.Wrap(interfaces.ErrInvalidArgument, "lookup ID is required", goerr.V("kind", l.Kind))
		}

		job, err := bulkWriter.Set(r.collection(l.Kind).Doc(l.ID), toLookupDoc(l))
		if err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("kind", l.Kind), goerr.V("id", l.ID))
		}
		jobs = append(jobs, job)
	}

	bulkWriter.Flush()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(unavailable(err), "failed to save lookup", goerr.V("id", lookups[i].ID))
		}
	}

	return nil
}

func (r *lookupRepository) Delete(ctx context.Context, kind types.LookupKind, id string) error {
	if !kind.IsValid() {
		return goerr.New("invalid lookup kind", goerr.V("kind", kind))
	}
	if !validDocID(id) {
		return goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
	}

	if _, err := r.collection(kind).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		if isNotFound(err) {
			return goerr.Wrap(interfaces.ErrNotFound, "lookup not found", goerr.V("kind", kind), goerr.V("id", id))
		}
		return goerr.Wrap(unavailable(err), "failed to delete lookup", goerr.V("kind", kind), goerr.V("id", id))
	}
	return nil
}
