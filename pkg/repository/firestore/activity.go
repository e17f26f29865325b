package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"google.golang.org/api/iterator"
)

const activitiesCollection = "activities"

type activityRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.ActivityRepository = &activityRepository{}

func newActivityRepository(client *firestore.Client) *activityRepository {
	return &activityRepository{client: client}
}

// activityDoc is the Firestore persistence model
type activityDoc struct {
	ID            string    `firestore:"id"`
	Timestamp     time.Time `firestore:"timestamp"`
	UserID        string    `firestore:"user_id"`
	Category      string    `firestore:"category"`
	EntityType    string    `firestore:"entity_type"`
	EntityID      string    `firestore:"entity_id"`
	Action        string    `firestore:"action"`
	OldValue      string    `firestore:"old_value"`
	NewValue      string    `firestore:"new_value"`
	Description   string    `firestore:"description"`
	IPAddress     string    `firestore:"ip_address"`
	UserAgent     string    `firestore:"user_agent"`
	Source        string    `firestore:"source"`
	Status        string    `firestore:"status"`
	CorrelationID string    `firestore:"correlation_id"`
}

func toActivityDoc(ev *model.ActivityEvent) *activityDoc {
	return &activityDoc{
		ID:            string(ev.ID),
		Timestamp:     ev.Timestamp,
		UserID:        ev.UserID,
		Category:      string(ev.Category),
		EntityType:    ev.EntityType,
		EntityID:      ev.EntityID,
		Action:        string(ev.Action),
		OldValue:      ev.OldValue,
		NewValue:      ev.NewValue,
		Description:   ev.Description,
		IPAddress:     ev.IPAddress,
		UserAgent:     ev.UserAgent,
		Source:        ev.Source,
		Status:        string(ev.Status),
		CorrelationID: ev.CorrelationID,
	}
}

func fromActivityDoc(d *activityDoc) *model.ActivityEvent {
	return &model.ActivityEvent{
		ID:            model.ActivityEventID(d.ID),
		Timestamp:     d.Timestamp,
		UserID:        d.UserID,
		Category:      types.ActivityCategory(d.Category),
		EntityType:    d.EntityType,
		EntityID:      d.EntityID,
		Action:        types.ActivityAction(d.Action),
		OldValue:      d.OldValue,
		NewValue:      d.NewValue,
		Description:   d.Description,
		IPAddress:     d.IPAddress,
		UserAgent:     d.UserAgent,
		Source:        d.Source,
		Status:        types.ActivityStatus(d.Status),
		CorrelationID: d.CorrelationID,
	}
}

func (r *activityRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, activitiesCollection))
}

func (r *activityRepository) Put(ctx context.Context, event *model.ActivityEvent) error {
	if event.ID == "" {
		return goerr.Wrap(interfaces.ErrInvalidArgument, "activity event ID is required")
	}

	if _, err := r.collection().Doc(string(event.ID)).Set(ctx, toActivityDoc(event)); err != nil {
		return goerr.Wrap(unavailable(err), "failed to put activity event", goerr.V("id", event.ID))
	}
	return nil
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]*model.ActivityEvent, error) {
	query := r.collection().OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.query(ctx, query)
}

// ListByUser requires the composite index user_id ASC, timestamp DESC (see `migrate`)
func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ActivityEvent, error) {
	query := r.collection().
		Where("user_id", "==", userID).
		OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}
	return r.query(ctx, query)
}

func (r *activityRepository) query(ctx context.Context, query firestore.Query) ([]*model.ActivityEvent, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	events := make([]*model.ActivityEvent, 0)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(unavailable(err), "failed to iterate activity events")
		}

		var d activityDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode activity event", goerr.V("docID", snap.Ref.ID))
		}
		events = append(events, fromActivityDoc(&d))
	}

	return events, nil
}
