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

type activityRepository struct {
	coll *mongo.Collection
}

var _ interfaces.ActivityRepository = &activityRepository{}

type activityDoc struct {
	ID            string    `bson:"_id"`
	Timestamp     time.Time `bson:"timestamp"`
	UserID        string    `bson:"userId,omitempty"`
	Category      string    `bson:"category"`
	EntityType    string    `bson:"entityType"`
	EntityID      string    `bson:"entityId,omitempty"`
	Action        string    `bson:"action"`
	OldValue      string    `bson:"oldValue,omitempty"`
	NewValue      string    `bson:"newValue,omitempty"`
	Description   string    `bson:"description"`
	IPAddress     string    `bson:"ipAddress,omitempty"`
	UserAgent     string    `bson:"userAgent,omitempty"`
	Source        string    `bson:"source"`
	Status        string    `bson:"status"`
	CorrelationID string    `bson:"correlationId,omitempty"`
}

func (r *activityRepository) Put(ctx context.Context, ev *model.ActivityEvent) error {
	if ev.ID == "" {
		return goerr.Wrap(interfaces.ErrInvalidArgument, "activity event ID is required")
	}

	d := &activityDoc{
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
	if _, err := r.coll.InsertOne(ctx, d); err != nil {
		return goerr.Wrap(unavailable(err), "failed to put activity event", goerr.V("id", ev.ID))
	}
	return nil
}

func (r *activityRepository) ListRecent(ctx context.Context, limit int) ([]*model.ActivityEvent, error) {
	return r.find(ctx, bson.M{}, limit)
}

func (r *activityRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*model.ActivityEvent, error) {
	return r.find(ctx, bson.M{"userId": userID}, limit)
}

func (r *activityRepository) find(ctx context.Context, filter bson.M, limit int) ([]*model.ActivityEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to find activity events")
	}
	defer cursor.Close(ctx)

	var docs []*activityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to decode activity events")
	}

	events := make([]*model.ActivityEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, &model.ActivityEvent{
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
		})
	}
	return events, nil
}
