package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type issueRepository struct {
	coll *mongo.Collection
}

var _ interfaces.IssueRepository = &issueRepository{}

type issueDoc struct {
	ID              string    `bson:"_id"`
	HumanID         string    `bson:"issueId"`
	Title           string    `bson:"title"`
	Description     string    `bson:"description"`
	ProjectID       string    `bson:"projectId"`
	ReporterUserID  string    `bson:"reporterUserId"`
	AssigneeUserIDs []string  `bson:"assigneeUserIds"`
	StatusID        string    `bson:"statusId"`
	PriorityID      string    `bson:"priorityId"`
	TypeID          string    `bson:"typeId"`
	SeverityID      string    `bson:"severityId"`
	LinkedIssueIDs  []string  `bson:"linkedIssueIds"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

func toIssueDoc(x *model.Issue) *issueDoc {
	linked := make([]string, len(x.LinkedIssueIDs))
	for i, id := range x.LinkedIssueIDs {
		linked[i] = id.String()
	}

	return &issueDoc{
		ID:              x.ID.String(),
		HumanID:         x.HumanID,
		Title:           x.Title,
		Description:     x.Description,
		ProjectID:       x.ProjectID,
		ReporterUserID:  x.ReporterUserID,
		AssigneeUserIDs: model.UniqueStrings(x.AssigneeUserIDs),
		StatusID:        x.StatusID,
		PriorityID:      x.PriorityID,
		TypeID:          x.TypeID,
		SeverityID:      x.SeverityID,
		LinkedIssueIDs:  linked,
		CreatedAt:       x.CreatedAt,
		UpdatedAt:       x.UpdatedAt,
	}
}

func fromIssueDoc(d *issueDoc) *model.Issue {
	var linked []model.IssueID
	if len(d.LinkedIssueIDs) > 0 {
		linked = make([]model.IssueID, len(d.LinkedIssueIDs))
		for i, id := range d.LinkedIssueIDs {
			linked[i] = model.IssueID(id)
		}
	}

	return &model.Issue{
		ID:              model.IssueID(d.ID),
		HumanID:         d.HumanID,
		Title:           d.Title,
		Description:     d.Description,
		ProjectID:       d.ProjectID,
		ReporterUserID:  d.ReporterUserID,
		AssigneeUserIDs: d.AssigneeUserIDs,
		StatusID:        d.StatusID,
		PriorityID:      d.PriorityID,
		TypeID:          d.TypeID,
		SeverityID:      d.SeverityID,
		LinkedIssueIDs:  linked,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	if issue.ID == "" {
		return nil, goerr.Wrap(interfaces.ErrInvalidArgument, "issue ID is required")
	}

	now := time.Now().UTC()
	created := issue.Copy()
	created.AssigneeUserIDs = model.UniqueStrings(created.AssigneeUserIDs)
	if created.CreatedAt.IsZero() {
		created.CreatedAt = now
	}
	created.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, toIssueDoc(created)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, goerr.Wrap(fmt.Errorf("%w: %w", interfaces.ErrAlreadyExists, err), "issue already exists", goerr.V("id", created.ID))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to create issue", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *issueRepository) Get(ctx context.Context, id model.IssueID) (*model.Issue, error) {
	var d issueDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to get issue", goerr.V("id", id))
	}
	return fromIssueDoc(&d), nil
}

func (r *issueRepository) List(ctx context.Context, opts ...interfaces.ListIssueOption) ([]*model.Issue, error) {
	cfg := interfaces.BuildListIssueConfig(opts...)

	filter := bson.M{}
	if v := cfg.ProjectID(); v != "" {
		filter["projectId"] = v
	}
	if v := cfg.ReporterUserID(); v != "" {
		filter["reporterUserId"] = v
	}
	if v := cfg.StatusID(); v != "" {
		filter["statusId"] = v
	}
	if v := cfg.AssigneeUserID(); v != "" {
		// matches array elements
		filter["assigneeUserIds"] = v
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to list issues")
	}
	defer cursor.Close(ctx)

	var docs []*issueDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to decode issues")
	}

	issues := make([]*model.Issue, 0, len(docs))
	for _, d := range docs {
		issues = append(issues, fromIssueDoc(d))
	}
	return issues, nil
}

// Replace overwrites mutable fields only; issueId and createdAt are never touched
func (r *issueRepository) Replace(ctx context.Context, issue *model.Issue) (*model.Issue, error) {
	d := toIssueDoc(issue)
	update := bson.M{"$set": bson.M{
		"title":           d.Title,
		"description":     d.Description,
		"projectId":       d.ProjectID,
		"reporterUserId":  d.ReporterUserID,
		"assigneeUserIds": d.AssigneeUserIDs,
		"statusId":        d.StatusID,
		"priorityId":      d.PriorityID,
		"typeId":          d.TypeID,
		"severityId":      d.SeverityID,
		"linkedIssueIds":  d.LinkedIssueIDs,
		"updatedAt":       time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated issueDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": d.ID}, update, opts).Decode(&updated); err != nil {
		if isNoDocuments(err) {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", issue.ID))
		}
		return nil, goerr.Wrap(unavailable(err), "failed to replace issue", goerr.V("id", issue.ID))
	}

	return fromIssueDoc(&updated), nil
}

func (r *issueRepository) UpdateStatus(ctx context.Context, id model.IssueID, statusID string) (*model.Issue, *model.Issue, error) {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"statusId":  statusID,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var d issueDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id.String()}, update, opts).Decode(&d); err != nil {
		if isNoDocuments(err) {
			return nil, nil, goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
		}
		return nil, nil, goerr.Wrap(unavailable(err), "failed to update issue status", goerr.V("id", id))
	}

	before := fromIssueDoc(&d)
	after := before.Copy()
	after.StatusID = statusID
	after.UpdatedAt = now
	return before, after, nil
}

func (r *issueRepository) Delete(ctx context.Context, id model.IssueID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return goerr.Wrap(unavailable(err), "failed to delete issue", goerr.V("id", id))
	}
	if result.DeletedCount == 0 {
		return goerr.Wrap(interfaces.ErrNotFound, "issue not found", goerr.V("id", id))
	}
	return nil
}
