package mongodb_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/domain/model"
	"github.com/secmon-lab/trustflow/pkg/domain/types"
	"github.com/secmon-lab/trustflow/pkg/repository/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newMockTest(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func TestCounterNext(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("first allocation returns upserted seq", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key: "value",
			Value: bson.D{
				{Key: "identifier", Value: "BUG"},
				{Key: "seq", Value: int64(1)},
			},
		}))

		seq, err := repo.Counter().Next(context.Background(), types.IssueCategory("BUG"))
		gt.NoError(mt, err).Required()
		gt.Value(mt, seq).Equal(int64(1))
	})

	mt.Run("store failure is reported as storage unavailable", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Name:    "BadValue",
			Message: "rejected",
		}))

		_, err := repo.Counter().Next(context.Background(), types.IssueCategory("BUG"))
		gt.Error(mt, err).Is(interfaces.ErrStorageUnavailable)
	})

	mt.Run("empty category is rejected", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)

		_, err := repo.Counter().Next(context.Background(), "")
		gt.Error(mt, err).Is(interfaces.ErrInvalidArgument)
	})

	mt.Run("duplicate key on first allocation is retried", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{
				Code:    11000,
				Name:    "DuplicateKey",
				Message: "E11000 duplicate key error collection: test.counters index: identifier_unique",
			}),
			mtest.CreateSuccessResponse(bson.E{
				Key: "value",
				Value: bson.D{
					{Key: "identifier", Value: "BUG"},
					{Key: "seq", Value: int64(2)},
				},
			}),
		)

		seq, err := repo.Counter().Next(context.Background(), types.IssueCategory("BUG"))
		gt.NoError(mt, err).Required()
		gt.Value(mt, seq).Equal(int64(2))
	})

	mt.Run("duplicate key is retried only once", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		dup := mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    11000,
			Name:    "DuplicateKey",
			Message: "E11000 duplicate key error",
		})
		mt.AddMockResponses(dup, dup)

		_, err := repo.Counter().Next(context.Background(), types.IssueCategory("BUG"))
		gt.Error(mt, err).Is(interfaces.ErrStorageUnavailable)
	})
}

func TestEnsureIndexes(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("creates counter index", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		gt.NoError(mt, repo.EnsureIndexes(context.Background()))

		started := mt.GetStartedEvent()
		gt.Value(mt, started).NotNil()
		gt.Value(mt, started.CommandName).Equal("createIndexes")
	})

	mt.Run("failure is reported as storage unavailable", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized",
		}))

		gt.Error(mt, repo.EnsureIndexes(context.Background())).Is(interfaces.ErrStorageUnavailable)
	})
}

func TestEnsureIndexesOnServer(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, client.Disconnect(context.Background()))
	})

	prefix := "test_" + uuid.NewString()[:8]
	db := client.Database("trustflow_test")
	repo := mongodb.NewWithDatabase(db, mongodb.WithCollectionPrefix(prefix))
	gt.NoError(t, repo.EnsureIndexes(ctx)).Required()
	t.Cleanup(func() {
		_ = db.Collection(prefix + "_counters").Drop(context.Background())
	})

	specs, err := db.Collection(prefix+"_counters").Indexes().ListSpecifications(ctx)
	gt.NoError(t, err).Required()

	var unique bool
	for _, spec := range specs {
		if spec.Name == "identifier_unique" && spec.Unique != nil {
			unique = *spec.Unique
		}
	}
	gt.Bool(t, unique).True()

	counters := db.Collection(prefix + "_counters")
	_, err = counters.InsertOne(ctx, bson.M{"identifier": "BUG", "seq": int64(1)})
	gt.NoError(t, err).Required()
	_, err = counters.InsertOne(ctx, bson.M{"identifier": "BUG", "seq": int64(1)})
	gt.Bool(t, mongo.IsDuplicateKeyError(err)).True()
}

func TestIssueRepository(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("Get returns ErrNotFound for missing issue", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch))

		_, err := repo.Issue().Get(context.Background(), "missing")
		gt.Error(mt, err).Is(interfaces.ErrNotFound)
	})

	mt.Run("Create with an existing ID returns ErrAlreadyExists", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: test.issues index: _id_",
		}))

		_, err := repo.Issue().Create(context.Background(), &model.Issue{ID: "issue-1", HumanID: "BUG-1"})
		gt.Error(mt, err).Is(interfaces.ErrAlreadyExists)
	})

	mt.Run("UpdateStatus returns previous and updated issue", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key: "value",
			Value: bson.D{
				{Key: "_id", Value: "issue-1"},
				{Key: "issueId", Value: "BUG-1"},
				{Key: "title", Value: "crash"},
				{Key: "statusId", Value: "st-open"},
			},
		}))

		before, after, err := repo.Issue().UpdateStatus(context.Background(), "issue-1", "st-closed")
		gt.NoError(mt, err).Required()
		gt.Value(mt, before.StatusID).Equal("st-open")
		gt.Value(mt, after.StatusID).Equal("st-closed")
		gt.Value(mt, after.HumanID).Equal("BUG-1")
	})

	mt.Run("UpdateStatus on missing issue returns ErrNotFound", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, _, err := repo.Issue().UpdateStatus(context.Background(), "missing", "st-closed")
		gt.Error(mt, err).Is(interfaces.ErrNotFound)
	})

	mt.Run("Delete with zero deleted returns ErrNotFound", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.Issue().Delete(context.Background(), "missing")
		gt.Error(mt, err).Is(interfaces.ErrNotFound)
	})

	mt.Run("List decodes all documents", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.issues", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "i-1"}, {Key: "issueId", Value: "BUG-1"}, {Key: "projectId", Value: "p-1"}},
			bson.D{{Key: "_id", Value: "i-2"}, {Key: "issueId", Value: "BUG-2"}, {Key: "projectId", Value: "p-1"}},
		))

		issues, err := repo.Issue().List(context.Background(), interfaces.WithProjectID("p-1"))
		gt.NoError(mt, err).Required()
		gt.Array(mt, issues).Length(2)
		gt.Value(mt, issues[1].HumanID).Equal("BUG-2")
	})
}

func TestLookupRepository(t *testing.T) {
	mt := newMockTest(t)

	mt.Run("GetByIDs omits missing ids", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.statuses", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "st-open"}, {Key: "name", Value: "Open"}},
		))

		result, err := repo.Lookup().GetByIDs(context.Background(), types.LookupKindStatus, []string{"st-open", "st-gone"})
		gt.NoError(mt, err).Required()
		gt.Number(mt, len(result)).Equal(1)
		gt.Value(mt, result["st-open"].Name).Equal("Open")
	})

	mt.Run("user name falls back to email", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "u-1"}, {Key: "username", Value: "alice"}},
			bson.D{{Key: "_id", Value: "u-2"}, {Key: "email", Value: "bob@example.com"}},
		))

		result, err := repo.Lookup().GetByIDs(context.Background(), types.LookupKindUser, []string{"u-1", "u-2"})
		gt.NoError(mt, err).Required()
		gt.Value(mt, result["u-1"].Name).Equal("alice")
		gt.Value(mt, result["u-2"].Name).Equal("bob@example.com")
	})

	mt.Run("GetByIDs with no ids returns empty map", func(mt *mtest.T) {
		repo := mongodb.NewWithDatabase(mt.DB)

		result, err := repo.Lookup().GetByIDs(context.Background(), types.LookupKindType, nil)
		gt.NoError(mt, err).Required()
		gt.Number(mt, len(result)).Equal(0)
	})
}
