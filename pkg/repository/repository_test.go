package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"github.com/secmon-lab/trustflow/pkg/repository/firestore"
	"github.com/secmon-lab/trustflow/pkg/repository/memory"
	"github.com/secmon-lab/trustflow/pkg/repository/mongodb"
)

// testPrefix isolates collections of one test run from others sharing the database
func testPrefix() string {
	return "test_" + uuid.NewString()[:8]
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	return memory.New()
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(testPrefix()))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close(context.Background()))
	})
	return repo
}

func newMongoRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}

	database := os.Getenv("TEST_MONGODB_DATABASE")
	if database == "" {
		database = "trustflow_test"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := mongodb.New(ctx, uri, database, mongodb.WithCollectionPrefix(testPrefix()))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close(context.Background()))
	})
	return repo
}

// runAllBackends runs fn against every repository backend. Remote backends are skipped without credentials.
func runAllBackends(t *testing.T, fn func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository)) {
	t.Run("memory", func(t *testing.T) { fn(t, newMemoryRepository) })
	t.Run("firestore", func(t *testing.T) { fn(t, newFirestoreRepository) })
	t.Run("mongodb", func(t *testing.T) { fn(t, newMongoRepository) })
}
