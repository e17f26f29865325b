package firestore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// Firestore batch operation limits
	// Reference: https://cloud.google.com/firestore/docs/query-data/get-data#go
	firestoreGetAllLimit = 30 // Maximum document references per GetAll
)

type Firestore struct {
	client   *firestore.Client
	counter  *counterRepository
	issue    *issueRepository
	lookup   *lookupRepository
	activity *activityRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes every collection name, e.g. for isolating test runs
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.counter.collectionPrefix = prefix
		f.issue.collectionPrefix = prefix
		f.lookup.collectionPrefix = prefix
		f.activity.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:   client,
		counter:  newCounterRepository(client),
		issue:    newIssueRepository(client),
		lookup:   newLookupRepository(client),
		activity: newActivityRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Counter() interfaces.CounterRepository {
	return f.counter
}

func (f *Firestore) Issue() interfaces.IssueRepository {
	return f.issue
}

func (f *Firestore) Lookup() interfaces.LookupRepository {
	return f.lookup
}

func (f *Firestore) Activity() interfaces.ActivityRepository {
	return f.activity
}

func (f *Firestore) Close(ctx context.Context) error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// validDocID reports whether id can address a document. Firestore rejects the whole request for a
// malformed id, so callers treat such ids as absent instead of sending them.
func validDocID(id string) bool {
	if id == "" || id == "." || id == ".." || len(id) > 1500 {
		return false
	}
	if strings.Contains(id, "/") {
		return false
	}
	if len(id) >= 4 && strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__") {
		return false
	}
	return true
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// unavailable marks a client error as a storage failure while keeping the original error in the chain
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", interfaces.ErrStorageUnavailable, err)
}
