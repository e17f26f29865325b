package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/trustflow/pkg/domain/interfaces"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB is a repository backed by a MongoDB database
type MongoDB struct {
	client   *mongo.Client
	counter  *counterRepository
	issue    *issueRepository
	lookup   *lookupRepository
	activity *activityRepository
}

var _ interfaces.Repository = &MongoDB{}

type Option func(*config)

type config struct {
	collectionPrefix string
}

// WithCollectionPrefix prefixes every collection name
func WithCollectionPrefix(prefix string) Option {
	return func(c *config) {
		c.collectionPrefix = prefix
	}
}

// New connects to uri and uses database
func New(ctx context.Context, uri, database string, opts ...Option) (*MongoDB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, goerr.Wrap(unavailable(err), "failed to connect mongodb", goerr.V("database", database))
	}

	m := NewWithDatabase(client.Database(database), opts...)
	m.client = client

	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

// EnsureIndexes creates the indexes the repository depends on. Creating an existing index is a no-op on the server.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	return m.counter.ensureIndexes(ctx)
}

// NewWithDatabase builds a repository on an existing database handle. The caller owns the client.
func NewWithDatabase(db *mongo.Database, opts ...Option) *MongoDB {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	coll := func(name string) *mongo.Collection {
		if cfg.collectionPrefix != "" {
			return db.Collection(cfg.collectionPrefix + "_" + name)
		}
		return db.Collection(name)
	}

	return &MongoDB{
		counter:  &counterRepository{coll: coll("counters")},
		issue:    &issueRepository{coll: coll("issues")},
		lookup:   newLookupRepository(coll),
		activity: &activityRepository{coll: coll("activities")},
	}
}

func (m *MongoDB) Counter() interfaces.CounterRepository {
	return m.counter
}

func (m *MongoDB) Issue() interfaces.IssueRepository {
	return m.issue
}

func (m *MongoDB) Lookup() interfaces.LookupRepository {
	return m.lookup
}

func (m *MongoDB) Activity() interfaces.ActivityRepository {
	return m.activity
}

func (m *MongoDB) Close(ctx context.Context) error {
	if m.client != nil {
		return m.client.Disconnect(ctx)
	}
	return nil
}

// unavailable marks a driver error as a storage failure while keeping the original error in the chain
func unavailable(err error) error {
	return fmt.Errorf("%w: %w", interfaces.ErrStorageUnavailable, err)
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
