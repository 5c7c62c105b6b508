package library

import (
	"context"
	"os"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shaderflow/shaderflow/pkg/errors"
)

// EnvLibraryURI configures the registry connection string when no explicit
// URI is given.
const EnvLibraryURI = "SHADERFLOW_LIBRARY_URI"

const (
	registryDatabase   = "shaderflow"
	registryCollection = "nodes"
)

// Registry is a shared node-definition store that editors sync against.
type Registry interface {
	Put(ctx context.Context, d Definition) error
	Get(ctx context.Context, id string) (Definition, error)
	List(ctx context.Context) ([]Definition, error)
	Close(ctx context.Context) error
}

// MongoRegistry stores definitions in a MongoDB collection keyed by
// definition id.
type MongoRegistry struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoRegistry connects to the registry. An empty uri falls back to the
// SHADERFLOW_LIBRARY_URI environment variable.
func NewMongoRegistry(ctx context.Context, uri string) (*MongoRegistry, error) {
	if uri == "" {
		uri = os.Getenv(EnvLibraryURI)
	}
	if uri == "" {
		return nil, errors.New(errors.ErrCodeLibraryUnavailable,
			"no registry URI; set %s or pass one explicitly", EnvLibraryURI)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLibraryUnavailable, err, "connect to registry")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeLibraryUnavailable, err, "ping registry")
	}
	return &MongoRegistry{
		client: client,
		coll:   client.Database(registryDatabase).Collection(registryCollection),
	}, nil
}

// Put upserts a definition under its id.
func (r *MongoRegistry) Put(ctx context.Context, d Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": d.ID}, d, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeLibraryUnavailable, err, "store definition %q", d.ID)
	}
	return nil
}

// Get fetches one definition by id.
func (r *MongoRegistry) Get(ctx context.Context, id string) (Definition, error) {
	var d Definition
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return Definition{}, errors.New(errors.ErrCodeNotFound, "definition %q not found", id)
	}
	if err != nil {
		return Definition{}, errors.Wrap(errors.ErrCodeLibraryUnavailable, err, "fetch definition %q", id)
	}
	return d, nil
}

// List returns every stored definition sorted by id.
func (r *MongoRegistry) List(ctx context.Context) ([]Definition, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLibraryUnavailable, err, "list definitions")
	}
	var defs []Definition
	if err := cur.All(ctx, &defs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLibraryUnavailable, err, "decode definitions")
	}
	return defs, nil
}

// Close disconnects from the registry.
func (r *MongoRegistry) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
