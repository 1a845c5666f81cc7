package manifest

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/errors"
)

// MongoStore inserts one document per entry.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and ensures a (run_id, index) index on the
// collection.
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if (!strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://")) || database == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "mongo manifest needs mongo_uri and mongo_database")
	}
	if collection == "" {
		collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	coll := client.Database(database).Collection(collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "run_id", Value: 1}, {Key: "index", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "create manifest index")
	}
	return NewMongoStoreFromCollection(client, coll), nil
}

// NewMongoStoreFromCollection wraps an existing collection.
func NewMongoStoreFromCollection(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

// Record inserts the outcome.
func (s *MongoStore) Record(ctx context.Context, o batch.Outcome) error {
	if _, err := s.coll.InsertOne(ctx, FromOutcome(o)); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "insert manifest entry")
	}
	return nil
}

// Run returns every entry of a run in plan order.
func (s *MongoStore) Run(ctx context.Context, runID string) ([]Entry, error) {
	cur, err := s.coll.Find(ctx, bson.M{"run_id": runID}, options.Find().SetSort(bson.D{{Key: "index", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "query manifest")
	}
	var entries []Entry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "decode manifest")
	}
	return entries, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
