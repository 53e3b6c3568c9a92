// Package mongo stores machine definitions in MongoDB.
//
// Each definition is one document keyed by machine name. Documents keep
// the order in which machines were first stored, so a store-backed backend
// serves its catalog in a stable order.
//
//	store, err := mongo.Connect(ctx, "mongodb://localhost:27017", "fsmflow")
//	if err != nil {
//	    return err
//	}
//	defer store.Close(ctx)
//	err = store.Put(ctx, def)
package mongo

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/fsmflow/pkg/errors"
	"github.com/matzehuels/fsmflow/pkg/fsm"
	"github.com/matzehuels/fsmflow/pkg/graph"
)

const (
	DefaultDatabase   = "fsmflow"
	DefaultCollection = "machines"
	connectTimeout    = 10 * time.Second
)

type document struct {
	Name       string         `bson:"_id"`
	Definition fsm.Definition `bson:"definition"`
	CreatedAt  time.Time      `bson:"created_at"`
	UpdatedAt  time.Time      `bson:"updated_at"`
}

// Store reads and writes definitions in one collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Connect opens a client for uri and pings the server. An empty database
// selects DefaultDatabase.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongodb")
	}
	return &Store{client: client, coll: client.Database(database).Collection(DefaultCollection)}, nil
}

// NewStore wraps an existing collection. Close is then a no-op.
func NewStore(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

// List returns every definition in first-stored order.
func (s *Store) List(ctx context.Context) ([]fsm.Definition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find definitions: %w", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode definitions: %w", err)
	}
	defs := make([]fsm.Definition, len(docs))
	for i, d := range docs {
		defs[i] = d.Definition
	}
	return defs, nil
}

// Get returns the definition called name.
func (s *Store) Get(ctx context.Context, name string) (fsm.Definition, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: name}}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return fsm.Definition{}, errors.New(errors.ErrCodeMachineNotFound, "Machine not found")
	}
	if err != nil {
		return fsm.Definition{}, fmt.Errorf("find %s: %w", name, err)
	}
	return doc.Definition, nil
}

// Put validates d and inserts or replaces it by name.
func (s *Store) Put(ctx context.Context, d fsm.Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "definition", Value: d},
			{Key: "updated_at", Value: now},
		}},
		{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: now}}},
	}
	_, err := s.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: d.Name}}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", d.Name, err)
	}
	return nil
}

// Delete removes the definition called name.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: name}})
	if err != nil {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeMachineNotFound, "Machine not found")
	}
	return nil
}

// Registry loads every definition into a registry.
func (s *Store) Registry(ctx context.Context) (*fsm.Registry, error) {
	defs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return fsm.NewRegistry(defs...), nil
}

// Catalog builds the /graph-data payload from the stored definitions.
func (s *Store) Catalog(ctx context.Context) (*graph.Catalog, error) {
	r, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return r.Catalog(), nil
}

// Machines builds the /machines payload from the stored definitions.
func (s *Store) Machines(ctx context.Context) ([]graph.MachineInfo, error) {
	r, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	return r.Machines(), nil
}

// Graph returns one stored machine's description.
func (s *Store) Graph(ctx context.Context, name string) (graph.Description, error) {
	d, err := s.Get(ctx, name)
	if err != nil {
		return graph.Description{}, err
	}
	return d.Graph(), nil
}

// Close disconnects a client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
