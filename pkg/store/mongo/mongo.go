// Package mongo stores the tree in MongoDB, one collection per entity.
//
// Lists are read in natural order, which for these insert-only-then-replace
// collections is creation order.
package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// Collection names.
const (
	MembersCollection     = "members"
	ConnectionsCollection = "connections"
)

// disconnectTimeout bounds Close.
const disconnectTimeout = 5 * time.Second

// Config configures the connection.
type Config struct {
	URI      string
	Database string
}

// Store is a family.Store over MongoDB.
type Store struct {
	client      *mongo.Client
	db          *mongo.Database
	members     *mongo.Collection
	connections *mongo.Collection
}

// Open connects and pings the primary.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		cfg.Database = "kinboard"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "mongo connect")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "mongo ping")
	}
	db := client.Database(cfg.Database)
	return &Store{
		client:      client,
		db:          db,
		members:     db.Collection(MembersCollection),
		connections: db.Collection(ConnectionsCollection),
	}, nil
}

var naturalOrder = options.Find().SetSort(bson.D{{Key: "$natural", Value: 1}})

func list[T any](ctx context.Context, coll *mongo.Collection) ([]T, error) {
	cur, err := coll.Find(ctx, bson.D{}, naturalOrder)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "find %s", coll.Name())
	}
	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode %s", coll.Name())
	}
	return out, nil
}

func insert(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrap(errors.ErrCodeConflict, err, "%s already exists", id)
		}
		return errors.Wrap(errors.ErrCodeStore, err, "insert %s", id)
	}
	return nil
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc any, notFound errors.Code) error {
	res, err := coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "replace %s", id)
	}
	if res.MatchedCount == 0 {
		return errors.New(notFound, "%s", id)
	}
	return nil
}

func remove(ctx context.Context, coll *mongo.Collection, id string, notFound errors.Code) error {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete %s", id)
	}
	if res.DeletedCount == 0 {
		return errors.New(notFound, "%s", id)
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context) ([]family.Member, error) {
	return list[family.Member](ctx, s.members)
}

func (s *Store) ListConnections(ctx context.Context) ([]family.Connection, error) {
	return list[family.Connection](ctx, s.connections)
}

func (s *Store) CreateMember(ctx context.Context, m family.Member) error {
	return insert(ctx, s.members, m.ID, m)
}

func (s *Store) UpdateMember(ctx context.Context, m family.Member) error {
	return replace(ctx, s.members, m.ID, m, errors.ErrCodeMemberNotFound)
}

func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return remove(ctx, s.members, id, errors.ErrCodeMemberNotFound)
}

func (s *Store) CreateConnection(ctx context.Context, c family.Connection) error {
	return insert(ctx, s.connections, c.ID, c)
}

func (s *Store) UpdateConnection(ctx context.Context, c family.Connection) error {
	return replace(ctx, s.connections, c.ID, c, errors.ErrCodeConnectionNotFound)
}

func (s *Store) DeleteConnection(ctx context.Context, id string) error {
	return remove(ctx, s.connections, id, errors.ErrCodeConnectionNotFound)
}

// ClearSelfExcept resets every other self flag with one UpdateMany.
func (s *Store) ClearSelfExcept(ctx context.Context, keepID string) error {
	filter := bson.D{
		{Key: "is_self", Value: true},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: keepID}}},
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "is_self", Value: false}}}}
	if _, err := s.members.UpdateMany(ctx, filter, update); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "clear self flags")
	}
	return nil
}

// Drop removes both collections. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
