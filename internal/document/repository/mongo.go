package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoEngine implements Engine on a MongoDB collection. Array membership,
// $in, $addToSet and $pull are native, so the engine only translates results
// and errors.
type MongoEngine struct {
	col *mongo.Collection
}

func NewMongoEngine(col *mongo.Collection) *MongoEngine {
	return &MongoEngine{col: col}
}

func (m *MongoEngine) Name() string { return m.col.Name() }

func (m *MongoEngine) InsertOne(ctx context.Context, doc bson.M) error {
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return translate("insert", m.col.Name(), err)
	}
	return nil
}

func (m *MongoEngine) FindOne(ctx context.Context, filter document.Filter) (bson.Raw, error) {
	raw, err := m.col.FindOne(ctx, filter).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, translate("find one", m.col.Name(), err)
	}
	return raw, nil
}

func (m *MongoEngine) Find(ctx context.Context, filter document.Filter, opts document.FindOptions) ([]bson.Raw, error) {
	fo := options.Find()
	if len(opts.Sort) > 0 {
		fo.SetSort(opts.Sort)
	}
	if opts.Limit > 0 {
		fo.SetLimit(opts.Limit)
	}
	cur, err := m.col.Find(ctx, filter, fo)
	if err != nil {
		return nil, translate("find", m.col.Name(), err)
	}
	defer cur.Close(ctx)
	out := []bson.Raw{}
	for cur.Next(ctx) {
		// cur.Current is reused by the next call
		out = append(out, append(bson.Raw(nil), cur.Current...))
	}
	if err := cur.Err(); err != nil {
		return nil, translate("find", m.col.Name(), err)
	}
	return out, nil
}

func (m *MongoEngine) UpdateOne(ctx context.Context, filter document.Filter, update bson.M) (document.Ack, error) {
	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return document.Ack{}, translate("update", m.col.Name(), err)
	}
	return document.Ack{MatchedCount: res.MatchedCount, ModifiedCount: res.ModifiedCount}, nil
}

func (m *MongoEngine) DeleteOne(ctx context.Context, filter document.Filter) (document.Ack, error) {
	res, err := m.col.DeleteOne(ctx, filter)
	if err != nil {
		return document.Ack{}, translate("delete", m.col.Name(), err)
	}
	return document.Ack{DeletedCount: res.DeletedCount}, nil
}

func (m *MongoEngine) EnsureIndex(ctx context.Context, unique bool, fields ...string) error {
	if len(fields) == 0 {
		return fmt.Errorf("index on %s: no fields", m.col.Name())
	}
	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	idx := mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(unique)}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create index %s.%s: %w", m.col.Name(), strings.Join(fields, "_"), err)
	}
	return nil
}

func translate(op, col string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return document.ErrDuplicateKey
	}
	return fmt.Errorf("mongo %s %s: %w", op, col, err)
}

// MongoOpener opens collections of one database.
type MongoOpener struct {
	db *mongo.Database
}

func NewMongoOpener(db *mongo.Database) *MongoOpener {
	return &MongoOpener{db: db}
}

func (o *MongoOpener) Open(name string) Engine {
	return NewMongoEngine(o.db.Collection(name))
}
