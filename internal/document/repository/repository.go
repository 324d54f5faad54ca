package repository

import (
	"context"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"go.mongodb.org/mongo-driver/bson"
)

// Engine is the schemaless view of one named collection in the backing
// document engine. Documents go in as bson.M and come back as raw BSON so the
// typed layer can decode them into its own struct.
//
// Update documents use the operators $set, $addToSet and $pull; each call is
// applied atomically to the first matching document.
type Engine interface {
	Name() string
	InsertOne(ctx context.Context, doc bson.M) error
	// FindOne returns (nil, nil) when nothing matches.
	FindOne(ctx context.Context, filter document.Filter) (bson.Raw, error)
	Find(ctx context.Context, filter document.Filter, opts document.FindOptions) ([]bson.Raw, error)
	UpdateOne(ctx context.Context, filter document.Filter, update bson.M) (document.Ack, error)
	DeleteOne(ctx context.Context, filter document.Filter) (document.Ack, error)
	// EnsureIndex creates an index over fields; a unique index rejects a second
	// document with equal values in all of them.
	EnsureIndex(ctx context.Context, unique bool, fields ...string) error
}

// Opener returns the engine for a collection name.
type Opener interface {
	Open(name string) Engine
}
