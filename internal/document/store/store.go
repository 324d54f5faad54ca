// Package store provides the typed document collection every domain module
// is built on: uniform create/read/update/delete with identity and timestamp
// bookkeeping on top of a schemaless repository.Engine.
package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/repository"
	"go.mongodb.org/mongo-driver/bson"
)

// Collection is bound to one entity shape T (a struct embedding
// document.Base inline) and one named collection.
//
// "No match" is never an error here; callers decide whether an absent
// document means NotFound.
type Collection[T any] struct {
	engine repository.Engine
	clock  *document.Clock
	newID  func() string
}

// Option customises a Collection.
type Option func(*options)

type options struct {
	clock *document.Clock
	newID func() string
}

// WithClock overrides the timestamp source.
func WithClock(c *document.Clock) Option { return func(o *options) { o.clock = c } }

// WithIDs overrides identifier generation.
func WithIDs(f func() string) Option { return func(o *options) { o.newID = f } }

func New[T any](engine repository.Engine, opts ...Option) *Collection[T] {
	o := options{clock: document.DefaultClock(), newID: uuid.NewString}
	for _, fn := range opts {
		fn(&o)
	}
	return &Collection[T]{engine: engine, clock: o.clock, newID: o.newID}
}

// Open is New with the engine looked up by collection name.
func Open[T any](opener repository.Opener, name string, opts ...Option) *Collection[T] {
	return New[T](opener.Open(name), opts...)
}

func (c *Collection[T]) Name() string { return c.engine.Name() }

// CreateOne stores fields as a new document with a fresh id and
// createdAt == updatedAt == now, and returns the id. Any id or timestamps
// already set on fields are ignored.
func (c *Collection[T]) CreateOne(ctx context.Context, fields T) (string, error) {
	doc, err := toDoc(fields)
	if err != nil {
		return "", err
	}
	id := c.newID()
	now := c.clock.Now()
	doc[document.FieldID] = id
	doc[document.FieldCreatedAt] = now
	doc[document.FieldUpdatedAt] = now
	if err := c.engine.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return id, nil
}

// ReadOne returns the first document matching filter, or nil when none does.
func (c *Collection[T]) ReadOne(ctx context.Context, filter document.Filter) (*T, error) {
	raw, err := c.engine.FindOne(ctx, filter)
	if err != nil || raw == nil {
		return nil, err
	}
	var out T
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", c.Name(), err)
	}
	return &out, nil
}

// ReadMany returns every match, materialised at call time. opts may be nil;
// without an explicit sort the newest updates come first.
func (c *Collection[T]) ReadMany(ctx context.Context, filter document.Filter, opts *document.FindOptions) ([]T, error) {
	fo := document.FindOptions{Sort: document.DefaultSort}
	if opts != nil {
		fo.Limit = opts.Limit
		if opts.Sort != nil {
			fo.Sort = opts.Sort
		}
	}
	if filter == nil {
		filter = document.Filter{}
	}
	raws, err := c.engine.Find(ctx, filter, fo)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var t T
		if err := bson.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("decode %s document: %w", c.Name(), err)
		}
		out = append(out, t)
	}
	return out, nil
}

// UpdateOne replaces each field of partial on the first match and refreshes
// updatedAt. The store-managed fields (_id, createdAt, updatedAt) are never
// taken from partial.
func (c *Collection[T]) UpdateOne(ctx context.Context, filter document.Filter, partial document.Update) (document.Ack, error) {
	set := bson.M{}
	for k, v := range partial {
		switch k {
		case document.FieldID, document.FieldCreatedAt, document.FieldUpdatedAt:
			continue
		}
		set[k] = v
	}
	set[document.FieldUpdatedAt] = c.clock.Now()
	return c.engine.UpdateOne(ctx, filter, bson.M{"$set": set})
}

// AddToSetOne appends value to the array field of the first match unless it
// is already present. The append happens inside the engine in one step, so
// concurrent appends to the same document never lose each other.
func (c *Collection[T]) AddToSetOne(ctx context.Context, filter document.Filter, field string, value interface{}) (document.Ack, error) {
	return c.engine.UpdateOne(ctx, filter, bson.M{
		"$addToSet": bson.M{field: value},
		"$set":      bson.M{document.FieldUpdatedAt: c.clock.Now()},
	})
}

// PullOne removes every occurrence of value from the array field of the first match.
func (c *Collection[T]) PullOne(ctx context.Context, filter document.Filter, field string, value interface{}) (document.Ack, error) {
	return c.engine.UpdateOne(ctx, filter, bson.M{
		"$pull": bson.M{field: value},
		"$set":  bson.M{document.FieldUpdatedAt: c.clock.Now()},
	})
}

// DeleteOne removes the first match.
func (c *Collection[T]) DeleteOne(ctx context.Context, filter document.Filter) (document.Ack, error) {
	return c.engine.DeleteOne(ctx, filter)
}

// EnsureUniqueIndex makes the engine reject a second document with the same
// values in all of fields. Violations surface as document.ErrDuplicateKey.
func (c *Collection[T]) EnsureUniqueIndex(ctx context.Context, fields ...string) error {
	return c.engine.EnsureIndex(ctx, true, fields...)
}

func toDoc(v interface{}) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return doc, nil
}
