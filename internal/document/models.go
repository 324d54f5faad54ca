package document

import (
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Base carries the identity and timestamp bookkeeping shared by every stored
// entity. Entities embed it inline so the fields sit at the top level of the
// stored document.
type Base struct {
	ID        string    `json:"_id" bson:"_id,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Field names managed by the store.
const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Filter selects documents by field equality. A scalar value compared against
// an array field matches when the array contains it; {"$in": [...]} matches
// any of the listed values.
type Filter = bson.M

// Update is a partial field set merged onto a document; each key replaces the
// whole field.
type Update = bson.M

// ByID is shorthand for the filter selecting one document by identifier.
func ByID(id string) Filter { return Filter{FieldID: id} }

// Ack reports how many documents a mutation touched. Zero matches is not an error.
type Ack struct {
	MatchedCount  int64
	ModifiedCount int64
	DeletedCount  int64
}

// Matched reports whether the mutation found a document.
func (a Ack) Matched() bool { return a.MatchedCount > 0 || a.DeletedCount > 0 }

// FindOptions controls ReadMany. A nil Sort means updatedAt descending.
type FindOptions struct {
	Sort  bson.D
	Limit int64
}

// DefaultSort lists recently updated documents first.
var DefaultSort = bson.D{{Key: FieldUpdatedAt, Value: -1}}

// ErrDuplicateKey is returned when an insert or update violates a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// Clock hands out millisecond timestamps (the precision the document engine
// keeps) that strictly increase across calls.
type Clock struct {
	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

// NewClock returns a Clock reading from now; nil means time.Now.
func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Now returns the next timestamp.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now().UTC().Truncate(time.Millisecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Millisecond)
	}
	c.last = t
	return t
}

var defaultClock = NewClock(nil)

// DefaultClock is the process-wide clock used when a store is not given one.
func DefaultClock() *Clock { return defaultClock }
