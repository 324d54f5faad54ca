package repository

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryEngine is an in-memory Engine used for local development and unit
// tests. Every operation holds the engine lock for its whole duration, so a
// single UpdateOne is atomic just like on the real engine.
type MemoryEngine struct {
	name   string
	mu     sync.RWMutex
	docs   []bson.M
	unique [][]string
}

func NewMemoryEngine(name string) *MemoryEngine {
	return &MemoryEngine{name: name}
}

func (m *MemoryEngine) Name() string { return m.name }

func (m *MemoryEngine) InsertOne(ctx context.Context, doc bson.M) error {
	cp, err := cloneDoc(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := cp[document.FieldID]; ok {
		if m.indexOf(document.Filter{document.FieldID: id}) >= 0 {
			return document.ErrDuplicateKey
		}
	}
	if m.violatesUnique(cp, -1) {
		return document.ErrDuplicateKey
	}
	m.docs = append(m.docs, cp)
	return nil
}

func (m *MemoryEngine) FindOne(ctx context.Context, filter document.Filter) (bson.Raw, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(nf)
	if i < 0 {
		return nil, nil
	}
	return bson.Marshal(m.docs[i])
}

func (m *MemoryEngine) Find(ctx context.Context, filter document.Filter, opts document.FindOptions) ([]bson.Raw, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	matched := make([]bson.M, 0)
	for _, d := range m.docs {
		if matches(d, nf) {
			matched = append(matched, d)
		}
	}
	m.mu.RUnlock()

	if len(opts.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, e := range opts.Sort {
				c := compareValues(matched[i][e.Key], matched[j][e.Key])
				if c == 0 {
					continue
				}
				if dir, ok := toFloat(e.Value); ok && dir < 0 {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if opts.Limit > 0 && int64(len(matched)) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	out := make([]bson.Raw, 0, len(matched))
	for _, d := range matched {
		raw, err := bson.Marshal(d)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (m *MemoryEngine) UpdateOne(ctx context.Context, filter document.Filter, update bson.M) (document.Ack, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return document.Ack{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(nf)
	if i < 0 {
		return document.Ack{}, nil
	}
	next, err := cloneDoc(m.docs[i])
	if err != nil {
		return document.Ack{}, err
	}
	for op, arg := range update {
		fields, ok := arg.(bson.M)
		if !ok {
			return document.Ack{}, fmt.Errorf("memory engine: %s expects a document, got %T", op, arg)
		}
		for k, v := range fields {
			nv, err := normalizeValue(v)
			if err != nil {
				return document.Ack{}, err
			}
			switch op {
			case "$set":
				next[k] = nv
			case "$addToSet":
				arr := asArray(next[k])
				if !containsValue(arr, nv) {
					arr = append(arr, nv)
				}
				next[k] = arr
			case "$pull":
				arr := asArray(next[k])
				kept := primitive.A{}
				for _, el := range arr {
					if !valuesEqual(el, nv) {
						kept = append(kept, el)
					}
				}
				next[k] = kept
			default:
				return document.Ack{}, fmt.Errorf("memory engine: unsupported update operator %q", op)
			}
		}
	}
	if m.violatesUnique(next, i) {
		return document.Ack{}, document.ErrDuplicateKey
	}
	ack := document.Ack{MatchedCount: 1}
	if !reflect.DeepEqual(m.docs[i], next) {
		ack.ModifiedCount = 1
	}
	m.docs[i] = next
	return ack, nil
}

func (m *MemoryEngine) DeleteOne(ctx context.Context, filter document.Filter) (document.Ack, error) {
	nf, err := normalizeFilter(filter)
	if err != nil {
		return document.Ack{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(nf)
	if i < 0 {
		return document.Ack{}, nil
	}
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return document.Ack{DeletedCount: 1}, nil
}

// EnsureIndex only records unique field sets; lookups are linear scans anyway.
func (m *MemoryEngine) EnsureIndex(ctx context.Context, unique bool, fields ...string) error {
	if len(fields) == 0 {
		return fmt.Errorf("index on %s: no fields", m.name)
	}
	if !unique {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, set := range m.unique {
		if slices.Equal(set, fields) {
			return nil
		}
	}
	m.unique = append(m.unique, slices.Clone(fields))
	return nil
}

// Len returns the number of stored documents.
func (m *MemoryEngine) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// indexOf expects the caller to hold the lock and a normalized filter.
func (m *MemoryEngine) indexOf(filter document.Filter) int {
	for i, d := range m.docs {
		if matches(d, filter) {
			return i
		}
	}
	return -1
}

func (m *MemoryEngine) violatesUnique(doc bson.M, skip int) bool {
	for _, set := range m.unique {
		if !hasAll(doc, set) {
			continue
		}
		for i, other := range m.docs {
			if i != skip && sameValues(doc, other, set) {
				return true
			}
		}
	}
	return false
}

// hasAll reports whether doc carries a non-null value for every field.
// Documents missing one of them never conflict.
func hasAll(doc bson.M, fields []string) bool {
	for _, f := range fields {
		if v, ok := doc[f]; !ok || v == nil {
			return false
		}
	}
	return true
}

func sameValues(a, b bson.M, fields []string) bool {
	for _, f := range fields {
		if !valuesEqual(a[f], b[f]) {
			return false
		}
	}
	return true
}

// MemoryOpener hands out one MemoryEngine per collection name.
type MemoryOpener struct {
	mu      sync.Mutex
	engines map[string]*MemoryEngine
}

func NewMemoryOpener() *MemoryOpener {
	return &MemoryOpener{engines: map[string]*MemoryEngine{}}
}

func (o *MemoryOpener) Open(name string) Engine {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e, ok := o.engines[name]; ok {
		return e
	}
	e := NewMemoryEngine(name)
	o.engines[name] = e
	return e
}

func cloneDoc(doc bson.M) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("memory engine: encode: %w", err)
	}
	var out bson.M
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("memory engine: decode: %w", err)
	}
	return out, nil
}

// normalizeValue converts v into the representation a stored document uses
// (time.Time -> DateTime, slices -> primitive.A, ...).
func normalizeValue(v interface{}) (interface{}, error) {
	d, err := cloneDoc(bson.M{"v": v})
	if err != nil {
		return nil, err
	}
	return d["v"], nil
}

func normalizeFilter(f document.Filter) (document.Filter, error) {
	out := make(document.Filter, len(f))
	for k, v := range f {
		if strings.HasPrefix(k, "$") {
			return nil, fmt.Errorf("memory engine: unsupported filter operator %q", k)
		}
		if op, ok := v.(bson.M); ok {
			in, ok := op["$in"]
			if !ok || len(op) != 1 {
				return nil, fmt.Errorf("memory engine: unsupported filter on %q", k)
			}
			nv, err := normalizeValue(in)
			if err != nil {
				return nil, err
			}
			out[k] = bson.M{"$in": asArray(nv)}
			continue
		}
		nv, err := normalizeValue(v)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

func matches(doc bson.M, filter document.Filter) bool {
	for k, want := range filter {
		got := doc[k]
		if op, ok := want.(bson.M); ok {
			found := false
			for _, candidate := range op["$in"].(primitive.A) {
				if fieldMatches(got, candidate) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
			continue
		}
		if !fieldMatches(got, want) {
			return false
		}
	}
	return true
}

func fieldMatches(got, want interface{}) bool {
	if arr, ok := got.(primitive.A); ok {
		if _, wantArr := want.(primitive.A); wantArr {
			return valuesEqual(got, want)
		}
		return containsValue(arr, want)
	}
	return valuesEqual(got, want)
}

func asArray(v interface{}) primitive.A {
	switch a := v.(type) {
	case primitive.A:
		return append(primitive.A{}, a...)
	case nil:
		return primitive.A{}
	}
	return primitive.A{v}
}

func containsValue(arr primitive.A, v interface{}) bool {
	for _, el := range arr {
		if valuesEqual(el, v) {
			return true
		}
	}
	return false
}

func valuesEqual(a, b interface{}) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// compareValues orders values of mixed type: nil, numbers, strings, dates, other.
func compareValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return ra - rb
	}
	switch ra {
	case 1:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return cmpOrdered(fa, fb)
	case 2:
		return strings.Compare(a.(string), b.(string))
	case 3:
		return cmpOrdered(int64(a.(primitive.DateTime)), int64(b.(primitive.DateTime)))
	}
	return 0
}

func typeRank(v interface{}) int {
	if v == nil {
		return 0
	}
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case string:
		return 2
	case primitive.DateTime:
		return 3
	}
	return 4
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
