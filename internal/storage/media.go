package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// KeyPrefix marks pinpoint media values that name an uploaded object. Keys
// carry no slash so they fit in a single path segment.
const KeyPrefix = "media-"

// ErrObjectNotFound is returned for keys with no stored object.
var ErrObjectNotFound = errors.New("object not found")

// MediaStore is the object storage used for pinpoint photos.
type MediaStore interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// URL returns a time-limited download URL for key.
	URL(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// NewObjectKey returns a fresh media key for an uploaded file. The original
// extension is kept so browsers can guess the type.
func NewObjectKey(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) > 8 || strings.ContainsAny(ext, "/\\") {
		ext = ""
	}
	return KeyPrefix + uuid.NewString() + ext
}

// ObjectName is where owner's media key is stored in the bucket. Scoping by
// owner means a key only resolves for the user who uploaded it.
func ObjectName(owner, key string) string {
	return fmt.Sprintf("%s/%s", owner, key)
}

// IsObjectKey reports whether a media value refers to a stored object.
func IsObjectKey(v string) bool { return strings.HasPrefix(v, KeyPrefix) }

// MemoryStorage keeps objects in process memory. Used when MinIO is not configured.
type MemoryStorage struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string][]byte
	expires time.Duration
}

func NewMemoryStorage(bucket string) *MemoryStorage {
	return &MemoryStorage{bucket: bucket, objects: map[string][]byte{}, expires: 15 * time.Minute}
}

func (m *MemoryStorage) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = b
	return nil
}

func (m *MemoryStorage) URL(ctx context.Context, key string) (string, error) {
	ok, _ := m.Exists(ctx, key)
	if !ok {
		return "", ErrObjectNotFound
	}
	return fmt.Sprintf("memory://%s/%s?expires=%d", m.bucket, key, time.Now().Add(m.expires).Unix()), nil
}

func (m *MemoryStorage) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }
