package pinpoints

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/repository"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/store"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/models"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/storage"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePins map[string]*models.Pin

func (f fakePins) GetPin(ctx context.Context, id string) (*models.Pin, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("pin", id)
}

func newService() (*Service, *storage.MemoryStorage) {
	media := storage.NewMemoryStorage("test")
	pins := fakePins{"p1": {Map: "m1", Location: "l1", Owner: "u1"}}
	col := store.New[models.PinPoint](repository.NewMemoryEngine(CollectionName))
	return NewService(col, pins, media), media
}

func TestCreateAndList(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	a, err := svc.Create(ctx, "u1", "p1", "https://img.example/a.png", "sunset")
	require.NoError(t, err)
	assert.Equal(t, "u1", a.User)
	assert.Equal(t, "p1", a.Pin)
	assert.Equal(t, "sunset", a.Caption)

	b, err := svc.Create(ctx, "u1", "p1", "https://img.example/b.png", "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "u2", "p1", "https://img.example/c.png", "theirs")
	require.NoError(t, err)

	mine, err := svc.ByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, b.ID, mine[0].ID)

	_, err = svc.Create(ctx, "u1", "missing", "x", "c")
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err))
	_, err = svc.Create(ctx, "u1", "p1", "x", strings.Repeat("a", 501))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))
}

func TestCreateWithUploadedMedia(t *testing.T) {
	svc, media := newService()
	ctx := context.Background()
	key := storage.NewObjectKey("photo.png")

	_, err := svc.Create(ctx, "u1", "p1", key, "not uploaded yet")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))

	require.NoError(t, media.Upload(ctx, storage.ObjectName("u1", key), strings.NewReader("png"), 3, "image/png"))

	// another user cannot attach u1's upload
	_, err = svc.Create(ctx, "u2", "p1", key, "stolen")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))

	pp, err := svc.Create(ctx, "u1", "p1", key, "mine")
	require.NoError(t, err)

	u, err := svc.MediaURL(ctx, pp.ID)
	require.NoError(t, err)
	assert.Contains(t, u, "u1/"+key)
}

func TestMediaURLRawContent(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	pp, err := svc.Create(ctx, "u1", "p1", "https://img.example/a.png", "c")
	require.NoError(t, err)

	u, err := svc.MediaURL(ctx, pp.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/a.png", u)

	_, err = svc.MediaURL(ctx, "missing")
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err))
}

func TestEditAndDeleteOwnership(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	pp, err := svc.Create(ctx, "u1", "p1", "https://img.example/a.png", "old")
	require.NoError(t, err)

	_, err = svc.EditCaption(ctx, "u2", pp.ID, "hacked")
	assert.Equal(t, http.StatusForbidden, apperr.StatusCode(err))

	edited, err := svc.EditCaption(ctx, "u1", pp.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", edited.Caption)
	assert.True(t, edited.UpdatedAt.After(pp.UpdatedAt))
	assert.Equal(t, pp.CreatedAt, edited.CreatedAt)

	assert.Equal(t, http.StatusForbidden, apperr.StatusCode(svc.Delete(ctx, "u2", pp.ID)))
	require.NoError(t, svc.Delete(ctx, "u1", pp.ID))
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(svc.Delete(ctx, "u1", pp.ID)))
	_, err = svc.EditCaption(ctx, "u1", pp.ID, "gone")
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err))
}
