package maps

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/repository"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/store"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/models"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *Service {
	t.Helper()
	opener := repository.NewMemoryOpener()
	svc := NewService(
		store.Open[models.Map](opener, MapsCollection),
		store.Open[models.Location](opener, LocationsCollection),
		store.Open[models.Pin](opener, PinsCollection),
	)
	require.NoError(t, svc.EnsureIndexes(context.Background()))
	return svc
}

func TestCreateEmptyMap(t *testing.T) {
	svc := newService(t)
	m, err := svc.Create(context.Background(), "u1", nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "u1", m.Owner)
	assert.Equal(t, []string{}, m.Locations)
	assert.Equal(t, []string{}, m.Pins)
	assert.Empty(t, m.CurrLocation)
}

func TestCreateChecksReferences(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "u1", []string{"nope"}, nil, "")
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err))
	_, err = svc.Create(ctx, "u1", nil, []string{"nope"}, "")
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err))

	m, err := svc.Create(ctx, "u1", nil, nil, "")
	require.NoError(t, err)
	m, err = svc.SelectLocation(ctx, "u1", m.ID, "1", "2")
	require.NoError(t, err)
	loc := m.CurrLocation

	m2, err := svc.Create(ctx, "u2", nil, nil, loc)
	require.NoError(t, err)
	assert.Equal(t, []string{loc}, m2.Locations)
	assert.Equal(t, loc, m2.CurrLocation)
}

func TestSelectLocationToggles(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, "u1", nil, nil, "")
	require.NoError(t, err)

	m1, err := svc.SelectLocation(ctx, "u1", m.ID, "3", "4.5")
	require.NoError(t, err)
	require.NotEmpty(t, m1.CurrLocation)
	assert.Equal(t, []string{m1.CurrLocation}, m1.Locations)
	assert.True(t, m1.UpdatedAt.After(m.UpdatedAt))

	loc, err := svc.GetLocation(ctx, m1.CurrLocation)
	require.NoError(t, err)
	assert.Equal(t, 3.0, loc.X)
	assert.Equal(t, 4.5, loc.Y)

	// same coordinates again deselect and reuse the stored location
	m2, err := svc.SelectLocation(ctx, "u1", m.ID, "3", "4.5")
	require.NoError(t, err)
	assert.Empty(t, m2.CurrLocation)
	assert.Equal(t, []string{loc.ID}, m2.Locations)

	m3, err := svc.SelectLocation(ctx, "u1", m.ID, "3.0", "4.50")
	require.NoError(t, err)
	assert.Equal(t, loc.ID, m3.CurrLocation)
}

func TestSelectLocationErrors(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, "u1", nil, nil, "")
	require.NoError(t, err)

	_, err = svc.SelectLocation(ctx, "u1", m.ID, "east", "4")
	assert.Equal(t, "x: must be a number", err.Error())
	_, err = svc.SelectLocation(ctx, "u1", m.ID, "1", "NaN")
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))
	_, err = svc.SelectLocation(ctx, "u2", m.ID, "1", "2")
	assert.Equal(t, http.StatusForbidden, apperr.StatusCode(err))
	_, err = svc.SelectLocation(ctx, "u1", "missing", "1", "2")
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err))
}

func TestDropAndDeletePin(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	m, err := svc.Create(ctx, "u1", nil, nil, "")
	require.NoError(t, err)

	_, err = svc.DropPin(ctx, "u1", m.ID)
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))

	m, err = svc.SelectLocation(ctx, "u1", m.ID, "1", "1")
	require.NoError(t, err)
	pin, err := svc.DropPin(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, pin.Map)
	assert.Equal(t, m.CurrLocation, pin.Location)
	assert.Equal(t, "u1", pin.Owner)

	got, err := svc.GetMap(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{pin.ID}, got.Pins)

	_, err = svc.DropPin(ctx, "u2", m.ID)
	assert.Equal(t, http.StatusForbidden, apperr.StatusCode(err))

	other, err := svc.Create(ctx, "u1", nil, nil, "")
	require.NoError(t, err)
	err = svc.DeletePin(ctx, "u1", other.ID, pin.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err), "pin belongs to another map")

	require.NoError(t, svc.DeletePin(ctx, "u1", m.ID, pin.ID))
	got, err = svc.GetMap(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Pins)
	_, err = svc.GetPin(ctx, pin.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusCode(err))
}

func TestConcurrentSelectSharesOneLocation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	const n = 10
	ids := make([]string, n)
	for i := range ids {
		m, err := svc.Create(ctx, "u1", nil, nil, "")
		require.NoError(t, err)
		ids[i] = m.ID
	}

	var wg sync.WaitGroup
	selected := make([]*models.Map, n)
	errs := make([]error, n)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			selected[i], errs[i] = svc.SelectLocation(ctx, "u1", ids[i], "7", "-3.5")
		}(i)
	}
	wg.Wait()

	for i := range ids {
		require.NoError(t, errs[i])
		require.NotNil(t, selected[i])
		assert.Equal(t, selected[0].CurrLocation, selected[i].CurrLocation)
	}
	loc, err := svc.GetLocation(ctx, selected[0].CurrLocation)
	require.NoError(t, err)
	assert.Equal(t, 7.0, loc.X)
	assert.Equal(t, -3.5, loc.Y)
}
