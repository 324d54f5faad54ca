package routes

import (
	"context"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/collections"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/repository"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/store"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/maps"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/models"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/pinpoints"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/storage"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/users"
)

// Services are the domain modules the route table calls into.
type Services struct {
	Users       *users.Service
	Maps        *maps.Service
	PinPoints   *pinpoints.Service
	Collections *collections.Service
}

// NewServices opens one document collection per entity kind from opener.
func NewServices(opener repository.Opener, media storage.MediaStore, bcryptCost int) *Services {
	u := users.NewService(store.Open[models.User](opener, users.CollectionName), bcryptCost)
	m := maps.NewService(
		store.Open[models.Map](opener, maps.MapsCollection),
		store.Open[models.Location](opener, maps.LocationsCollection),
		store.Open[models.Pin](opener, maps.PinsCollection),
	)
	return &Services{
		Users:       u,
		Maps:        m,
		PinPoints:   pinpoints.NewService(store.Open[models.PinPoint](opener, pinpoints.CollectionName), m, media),
		Collections: collections.NewService(store.Open[models.Collection](opener, collections.CollectionName), m, u),
	}
}

// EnsureIndexes creates the indexes the domain modules rely on.
func (s *Services) EnsureIndexes(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		s.Users.EnsureIndexes,
		s.Maps.EnsureIndexes,
		s.Collections.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}
