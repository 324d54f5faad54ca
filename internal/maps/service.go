// Package maps implements maps, the locations selected on them and the pins
// dropped on those locations.
package maps

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/store"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/models"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
)

const (
	MapsCollection      = "maps"
	LocationsCollection = "locations"
	PinsCollection      = "pins"
)

type Service struct {
	maps      *store.Collection[models.Map]
	locations *store.Collection[models.Location]
	pins      *store.Collection[models.Pin]
}

func NewService(maps *store.Collection[models.Map], locations *store.Collection[models.Location], pins *store.Collection[models.Pin]) *Service {
	return &Service{maps: maps, locations: locations, pins: pins}
}

// EnsureIndexes keeps a single location per coordinate pair.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	return s.locations.EnsureUniqueIndex(ctx, "x", "y")
}

// Create makes a map owned by owner. Referenced locations and pins must exist;
// a current location is also added to the map's locations.
func (s *Service) Create(ctx context.Context, owner string, locations, pins []string, currLocation string) (*models.Map, error) {
	if locations == nil {
		locations = []string{}
	}
	if pins == nil {
		pins = []string{}
	}
	for _, id := range locations {
		if _, err := s.GetLocation(ctx, id); err != nil {
			return nil, err
		}
	}
	for _, id := range pins {
		if _, err := s.GetPin(ctx, id); err != nil {
			return nil, err
		}
	}
	if currLocation != "" {
		if _, err := s.GetLocation(ctx, currLocation); err != nil {
			return nil, err
		}
		if !contains(locations, currLocation) {
			locations = append(locations, currLocation)
		}
	}
	id, err := s.maps.CreateOne(ctx, models.Map{
		Owner:        owner,
		Locations:    dedupe(locations),
		Pins:         dedupe(pins),
		CurrLocation: currLocation,
	})
	if err != nil {
		return nil, err
	}
	return s.GetMap(ctx, id)
}

func (s *Service) GetMap(ctx context.Context, id string) (*models.Map, error) {
	m, err := s.maps.ReadOne(ctx, document.ByID(id))
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, apperr.NotFound("map", id)
	}
	return m, nil
}

func (s *Service) ownedMap(ctx context.Context, user, id string) (*models.Map, error) {
	m, err := s.GetMap(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Owner != user {
		return nil, apperr.Authorization("you do not own this map")
	}
	return m, nil
}

func (s *Service) GetLocation(ctx context.Context, id string) (*models.Location, error) {
	l, err := s.locations.ReadOne(ctx, document.ByID(id))
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apperr.NotFound("location", id)
	}
	return l, nil
}

func (s *Service) GetPin(ctx context.Context, id string) (*models.Pin, error) {
	p, err := s.pins.ReadOne(ctx, document.ByID(id))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("pin", id)
	}
	return p, nil
}

// locationAt returns the location at (x, y), creating it on first use.
func (s *Service) locationAt(ctx context.Context, x, y float64) (*models.Location, error) {
	filter := document.Filter{"x": x, "y": y}
	l, err := s.locations.ReadOne(ctx, filter)
	if err != nil || l != nil {
		return l, err
	}
	id, err := s.locations.CreateOne(ctx, models.Location{X: x, Y: y})
	if errors.Is(err, document.ErrDuplicateKey) {
		// created concurrently; use the winner
		return s.locations.ReadOne(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	return s.GetLocation(ctx, id)
}

// SelectLocation toggles the location at (x, y) on map mapid: selecting the
// current location deselects it, any other location becomes current and is
// remembered in the map's locations.
func (s *Service) SelectLocation(ctx context.Context, user, mapid, xs, ys string) (*models.Map, error) {
	x, err := coordinate("x", xs)
	if err != nil {
		return nil, err
	}
	y, err := coordinate("y", ys)
	if err != nil {
		return nil, err
	}
	m, err := s.ownedMap(ctx, user, mapid)
	if err != nil {
		return nil, err
	}
	loc, err := s.locationAt(ctx, x, y)
	if err != nil {
		return nil, err
	}

	curr := loc.ID
	if m.CurrLocation == loc.ID {
		curr = ""
	} else if _, err := s.maps.AddToSetOne(ctx, document.ByID(mapid), "locations", loc.ID); err != nil {
		return nil, err
	}
	ack, err := s.maps.UpdateOne(ctx, document.ByID(mapid), document.Update{"currLocation": curr})
	if err != nil {
		return nil, err
	}
	if !ack.Matched() {
		return nil, apperr.NotFound("map", mapid)
	}
	return s.GetMap(ctx, mapid)
}

// DropPin places a pin at the map's current location.
func (s *Service) DropPin(ctx context.Context, user, mapid string) (*models.Pin, error) {
	m, err := s.ownedMap(ctx, user, mapid)
	if err != nil {
		return nil, err
	}
	if m.CurrLocation == "" {
		return nil, apperr.Validation("currLocation", "select a location before dropping a pin")
	}
	id, err := s.pins.CreateOne(ctx, models.Pin{Map: mapid, Location: m.CurrLocation, Owner: user})
	if err != nil {
		return nil, err
	}
	ack, err := s.maps.AddToSetOne(ctx, document.ByID(mapid), "pins", id)
	if err != nil {
		return nil, err
	}
	if !ack.Matched() {
		// the map disappeared in between
		_, _ = s.pins.DeleteOne(ctx, document.ByID(id))
		return nil, apperr.NotFound("map", mapid)
	}
	return s.GetPin(ctx, id)
}

// DeletePin removes pinid from map mapid and deletes the pin.
func (s *Service) DeletePin(ctx context.Context, user, mapid, pinid string) error {
	if _, err := s.ownedMap(ctx, user, mapid); err != nil {
		return err
	}
	p, err := s.GetPin(ctx, pinid)
	if err != nil {
		return err
	}
	if p.Map != mapid {
		return apperr.NotFound("pin", pinid)
	}
	if _, err := s.maps.PullOne(ctx, document.ByID(mapid), "pins", pinid); err != nil {
		return err
	}
	_, err = s.pins.DeleteOne(ctx, document.ByID(pinid))
	return err
}

func coordinate(field, v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperr.Validation(field, "must be a number")
	}
	return f, nil
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}

func dedupe(list []string) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		if !contains(out, e) {
			out = append(out, e)
		}
	}
	return out
}
