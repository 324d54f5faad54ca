// Package collections implements named pin collections shared between users.
package collections

import (
	"context"
	"errors"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/store"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/models"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/validation"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
)

const CollectionName = "collections"

var errNameTaken = apperr.Validation("name", "you already have a collection with this name")

type PinFinder interface {
	GetPin(ctx context.Context, id string) (*models.Pin, error)
}

type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service scopes every collection lookup to the collections the calling user
// is a member of. Names are unique per owner; when a member sees two
// collections with the same name, their own one wins.
type Service struct {
	collections *store.Collection[models.Collection]
	pins        PinFinder
	users       UserFinder
}

func NewService(collections *store.Collection[models.Collection], pins PinFinder, users UserFinder) *Service {
	return &Service{collections: collections, pins: pins, users: users}
}

// EnsureIndexes makes (owner, name) unique at the engine level.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	return s.collections.EnsureUniqueIndex(ctx, "owner", "name")
}

func (s *Service) ForUser(ctx context.Context, user string) ([]models.Collection, error) {
	return s.collections.ReadMany(ctx, document.Filter{"users": user}, nil)
}

func (s *Service) Get(ctx context.Context, user, name string) (*models.Collection, error) {
	c, err := s.collections.ReadOne(ctx, document.Filter{"owner": user, "name": name})
	if err != nil {
		return nil, err
	}
	if c == nil {
		c, err = s.collections.ReadOne(ctx, document.Filter{"users": user, "name": name})
		if err != nil {
			return nil, err
		}
	}
	if c == nil {
		return nil, apperr.NotFound("collection", name)
	}
	return c, nil
}

func (s *Service) owned(ctx context.Context, user, name string) (*models.Collection, error) {
	c, err := s.Get(ctx, user, name)
	if err != nil {
		return nil, err
	}
	if c.Owner != user {
		return nil, apperr.Authorization("only the owner can do this")
	}
	return c, nil
}

// Create makes an empty collection owned by user, who is its first member.
func (s *Service) Create(ctx context.Context, user, name string) (*models.Collection, error) {
	if err := validation.Var("name", name, "required,max=128"); err != nil {
		return nil, err
	}
	existing, err := s.collections.ReadOne(ctx, document.Filter{"owner": user, "name": name})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errNameTaken
	}
	id, err := s.collections.CreateOne(ctx, models.Collection{
		Name:  name,
		Owner: user,
		Users: []string{user},
		Pins:  []string{},
	})
	if errors.Is(err, document.ErrDuplicateKey) {
		// lost a race with a concurrent Create
		return nil, errNameTaken
	}
	if err != nil {
		return nil, err
	}
	c, err := s.collections.ReadOne(ctx, document.ByID(id))
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("collection", name)
	}
	return c, nil
}

// AddPin adds an existing pin. Any member may add pins.
func (s *Service) AddPin(ctx context.Context, user, name, pinid string) (*models.Collection, error) {
	c, err := s.Get(ctx, user, name)
	if err != nil {
		return nil, err
	}
	if _, err := s.pins.GetPin(ctx, pinid); err != nil {
		return nil, err
	}
	return s.change(ctx, c, func(f document.Filter) (document.Ack, error) {
		return s.collections.AddToSetOne(ctx, f, "pins", pinid)
	})
}

// RemovePin drops pinid from the collection. Any member may remove pins.
func (s *Service) RemovePin(ctx context.Context, user, name, pinid string) (*models.Collection, error) {
	c, err := s.Get(ctx, user, name)
	if err != nil {
		return nil, err
	}
	if !contains(c.Pins, pinid) {
		return nil, apperr.NotFound("pin", pinid)
	}
	return s.change(ctx, c, func(f document.Filter) (document.Ack, error) {
		return s.collections.PullOne(ctx, f, "pins", pinid)
	})
}

// AddUser shares the collection with username. Only the owner may share.
func (s *Service) AddUser(ctx context.Context, user, name, username string) (*models.Collection, error) {
	c, err := s.owned(ctx, user, name)
	if err != nil {
		return nil, err
	}
	member, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.change(ctx, c, func(f document.Filter) (document.Ack, error) {
		return s.collections.AddToSetOne(ctx, f, "users", member.ID)
	})
}

// Delete removes the collection. Only the owner may delete it.
func (s *Service) Delete(ctx context.Context, user, name string) error {
	c, err := s.owned(ctx, user, name)
	if err != nil {
		return err
	}
	ack, err := s.collections.DeleteOne(ctx, document.ByID(c.ID))
	if err != nil {
		return err
	}
	if !ack.Matched() {
		return apperr.NotFound("collection", name)
	}
	return nil
}

// change applies one atomic array update to c and returns the result.
func (s *Service) change(ctx context.Context, c *models.Collection, apply func(document.Filter) (document.Ack, error)) (*models.Collection, error) {
	ack, err := apply(document.ByID(c.ID))
	if err != nil {
		return nil, err
	}
	if !ack.Matched() {
		return nil, apperr.NotFound("collection", c.Name)
	}
	updated, err := s.collections.ReadOne(ctx, document.ByID(c.ID))
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperr.NotFound("collection", c.Name)
	}
	return updated, nil
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
