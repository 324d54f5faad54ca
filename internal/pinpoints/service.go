// Package pinpoints attaches captioned media to pins.
package pinpoints

import (
	"context"
	"errors"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/store"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/models"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/storage"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/validation"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
)

const CollectionName = "pinpoints"

// PinFinder resolves pins; it fails with a NotFound error for unknown ids.
type PinFinder interface {
	GetPin(ctx context.Context, id string) (*models.Pin, error)
}

type Service struct {
	pinpoints *store.Collection[models.PinPoint]
	pins      PinFinder
	media     storage.MediaStore
}

func NewService(pinpoints *store.Collection[models.PinPoint], pins PinFinder, media storage.MediaStore) *Service {
	return &Service{pinpoints: pinpoints, pins: pins, media: media}
}

// ByUser lists user's pinpoints, most recently updated first.
func (s *Service) ByUser(ctx context.Context, user string) ([]models.PinPoint, error) {
	return s.pinpoints.ReadMany(ctx, document.Filter{"user": user}, nil)
}

func (s *Service) Get(ctx context.Context, id string) (*models.PinPoint, error) {
	p, err := s.pinpoints.ReadOne(ctx, document.ByID(id))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("pinpoint", id)
	}
	return p, nil
}

func (s *Service) owned(ctx context.Context, user, id string) (*models.PinPoint, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.User != user {
		return nil, apperr.Authorization("you did not post this pinpoint")
	}
	return p, nil
}

// Create posts content with caption on pin. Content naming uploaded media must
// have been uploaded by user; anything else is stored as given.
func (s *Service) Create(ctx context.Context, user, pin, content, caption string) (*models.PinPoint, error) {
	if err := validation.Var("caption", caption, "max=500"); err != nil {
		return nil, err
	}
	if err := validation.Var("content", content, "required,max=2048"); err != nil {
		return nil, err
	}
	if _, err := s.pins.GetPin(ctx, pin); err != nil {
		return nil, err
	}
	if storage.IsObjectKey(content) {
		ok, err := s.media.Exists(ctx, storage.ObjectName(user, content))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Validation("content", "no uploaded media with this key")
		}
	}
	id, err := s.pinpoints.CreateOne(ctx, models.PinPoint{Pin: pin, User: user, Caption: caption, Media: content})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) EditCaption(ctx context.Context, user, id, caption string) (*models.PinPoint, error) {
	if err := validation.Var("caption", caption, "max=500"); err != nil {
		return nil, err
	}
	if _, err := s.owned(ctx, user, id); err != nil {
		return nil, err
	}
	ack, err := s.pinpoints.UpdateOne(ctx, document.ByID(id), document.Update{"caption": caption})
	if err != nil {
		return nil, err
	}
	if !ack.Matched() {
		return nil, apperr.NotFound("pinpoint", id)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, user, id string) error {
	if _, err := s.owned(ctx, user, id); err != nil {
		return err
	}
	ack, err := s.pinpoints.DeleteOne(ctx, document.ByID(id))
	if err != nil {
		return err
	}
	if !ack.Matched() {
		return apperr.NotFound("pinpoint", id)
	}
	return nil
}

// MediaURL returns where the pinpoint's media can be fetched: a time-limited
// download URL for uploaded media, the stored content otherwise.
func (s *Service) MediaURL(ctx context.Context, id string) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !storage.IsObjectKey(p.Media) {
		return p.Media, nil
	}
	u, err := s.media.URL(ctx, storage.ObjectName(p.User, p.Media))
	if errors.Is(err, storage.ErrObjectNotFound) {
		return "", apperr.NotFound("media", p.Media)
	}
	return u, err
}
