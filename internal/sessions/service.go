package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service wraps repository operations with the session lifecycle
type Service struct {
	repo Repository
	ttl  time.Duration
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{repo: r, ttl: ttl}
}

// New returns a fresh anonymous session. It is not stored until it becomes authenticated.
func (s *Service) New() *Session {
	now := time.Now().UTC()
	return &Session{ID: uuid.NewString(), CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
}

// Load returns the stored session with the given id, or an anonymous session
// that keeps the id when nothing is stored (for example after logout).
func (s *Service) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return s.New(), nil
	}
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		now := time.Now().UTC()
		return &Session{ID: id, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}, nil
	}
	return sess, nil
}

// Persist writes pending Start/End changes: authenticated sessions are saved
// with a refreshed expiry, ended ones are deleted. Clean sessions are left alone.
// A session that was just started is saved under a new id and its previous id
// is forgotten, so an id handed out before login never becomes authenticated.
func (s *Service) Persist(ctx context.Context, sess *Session) error {
	if sess == nil || !sess.dirty {
		return nil
	}
	if sess.UserID == "" {
		if err := s.repo.Delete(ctx, sess.ID); err != nil {
			return err
		}
		sess.dirty = false
		return nil
	}
	oldID := sess.ID
	if sess.rotate {
		sess.ID = uuid.NewString()
	}
	sess.ExpiresAt = time.Now().UTC().Add(s.ttl)
	if err := s.repo.Save(ctx, sess); err != nil {
		sess.ID = oldID
		return err
	}
	if sess.rotate {
		if err := s.repo.Delete(ctx, oldID); err != nil {
			return err
		}
		sess.rotate = false
	}
	sess.dirty = false
	return nil
}

func (s *Service) TTL() time.Duration { return s.ttl }
