package users

import (
	"context"
	"errors"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/store"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/models"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/validation"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
	"golang.org/x/crypto/bcrypt"
)

// CollectionName is the document collection holding users.
const CollectionName = "users"

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum"`
	// bcrypt only looks at the first 72 bytes
	Password string `json:"password" validate:"required,max=72"`
}

// Service encapsulates user-related business logic
type Service struct {
	users *store.Collection[models.User]
	cost  int
}

func NewService(users *store.Collection[models.User], bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{users: users, cost: bcryptCost}
}

// EnsureIndexes makes usernames unique at the engine level.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	return s.users.EnsureUniqueIndex(ctx, "username")
}

// Create registers a new account with a hashed password.
func (s *Service) Create(ctx context.Context, username, password string) (*models.User, error) {
	if err := validation.Struct(credentials{Username: username, Password: password}); err != nil {
		return nil, err
	}
	existing, err := s.users.ReadOne(ctx, document.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("username", "is already taken")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, err
	}
	id, err := s.users.CreateOne(ctx, models.User{Username: username, Password: string(hash)})
	if errors.Is(err, document.ErrDuplicateKey) {
		return nil, apperr.Validation("username", "is already taken")
	}
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// List returns every user, or only the one named username when it is set.
func (s *Service) List(ctx context.Context, username string) ([]models.User, error) {
	filter := document.Filter{}
	if username != "" {
		filter["username"] = username
	}
	return s.users.ReadMany(ctx, filter, nil)
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.users.ReadOne(ctx, document.ByID(id))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user", id)
	}
	return u, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := s.users.ReadOne(ctx, document.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user", username)
	}
	return u, nil
}

// Update changes the username and/or password of user id. Any other key in
// update is rejected.
func (s *Service) Update(ctx context.Context, id string, update map[string]any) (*models.User, error) {
	if len(update) == 0 {
		return nil, apperr.Validation("update", "must change username or password")
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	next := credentials{Username: current.Username, Password: "unchanged"}
	set := document.Update{}
	for k, v := range update {
		str, ok := v.(string)
		switch {
		case k != "username" && k != "password":
			return nil, apperr.Validation(k, "cannot be updated")
		case !ok:
			return nil, apperr.Validation(k, "must be a string")
		case k == "username":
			next.Username = str
		default:
			next.Password = str
		}
	}
	if err := validation.Struct(next); err != nil {
		return nil, err
	}
	if next.Username != current.Username {
		taken, err := s.users.ReadOne(ctx, document.Filter{"username": next.Username})
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, apperr.Validation("username", "is already taken")
		}
		set["username"] = next.Username
	}
	if _, ok := update["password"]; ok {
		hash, err := bcrypt.GenerateFromPassword([]byte(next.Password), s.cost)
		if err != nil {
			return nil, err
		}
		set["password"] = string(hash)
	}
	ack, err := s.users.UpdateOne(ctx, document.ByID(id), set)
	if errors.Is(err, document.ErrDuplicateKey) {
		return nil, apperr.Validation("username", "is already taken")
	}
	if err != nil {
		return nil, err
	}
	if !ack.Matched() {
		return nil, apperr.NotFound("user", id)
	}
	return s.GetByID(ctx, id)
}

// Authenticate returns the user whose credentials match. Unknown users and
// wrong passwords fail the same way.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.users.ReadOne(ctx, document.Filter{"username": username})
	if err != nil {
		return nil, err
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apperr.Authentication("username or password is incorrect")
	}
	return u, nil
}
