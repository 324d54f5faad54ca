package sessions

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/apperr"
)

// Session is the per-client authentication state: anonymous, or bound to one
// user id. It is only changed through Start and End.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`

	dirty  bool
	rotate bool
}

// Start binds userID to the session. Authenticating again replaces the bound
// user. The session gets a new id when it is persisted.
func Start(s *Session, userID string) {
	s.UserID = userID
	s.dirty = true
	s.rotate = true
}

// End returns the session to anonymous. Ending an anonymous session is a no-op.
func End(s *Session) {
	if s.UserID == "" {
		return
	}
	s.UserID = ""
	s.dirty = true
}

// RequireAuthenticated returns the bound user id or an Authentication error.
func RequireAuthenticated(s *Session) (string, error) {
	if s == nil || s.UserID == "" {
		return "", apperr.Authentication("you must be logged in")
	}
	return s.UserID, nil
}

// RequireAnonymous fails when a user is already bound.
func RequireAnonymous(s *Session) error {
	if s != nil && s.UserID != "" {
		return apperr.AlreadyLoggedIn()
	}
	return nil
}

func (s *Session) IsAuthenticated() bool { return s != nil && s.UserID != "" }

// Dirty reports whether Start or End changed the session since it was loaded.
func (s *Session) Dirty() bool { return s.dirty }

// ContextKey is where the session middleware stores the *Session on the gin context.
const ContextKey = "session"

// FromContext returns the request's session, if the middleware set one.
func FromContext(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(ContextKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok && s != nil
}
