package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/tokens"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/logger"
)

// SessionCookie describes the cookie that carries the signed session id.
type SessionCookie struct {
	Name   string
	Secret string
	TTL    time.Duration
	Secure bool
}

// SessionMiddleware attaches a *sessions.Session to every request. The session
// id travels in a signed cookie; a fresh anonymous session (and cookie) is
// issued when the cookie is missing, expired or forged. Pending Start/End
// changes are persisted after the handler chain unless something committed
// them earlier.
func SessionMiddleware(svc *sessions.Service, cookie SessionCookie) gin.HandlerFunc {
	if cookie.TTL <= 0 {
		cookie.TTL = svc.TTL()
	}
	return func(c *gin.Context) {
		var sess *sessions.Session
		if raw, err := c.Cookie(cookie.Name); err == nil && raw != "" {
			if sid, err := tokens.ParseSessionToken(cookie.Secret, raw); err == nil {
				s, err := svc.Load(c.Request.Context(), sid)
				if err != nil {
					logger.Errorf("session load failed: %v", err)
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
					return
				}
				sess = s
			}
		}
		if sess == nil {
			sess = svc.New()
			if err := cookie.issue(c, sess); err != nil {
				logger.Errorf("session token signing failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "session unavailable"})
				return
			}
		}

		c.Set(sessions.ContextKey, sess)
		c.Next()

		if err := commit(c, svc, cookie, sess); err != nil {
			logger.Errorf("session persist failed: %v", err)
		}
	}
}

// CommitSession persists the request's pending session changes. It is meant
// to run before the response is written so a client never observes a login
// that is not stored yet, and so the re-signed cookie reaches the client.
func CommitSession(svc *sessions.Service, cookie SessionCookie) func(c *gin.Context) error {
	if cookie.TTL <= 0 {
		cookie.TTL = svc.TTL()
	}
	return func(c *gin.Context) error {
		sess, ok := sessions.FromContext(c)
		if !ok {
			return nil
		}
		return commit(c, svc, cookie, sess)
	}
}

// commit persists a dirty session. An authenticated session gets a cookie
// carrying its current id and a fresh expiry.
func commit(c *gin.Context, svc *sessions.Service, cookie SessionCookie, sess *sessions.Session) error {
	if !sess.Dirty() {
		return nil
	}
	if err := svc.Persist(c.Request.Context(), sess); err != nil {
		return err
	}
	if !sess.IsAuthenticated() {
		return nil
	}
	return cookie.issue(c, sess)
}

func (sc SessionCookie) issue(c *gin.Context, sess *sessions.Session) error {
	token, err := tokens.GenerateSessionToken(sc.Secret, sess.ID, sc.TTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, token, int(sc.TTL.Seconds()), "/", "", sc.Secure, true)
	return nil
}
