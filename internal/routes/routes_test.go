package routes

import (
	"context"
	"testing"

	"github.com/pinpoint/pinpoint/backend/go-services/internal/document/repository"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/sessions"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/storage"
	"github.com/pinpoint/pinpoint/backend/go-services/pkg/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newServices(t *testing.T) *Services {
	t.Helper()
	s := NewServices(repository.NewMemoryOpener(), storage.NewMemoryStorage("test"), bcrypt.MinCost)
	require.NoError(t, s.EnsureIndexes(context.Background()))
	return s
}

func TestTableCompiles(t *testing.T) {
	d, err := router.New(Table(newServices(t)))
	require.NoError(t, err)
	assert.Len(t, d.Routes(), 23)
}

func TestGetUserReturnsFirstMatchOrNil(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	_, err := s.Users.Create(ctx, "alice", "secret1")
	require.NoError(t, err)

	got, err := s.getUser(ctx, router.NewArgs([]router.Param{router.PathParam("username")}, "alice"))
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = s.getUser(ctx, router.NewArgs([]router.Param{router.PathParam("username")}, "nobody"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLogInStartsSession(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u, err := s.Users.Create(ctx, "alice", "secret1")
	require.NoError(t, err)

	sess := sessions.NewService(sessions.NewMemoryRepository(), 0).New()
	params := []router.Param{router.SessionParam(), router.FieldParam("username"), router.FieldParam("password")}

	_, err = s.logIn(ctx, router.NewArgs(params, sess, "alice", "wrong"))
	require.Error(t, err)
	assert.False(t, sess.IsAuthenticated())

	_, err = s.logIn(ctx, router.NewArgs(params, sess, "alice", "secret1"))
	require.NoError(t, err)
	uid, err := sessions.RequireAuthenticated(sess)
	require.NoError(t, err)
	assert.Equal(t, u.ID, uid)

	_, err = s.logOut(ctx, router.NewArgs([]router.Param{router.SessionParam()}, sess))
	require.NoError(t, err)
	assert.False(t, sess.IsAuthenticated())
}
