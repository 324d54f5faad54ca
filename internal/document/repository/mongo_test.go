package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/database"
	"github.com/pinpoint/pinpoint/backend/go-services/internal/document"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// Runs against a real server only when MONGODB_TEST_URI is set.
func TestMongoEngineCRUD(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, uri, 5*time.Second)
	require.NoError(t, err)
	defer func() { _ = client.Disconnect(ctx) }()

	col := client.Database("pinpoint_test").Collection("engine_" + uuid.NewString())
	defer func() { _ = col.Drop(ctx) }()
	e := NewMongoEngine(col)

	require.NoError(t, e.EnsureIndex(ctx, true, "name"))
	require.NoError(t, e.InsertOne(ctx, bson.M{"_id": "c1", "name": "trips", "users": []string{"u1"}}))
	require.ErrorIs(t, e.InsertOne(ctx, bson.M{"_id": "c2", "name": "trips"}), document.ErrDuplicateKey)

	raw, err := e.FindOne(ctx, document.Filter{"users": "u1"})
	require.NoError(t, err)
	require.NotNil(t, raw)

	ack, err := e.UpdateOne(ctx, document.ByID("c1"), bson.M{"$addToSet": bson.M{"users": "u2"}})
	require.NoError(t, err)
	require.True(t, ack.Matched())

	got, err := e.Find(ctx, document.Filter{"users": "u2"}, document.FindOptions{Sort: bson.D{{Key: "name", Value: 1}}})
	require.NoError(t, err)
	require.Len(t, got, 1)

	ack, err = e.DeleteOne(ctx, document.ByID("c1"))
	require.NoError(t, err)
	require.True(t, ack.Matched())

	raw, err = e.FindOne(ctx, document.ByID("c1"))
	require.NoError(t, err)
	require.Nil(t, raw)
}
