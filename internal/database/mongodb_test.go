package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectWithRetryRejectsBadURI(t *testing.T) {
	start := time.Now()
	_, err := ConnectWithRetry(context.Background(), "notmongo://localhost", time.Second, 2, 10*time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "2 attempts")
	require.Less(t, time.Since(start), 5*time.Second)
}

func TestConnectWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ConnectWithRetry(ctx, "notmongo://localhost", time.Second, 5, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

// Runs against a real server only when MONGODB_TEST_URI is set.
func TestConnectMongo(t *testing.T) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	client, err := ConnectMongo(context.Background(), uri, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, client.Disconnect(context.Background()))
}
