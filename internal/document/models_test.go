package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClockStrictlyIncreasing(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	c := NewClock(func() time.Time { return fixed })

	first := c.Now()
	require.Equal(t, fixed.Truncate(time.Millisecond), first)

	second := c.Now()
	require.True(t, second.After(first))
	require.Equal(t, time.Millisecond, second.Sub(first))
}

func TestClockFollowsWallTime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewClock(func() time.Time { return now })
	a := c.Now()
	now = now.Add(time.Second)
	b := c.Now()
	require.Equal(t, time.Second, b.Sub(a))
}

func TestAckMatched(t *testing.T) {
	require.False(t, Ack{}.Matched())
	require.True(t, Ack{MatchedCount: 1}.Matched())
	require.True(t, Ack{DeletedCount: 1}.Matched())
}
