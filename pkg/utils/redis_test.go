package utils

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mtaanifix-api/internal/config"
)

func newTestRedisClient(t *testing.T) *RedisClient {
	t.Helper()

	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Redis.URL = "redis://" + mr.Addr()

	client := NewRedisClient(cfg)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestGetSessionMissing(t *testing.T) {
	client := newTestRedisClient(t)

	session, err := client.GetSession(context.Background(), "+254711000000")

	require.Error(t, err)
	assert.Nil(t, session)
	assert.Contains(t, err.Error(), "not found")
}

func TestAppendMessageRoundTrip(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()

	require.NoError(t, client.AppendMessage(ctx, "+254711000000", ConversationEntry{
		Direction: "incoming",
		Content:   "I need a plumber",
	}))
	require.NoError(t, client.AppendMessage(ctx, "+254711000000", ConversationEntry{
		Direction: "outgoing",
		Content:   "Here are your plumbers",
	}))

	session, err := client.GetSession(ctx, "+254711000000")
	require.NoError(t, err)
	require.Len(t, session.Entries, 2)
	assert.Equal(t, "incoming", session.Entries[0].Direction)
	assert.Equal(t, "Here are your plumbers", session.Entries[1].Content)
	assert.False(t, session.UpdatedAt.IsZero())
}

func TestAppendMessageCapsHistory(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, client.AppendMessage(ctx, "+254711000000", ConversationEntry{
			Direction: "incoming",
			Content:   fmt.Sprintf("message %d", i),
		}))
	}

	session, err := client.GetSession(ctx, "+254711000000")
	require.NoError(t, err)
	assert.Len(t, session.Entries, 50)

	// Oldest entries are dropped first
	assert.Equal(t, "message 10", session.Entries[0].Content)
	assert.Equal(t, "message 59", session.Entries[49].Content)
}

func TestSetOfferedCandidates(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetOfferedCandidates(ctx, "+254711000000", []string{"fundi-1", "fundi-2"}))

	session, err := client.GetSession(ctx, "+254711000000")
	require.NoError(t, err)
	assert.Equal(t, []string{"fundi-1", "fundi-2"}, session.OfferedFundiIDs)
}

func TestSessionsAreIsolatedPerPhone(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()

	require.NoError(t, client.AppendMessage(ctx, "+254711000000", ConversationEntry{
		Direction: "incoming",
		Content:   "hello",
	}))

	_, err := client.GetSession(ctx, "+254722000000")
	assert.Error(t, err, "other phone numbers have no session")
}

func TestDeleteSession(t *testing.T) {
	client := newTestRedisClient(t)
	ctx := context.Background()

	require.NoError(t, client.AppendMessage(ctx, "+254711000000", ConversationEntry{
		Direction: "incoming",
		Content:   "hello",
	}))
	require.NoError(t, client.DeleteSession(ctx, "+254711000000"))

	_, err := client.GetSession(ctx, "+254711000000")
	assert.Error(t, err)
}
