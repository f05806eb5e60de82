package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresPresenceRepository_Upsert(t *testing.T) {
	pool := getTestPool(t)
	repo := NewPostgresPresenceRepository(pool)
	ctx := context.Background()

	accountID := createTestAccount(t, ctx, pool, models.DefaultPrivacy())

	// No record yet reads as offline with unknown last seen.
	presence, err := repo.GetPresence(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffline, presence.Status)
	assert.True(t, presence.LastSeen.IsZero())

	require.NoError(t, repo.SetStatus(ctx, accountID, models.StatusOnline))
	first, err := repo.GetPresence(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, first.Status)
	assert.False(t, first.LastSeen.IsZero())

	require.NoError(t, repo.SetStatus(ctx, accountID, models.StatusOffline))
	second, err := repo.GetPresence(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffline, second.Status)
	assert.False(t, second.LastSeen.Before(first.LastSeen))
}

func TestRedisPresenceRepository_SetStatus(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisPresenceRepository(client, 0)
	ctx := context.Background()
	defer cleanupTestSessions(t, client, ctx)

	accountID := uuid.New()

	require.NoError(t, repo.SetStatus(ctx, accountID, models.StatusOnline))

	presence, err := repo.GetPresence(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOnline, presence.Status)
	assert.Equal(t, accountID, presence.AccountID)
	assert.WithinDuration(t, time.Now(), presence.LastSeen, time.Minute)

	ttl, err := client.TTL(ctx, presenceKey(accountID)).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "Zero ttl should keep the key")
}

func TestRedisPresenceRepository_Expires(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisPresenceRepository(client, time.Second)
	ctx := context.Background()
	defer cleanupTestSessions(t, client, ctx)

	accountID := uuid.New()
	require.NoError(t, repo.SetStatus(ctx, accountID, models.StatusOnline))

	time.Sleep(2 * time.Second)

	presence, err := repo.GetPresence(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOffline, presence.Status)
}
