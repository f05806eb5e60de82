package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/prudhvinik1/chatline/internal/observability"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(accountID uuid.UUID, id string, ttl time.Duration) *models.Session {
	return &models.Session{
		ID:        id,
		AccountID: accountID,
		DeviceID:  uuid.New(),
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
}

// TestSessionRepository_Create tests creating a session with TTL
func TestSessionRepository_Create(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client, observability.Discard())
	ctx := context.Background()
	defer cleanupTestSessions(t, client, ctx)

	accountID := uuid.New()

	// ACT: Create a session
	err := repo.Create(ctx, newSession(accountID, "session-123", 24*time.Hour))

	// ASSERT: Should succeed
	require.NoError(t, err)

	retrieved, err := repo.GetByID(ctx, "session-123")
	require.NoError(t, err)
	assert.Equal(t, accountID, retrieved.AccountID)

	sessions, err := repo.ListByAccountID(ctx, accountID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1, "Account should have 1 session")
}

// TestSessionRepository_Expiration tests lazy cleanup of the account index
func TestSessionRepository_Expiration(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client, observability.Discard())
	ctx := context.Background()
	defer cleanupTestSessions(t, client, ctx)

	accountID := uuid.New()
	require.NoError(t, repo.Create(ctx, newSession(accountID, "expired-session", time.Second)))
	require.NoError(t, repo.Create(ctx, newSession(accountID, "valid-session", 24*time.Hour)))

	time.Sleep(2 * time.Second)

	sessions, err := repo.ListByAccountID(ctx, accountID)
	require.NoError(t, err)
	require.Len(t, sessions, 1, "Should only have 1 valid session")
	assert.Equal(t, "valid-session", sessions[0].ID)

	members, err := client.SMembers(ctx, accountSessionsKey(accountID)).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"valid-session"}, members, "Expired id should be pruned from the index")
}

func TestSessionRepository_DeleteAllForAccount(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client, observability.Discard())
	ctx := context.Background()
	defer cleanupTestSessions(t, client, ctx)

	accountID := uuid.New()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, newSession(accountID, uuid.NewString(), time.Hour)))
	}

	// ACT: Delete all sessions for account
	require.NoError(t, repo.DeleteAllForAccount(ctx, accountID))

	sessions, err := repo.ListByAccountID(ctx, accountID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionRepository_Delete_Missing(t *testing.T) {
	client := getTestRedisClient(t)
	repo := NewRedisSessionRepository(client, observability.Discard())

	err := repo.Delete(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

// cleanupTestSessions removes test data
func cleanupTestSessions(t *testing.T, client *redis.Client, ctx context.Context) {
	for _, pattern := range []string{"session:*", "account:*:sessions", "presence:*"} {
		keys, err := client.Keys(ctx, pattern).Result()
		if err != nil {
			t.Logf("Warning: failed to get keys: %v", err)
			continue
		}
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
}
