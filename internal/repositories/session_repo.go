package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"
const accountSessionsPrefix = "account:%s:sessions"

type RedisSessionRepository struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisSessionRepository(client *redis.Client, logger *slog.Logger) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, logger: logger}
}

func (r *RedisSessionRepository) Create(ctx context.Context, session *models.Session) error {
	jsonData, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("failed to set session: already expired")
	}

	// Session key and account index go in together.
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), jsonData, ttl)
	pipe.SAdd(ctx, accountSessionsKey(session.AccountID), session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	jsonData, err := r.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(jsonData), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// ListByAccountID returns live sessions and prunes index entries whose
// session key has expired.
func (r *RedisSessionRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Session, error) {
	accountKey := accountSessionsKey(accountID)
	sessionIDs, err := r.client.SMembers(ctx, accountKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get account sessions: %w", err)
	}

	var sessions []*models.Session
	var expiredIDs []any

	for _, id := range sessionIDs {
		session, err := r.GetByID(ctx, id)
		if err == ErrNotFound {
			expiredIDs = append(expiredIDs, id)
			continue
		}
		if err != nil {
			r.logger.Warn("skipping unreadable session", "session_id", id, "error", err)
			continue
		}
		sessions = append(sessions, session)
	}

	if len(expiredIDs) > 0 {
		if err := r.client.SRem(ctx, accountKey, expiredIDs...).Err(); err != nil {
			return nil, fmt.Errorf("failed to remove expired sessions: %w", err)
		}
	}
	return sessions, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	session, err := r.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, accountSessionsKey(session.AccountID), id)
	pipe.Del(ctx, sessionKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *RedisSessionRepository) DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) error {
	sessionIDs, err := r.client.SMembers(ctx, accountSessionsKey(accountID)).Result()
	if err != nil {
		return fmt.Errorf("failed to get account sessions: %w", err)
	}
	for _, id := range sessionIDs {
		if err := r.Delete(ctx, id); err != nil {
			r.logger.Warn("failed to delete session", "session_id", id, "error", err)
			continue
		}
	}
	// Drop index entries left by sessions that had already expired.
	if err := r.client.Del(ctx, accountSessionsKey(accountID)).Err(); err != nil {
		return fmt.Errorf("failed to clear account sessions: %w", err)
	}
	return nil
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func accountSessionsKey(accountID uuid.UUID) string {
	return fmt.Sprintf(accountSessionsPrefix, accountID)
}
