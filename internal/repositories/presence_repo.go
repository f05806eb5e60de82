package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/chatline/internal/models"
	"github.com/redis/go-redis/v9"
)

const presenceKeyPrefix = "presence:"

// offlinePresence is what an account without a record reports.
func offlinePresence(accountID uuid.UUID) *models.Presence {
	return &models.Presence{
		AccountID: accountID,
		Status:    models.StatusOffline,
		LastSeen:  time.Time{}, // Zero time indicates unknown
	}
}

type PostgresPresenceRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPresenceRepository(pool *pgxpool.Pool) *PostgresPresenceRepository {
	return &PostgresPresenceRepository{pool: pool}
}

func (r *PostgresPresenceRepository) SetStatus(ctx context.Context, accountID uuid.UUID, status models.PresenceStatus) error {
	query := `INSERT INTO presence (account_id, status, last_seen)
	          VALUES ($1, $2, NOW())
	          ON CONFLICT (account_id) DO UPDATE
	          SET status = EXCLUDED.status, last_seen = EXCLUDED.last_seen`

	if _, err := r.pool.Exec(ctx, query, accountID, string(status)); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (r *PostgresPresenceRepository) GetPresence(ctx context.Context, accountID uuid.UUID) (*models.Presence, error) {
	query := `SELECT account_id, status, last_seen FROM presence WHERE account_id = $1`

	var (
		presence models.Presence
		status   string
	)
	err := r.pool.QueryRow(ctx, query, accountID).Scan(&presence.AccountID, &status, &presence.LastSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		return offlinePresence(accountID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}
	presence.Status = models.PresenceStatus(status)
	return &presence, nil
}

type RedisPresenceRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPresenceRepository stores presence under presence:{account}. A
// zero ttl keeps records until overwritten.
func NewRedisPresenceRepository(client *redis.Client, ttl time.Duration) *RedisPresenceRepository {
	return &RedisPresenceRepository{client: client, ttl: ttl}
}

// SetStatus stamps LastSeen with the redis server clock, not the local one.
func (r *RedisPresenceRepository) SetStatus(ctx context.Context, accountID uuid.UUID, status models.PresenceStatus) error {
	now, err := r.client.Time(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to read server time: %w", err)
	}

	data, err := json.Marshal(&models.Presence{
		AccountID: accountID,
		Status:    status,
		LastSeen:  now.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal presence: %w", err)
	}

	if err := r.client.Set(ctx, presenceKey(accountID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

func (r *RedisPresenceRepository) GetPresence(ctx context.Context, accountID uuid.UUID) (*models.Presence, error) {
	data, err := r.client.Get(ctx, presenceKey(accountID)).Result()
	if err == redis.Nil {
		// No presence = account is offline
		return offlinePresence(accountID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	var presence models.Presence
	if err := json.Unmarshal([]byte(data), &presence); err != nil {
		return nil, fmt.Errorf("failed to unmarshal presence: %w", err)
	}
	return &presence, nil
}

// Helper: build Redis key for presence
func presenceKey(accountID uuid.UUID) string {
	return presenceKeyPrefix + accountID.String()
}
