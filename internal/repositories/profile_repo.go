package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/chatline/internal/models"
)

type PostgresProfileRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresProfileRepository(pool *pgxpool.Pool) *PostgresProfileRepository {
	return &PostgresProfileRepository{pool: pool}
}

func (r *PostgresProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `INSERT INTO profiles (account_id, display_name, photo_url, bio, visibility, show_last_seen, show_status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		profile.AccountID,
		profile.DisplayName,
		profile.PhotoURL,
		profile.Bio,
		string(profile.Privacy.ProfileVisibility),
		profile.Privacy.ShowLastSeen,
		profile.Privacy.ShowStatus,
	).Scan(&profile.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *PostgresProfileRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Profile, error) {
	query := `SELECT account_id, display_name, photo_url, bio, visibility, show_last_seen, show_status,
	                 posts, followers, following, created_at, updated_at
	          FROM profiles
	          WHERE account_id = $1`

	var (
		profile    models.Profile
		visibility string
	)
	err := r.pool.QueryRow(ctx, query, accountID).Scan(
		&profile.AccountID,
		&profile.DisplayName,
		&profile.PhotoURL,
		&profile.Bio,
		&visibility,
		&profile.Privacy.ShowLastSeen,
		&profile.Privacy.ShowStatus,
		&profile.Stats.Posts,
		&profile.Stats.Followers,
		&profile.Stats.Following,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	profile.Privacy.ProfileVisibility = models.ProfileVisibility(visibility)
	return &profile, nil
}

// UpdateEditable overwrites display name, bio and privacy. Stats and photo
// are left alone.
func (r *PostgresProfileRepository) UpdateEditable(ctx context.Context, accountID uuid.UUID, edit models.ProfileEdit) error {
	query := `UPDATE profiles
	          SET display_name = $1, bio = $2, visibility = $3, show_last_seen = $4, show_status = $5, updated_at = NOW()
	          WHERE account_id = $6`

	result, err := r.pool.Exec(ctx, query,
		edit.DisplayName,
		edit.Bio,
		string(edit.Privacy.ProfileVisibility),
		edit.Privacy.ShowLastSeen,
		edit.Privacy.ShowStatus,
		accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresProfileRepository) SetPhotoURL(ctx context.Context, accountID uuid.UUID, url string) error {
	query := `UPDATE profiles SET photo_url = $1, updated_at = NOW() WHERE account_id = $2`

	result, err := r.pool.Exec(ctx, query, url, accountID)
	if err != nil {
		return fmt.Errorf("failed to set profile photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
