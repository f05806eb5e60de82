package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/chatline/internal/models"
)

type PostgresContactRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresContactRepository(pool *pgxpool.Pool) *PostgresContactRepository {
	return &PostgresContactRepository{pool: pool}
}

func (r *PostgresContactRepository) Exists(ctx context.Context, ownerID, memberID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM contacts WHERE owner_id = $1 AND member_id = $2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, ownerID, memberID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check contact: %w", err)
	}
	return exists, nil
}

// Add is a no-op when the edge already exists.
func (r *PostgresContactRepository) Add(ctx context.Context, ownerID, memberID uuid.UUID) error {
	query := `INSERT INTO contacts (owner_id, member_id) VALUES ($1, $2)
	          ON CONFLICT (owner_id, member_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, ownerID, memberID); err != nil {
		return fmt.Errorf("failed to add contact: %w", err)
	}
	return nil
}

func (r *PostgresContactRepository) Remove(ctx context.Context, ownerID, memberID uuid.UUID) error {
	query := `DELETE FROM contacts WHERE owner_id = $1 AND member_id = $2`

	result, err := r.pool.Exec(ctx, query, ownerID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresContactRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Contact, error) {
	query := `SELECT owner_id, member_id, created_at
	          FROM contacts
	          WHERE owner_id = $1
	          ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.OwnerID, &c.MemberID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contacts: %w", err)
	}
	return contacts, nil
}
