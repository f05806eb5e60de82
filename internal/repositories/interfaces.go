package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/prudhvinik1/chatline/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}

type DeviceRepository interface {
	Create(ctx context.Context, device *models.Device) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Device, error)
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Device, error)
	Touch(ctx context.Context, id uuid.UUID) error
	Revoke(ctx context.Context, id uuid.UUID) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id string) (*models.Session, error)
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteAllForAccount(ctx context.Context, accountID uuid.UUID) error
}

// ProfileRepository is the profile document store. UpdateEditable merges
// display name, bio and privacy into an existing profile and returns
// ErrNotFound when there is none.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*models.Profile, error)
	UpdateEditable(ctx context.Context, accountID uuid.UUID, edit models.ProfileEdit) error
	SetPhotoURL(ctx context.Context, accountID uuid.UUID, url string) error
}

type ContactRepository interface {
	Exists(ctx context.Context, ownerID, memberID uuid.UUID) (bool, error)
	Add(ctx context.Context, ownerID, memberID uuid.UUID) error
	Remove(ctx context.Context, ownerID, memberID uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Contact, error)
}

// PresenceRepository stores one presence record per account. SetStatus
// upserts and stamps LastSeen with the store's clock.
type PresenceRepository interface {
	SetStatus(ctx context.Context, accountID uuid.UUID, status models.PresenceStatus) error
	GetPresence(ctx context.Context, accountID uuid.UUID) (*models.Presence, error)
}
