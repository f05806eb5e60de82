package models

import (
	"time"

	"github.com/google/uuid"
)

type ProfileVisibility string

const (
	VisibilityPublic   ProfileVisibility = "public"
	VisibilityContacts ProfileVisibility = "contacts"
	VisibilityPrivate  ProfileVisibility = "private"
)

func (v ProfileVisibility) IsValid() bool {
	switch v {
	case VisibilityPublic, VisibilityContacts, VisibilityPrivate:
		return true
	default:
		return false
	}
}

// PrivacySettings is the subject-owned access policy of a profile.
// ProfileVisibility may be empty for rows written before the column existed.
type PrivacySettings struct {
	ProfileVisibility ProfileVisibility `json:"profileVisibility"`
	ShowLastSeen      bool              `json:"showLastSeen"`
	ShowStatus        bool              `json:"showStatus"`
}

// DefaultPrivacy is used to seed an edit buffer when a profile has no settings.
func DefaultPrivacy() PrivacySettings {
	return PrivacySettings{
		ProfileVisibility: VisibilityPublic,
		ShowLastSeen:      true,
		ShowStatus:        true,
	}
}

type ProfileStats struct {
	Posts     int64 `json:"posts"`
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

type Profile struct {
	AccountID   uuid.UUID       `json:"id"`
	DisplayName string          `json:"displayName"`
	PhotoURL    string          `json:"photoURL"`
	Bio         string          `json:"bio"`
	Privacy     PrivacySettings `json:"privacy"`
	Stats       ProfileStats    `json:"stats"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// ProfileEdit holds the fields a save is allowed to overwrite.
type ProfileEdit struct {
	DisplayName string          `json:"displayName"`
	Bio         string          `json:"bio"`
	Privacy     PrivacySettings `json:"privacy"`
}
