package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is a signed-in client. The token handed out at login carries its ID.
type Session struct {
	ID        string    `json:"id"`
	AccountID uuid.UUID `json:"account_id"`
	DeviceID  uuid.UUID `json:"device_id"`
	UserAgent string    `json:"user_agent,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
