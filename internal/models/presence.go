package models

import (
	"time"

	"github.com/google/uuid"
)

// Presence is the per-account online/offline record. LastSeen is always
// stamped by the store's clock.
type Presence struct {
	AccountID uuid.UUID      `json:"account_id"`
	Status    PresenceStatus `json:"status"`
	LastSeen  time.Time      `json:"last_seen"`
}

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

func (s PresenceStatus) IsValid() bool {
	return s == StatusOnline || s == StatusOffline
}
