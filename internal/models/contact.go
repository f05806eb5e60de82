package models

import (
	"time"

	"github.com/google/uuid"
)

// Contact is an edge meaning MemberID is in OwnerID's contact list.
type Contact struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	MemberID  uuid.UUID `json:"member_id"`
	CreatedAt time.Time `json:"created_at"`
}
