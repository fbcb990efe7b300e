package wearable

import (
	"time"

	"github.com/google/uuid"
)

// Wearable is a physical device registered within a tenant. Access for
// non-admin callers is derived from current group assignments.
type Wearable struct {
	ID         int64     `json:"id" db:"id"`
	TenantID   int64     `json:"tenant_id" db:"tenant_id"`
	HardwareID uuid.UUID `json:"hardware_id" db:"hardware_id"`
	Model      string    `json:"model" db:"model"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Assignment associates a wearable with a group for a validity window.
// A nil ValidUntil means the assignment is open-ended.
type Assignment struct {
	ID         int64      `json:"id" db:"id"`
	WearableID int64      `json:"wearable_id" db:"wearable_id"`
	GroupID    int64      `json:"group_id" db:"group_id"`
	ValidFrom  time.Time  `json:"valid_from" db:"valid_from"`
	ValidUntil *time.Time `json:"valid_until,omitempty" db:"valid_until"`
}

// Current reports whether the assignment is valid at the given instant.
func (a *Assignment) Current(now time.Time) bool {
	if now.Before(a.ValidFrom) {
		return false
	}
	return a.ValidUntil == nil || now.Before(*a.ValidUntil)
}
