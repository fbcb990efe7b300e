package wearable

import (
	"context"
	"time"
)

// Repository defines persistence operations for wearables, their group
// assignments, and the access lookups consumed by the authorization engine.
// The access lookups consider only assignments valid at query time, never
// historical or future windows.
type Repository interface {
	Create(ctx context.Context, w *Wearable) error
	GetByID(ctx context.Context, id int64) (*Wearable, error)
	Update(ctx context.Context, w *Wearable) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Wearable, int, error)

	Assign(ctx context.Context, a *Assignment) error
	EndAssignment(ctx context.Context, assignmentID int64, until time.Time) error
	Assignments(ctx context.Context, wearableID int64) ([]*Assignment, error)

	ManagerHasAccess(ctx context.Context, managerID, wearableID int64) (bool, error)
	UserHasAccess(ctx context.Context, userID, wearableID int64) (bool, error)
	CompositeHasAccess(ctx context.Context, compositeUserID, wearableID int64) (bool, error)
}
