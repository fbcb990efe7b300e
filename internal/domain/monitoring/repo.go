package monitoring

import (
	"context"
	"time"
)

// Repository defines persistence operations for readings.
type Repository interface {
	Insert(ctx context.Context, r *Reading) error
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Reading, int, error)
	ListByWearable(ctx context.Context, wearableID int64, limit, offset int) ([]*Reading, int, error)

	// ValuesByUser returns reading values of the given kind recorded within
	// [from, to), oldest first.
	ValuesByUser(ctx context.Context, userID int64, kind ReadingKind, from, to time.Time) ([]float64, error)
}
