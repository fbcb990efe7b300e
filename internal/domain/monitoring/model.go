package monitoring

import "time"

// ReadingKind identifies the measurement a reading carries.
type ReadingKind string

const (
	KindHeartRate ReadingKind = "heart_rate"
	KindSpO2      ReadingKind = "spo2"
	KindSteps     ReadingKind = "steps"
	KindWeight    ReadingKind = "weight"
)

// Reading is a single measurement reported by a wearable for a user.
type Reading struct {
	ID         int64       `json:"id" db:"id"`
	TenantID   int64       `json:"tenant_id" db:"tenant_id"`
	UserID     int64       `json:"user_id" db:"user_id"`
	WearableID int64       `json:"wearable_id" db:"wearable_id"`
	Kind       ReadingKind `json:"kind" db:"kind"`
	Value      float64     `json:"value" db:"value"`
	RecordedAt time.Time   `json:"recorded_at" db:"recorded_at"`
}

// FallRiskReport summarizes a user's fall risk over the scoring window.
type FallRiskReport struct {
	UserID     int64     `json:"user_id"`
	Score      float64   `json:"score"`
	Level      string    `json:"level"`
	WindowFrom time.Time `json:"window_from"`
	WindowTo   time.Time `json:"window_to"`
}

// RehabReport summarizes week-over-week activity progress.
type RehabReport struct {
	UserID        int64   `json:"user_id"`
	CurrentSteps  float64 `json:"current_week_avg_steps"`
	PreviousSteps float64 `json:"previous_week_avg_steps"`
	Progress      float64 `json:"progress"`
}
