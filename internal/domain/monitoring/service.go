package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/vitalis/vitalis/internal/platform/authz"
)

const scoringWindow = 7 * 24 * time.Hour

type Service struct {
	repo Repository
	az   authz.Authorizer
	now  func() time.Time
}

func NewService(repo Repository, az authz.Authorizer) *Service {
	return &Service{repo: repo, az: az, now: time.Now}
}

// Ingest stores a reading. The caller must be allowed to operate on both the
// reporting wearable and the subject user.
func (s *Service) Ingest(ctx context.Context, rd *Reading) error {
	if rd.UserID <= 0 || rd.WearableID <= 0 {
		return fmt.Errorf("user_id and wearable_id are required")
	}
	if rd.Kind == "" {
		return fmt.Errorf("kind is required")
	}
	if err := s.az.AuthorizeWearable(ctx, rd.WearableID); err != nil {
		return err
	}
	if err := s.az.AuthorizeUser(ctx, rd.UserID); err != nil {
		return err
	}
	if rd.RecordedAt.IsZero() {
		rd.RecordedAt = s.now()
	}
	return s.repo.Insert(ctx, rd)
}

func (s *Service) UserReadings(ctx context.Context, userID int64, limit, offset int) ([]*Reading, int, error) {
	if err := s.az.AuthorizeUser(ctx, userID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) WearableReadings(ctx context.Context, wearableID int64, limit, offset int) ([]*Reading, int, error) {
	if err := s.az.AuthorizeWearable(ctx, wearableID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByWearable(ctx, wearableID, limit, offset)
}

func (s *Service) FallRisk(ctx context.Context, userID int64) (*FallRiskReport, error) {
	if err := s.az.AuthorizeUser(ctx, userID); err != nil {
		return nil, err
	}

	to := s.now()
	from := to.Add(-scoringWindow)

	heartRates, err := s.repo.ValuesByUser(ctx, userID, KindHeartRate, from, to)
	if err != nil {
		return nil, fmt.Errorf("load heart rate readings: %w", err)
	}
	steps, err := s.repo.ValuesByUser(ctx, userID, KindSteps, from, to)
	if err != nil {
		return nil, fmt.Errorf("load step readings: %w", err)
	}

	score := fallRiskScore(heartRates, steps)
	return &FallRiskReport{
		UserID:     userID,
		Score:      score,
		Level:      riskLevel(score),
		WindowFrom: from,
		WindowTo:   to,
	}, nil
}

func (s *Service) RehabProgress(ctx context.Context, userID int64) (*RehabReport, error) {
	if err := s.az.AuthorizeUser(ctx, userID); err != nil {
		return nil, err
	}

	to := s.now()
	mid := to.Add(-scoringWindow)
	from := mid.Add(-scoringWindow)

	current, err := s.repo.ValuesByUser(ctx, userID, KindSteps, mid, to)
	if err != nil {
		return nil, fmt.Errorf("load current week readings: %w", err)
	}
	previous, err := s.repo.ValuesByUser(ctx, userID, KindSteps, from, mid)
	if err != nil {
		return nil, fmt.Errorf("load previous week readings: %w", err)
	}

	var currentAvg, previousAvg float64
	if len(current) > 0 {
		currentAvg = mean(current)
	}
	if len(previous) > 0 {
		previousAvg = mean(previous)
	}

	return &RehabReport{
		UserID:        userID,
		CurrentSteps:  currentAvg,
		PreviousSteps: previousAvg,
		Progress:      rehabProgress(currentAvg, previousAvg),
	}, nil
}
