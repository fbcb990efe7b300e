package wearable

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vitalis/vitalis/internal/platform/authz"
)

type Service struct {
	repo Repository
	az   authz.Authorizer
}

func NewService(repo Repository, az authz.Authorizer) *Service {
	return &Service{repo: repo, az: az}
}

func (s *Service) Create(ctx context.Context, w *Wearable) error {
	if w.TenantID <= 0 {
		return fmt.Errorf("tenant_id is required")
	}
	if w.HardwareID == uuid.Nil {
		w.HardwareID = uuid.New()
	}
	if err := s.az.AuthorizeTenant(ctx, w.TenantID); err != nil {
		return err
	}
	w.Active = true
	return s.repo.Create(ctx, w)
}

func (s *Service) Get(ctx context.Context, id int64) (*Wearable, error) {
	if err := s.az.AuthorizeWearable(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, w *Wearable) error {
	if err := s.az.AuthorizeWearable(ctx, w.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, w)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.az.AuthorizeWearable(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// List relies on row security for tenant scoping.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Wearable, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Assign(ctx context.Context, a *Assignment) error {
	if a.WearableID <= 0 || a.GroupID <= 0 {
		return fmt.Errorf("wearable_id and group_id are required")
	}
	if err := s.az.AuthorizeWearable(ctx, a.WearableID); err != nil {
		return err
	}
	if err := s.az.AuthorizeGroup(ctx, a.GroupID); err != nil {
		return err
	}
	if a.ValidFrom.IsZero() {
		a.ValidFrom = time.Now()
	}
	if a.ValidUntil != nil && !a.ValidUntil.After(a.ValidFrom) {
		return fmt.Errorf("valid_until must be after valid_from")
	}
	return s.repo.Assign(ctx, a)
}

func (s *Service) EndAssignment(ctx context.Context, wearableID, assignmentID int64) error {
	if err := s.az.AuthorizeWearable(ctx, wearableID); err != nil {
		return err
	}
	return s.repo.EndAssignment(ctx, assignmentID, time.Now())
}

func (s *Service) Assignments(ctx context.Context, wearableID int64) ([]*Assignment, error) {
	if err := s.az.AuthorizeWearable(ctx, wearableID); err != nil {
		return nil, err
	}
	return s.repo.Assignments(ctx, wearableID)
}
