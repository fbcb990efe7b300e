package identity

import (
	"context"
	"fmt"

	"github.com/vitalis/vitalis/internal/platform/auth"
	"github.com/vitalis/vitalis/internal/platform/authz"
)

// DefaultMaxUsers is the per-tenant user limit applied when a tenant is
// created without an explicit one.
const DefaultMaxUsers = 100

type Service struct {
	tenants    TenantRepository
	users      UserRepository
	composites CompositeUserRepository
	az         authz.Authorizer
}

func NewService(tenants TenantRepository, users UserRepository, composites CompositeUserRepository, az authz.Authorizer) *Service {
	return &Service{tenants: tenants, users: users, composites: composites, az: az}
}

// -- Tenant --

// Tenant create/update/delete are cross-tenant administration and are gated by
// the ADMIN role at the route level; the engine's tenant rule only covers
// operations targeting an existing tenant from within it.

func (s *Service) CreateTenant(ctx context.Context, t *Tenant) error {
	if t.Name == "" {
		return fmt.Errorf("tenant name is required")
	}
	if t.MaxUsers <= 0 {
		t.MaxUsers = DefaultMaxUsers
	}
	return s.tenants.Create(ctx, t)
}

func (s *Service) GetTenant(ctx context.Context, id int64) (*Tenant, error) {
	if err := s.az.AuthorizeTenant(ctx, id); err != nil {
		return nil, err
	}
	return s.tenants.GetByID(ctx, id)
}

// TenantUsage reports current and maximum user counts for a tenant. Managers
// may read it for their own tenant, which is what lets them enforce the user
// limit during user creation.
func (s *Service) TenantUsage(ctx context.Context, id int64) (used, max int, err error) {
	if err := s.az.AuthorizeTenant(ctx, id); err != nil {
		return 0, 0, err
	}
	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	used, err = s.tenants.CountUsers(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	return used, t.MaxUsers, nil
}

func (s *Service) UpdateTenant(ctx context.Context, t *Tenant) error {
	if t.Name == "" {
		return fmt.Errorf("tenant name is required")
	}
	return s.tenants.Update(ctx, t)
}

func (s *Service) DeleteTenant(ctx context.Context, id int64) error {
	return s.tenants.Delete(ctx, id)
}

func (s *Service) ListTenants(ctx context.Context, limit, offset int) ([]*Tenant, int, error) {
	return s.tenants.List(ctx, limit, offset)
}

// -- User --

// CreateUser creates a user in a tenant after checking the caller may operate
// on that tenant and the tenant's user limit is not exhausted.
func (s *Service) CreateUser(ctx context.Context, u *User) error {
	if u.Subject == "" {
		return fmt.Errorf("user subject is required")
	}
	if u.TenantID == 0 {
		return fmt.Errorf("tenant_id is required")
	}
	if err := s.az.AuthorizeTenant(ctx, u.TenantID); err != nil {
		return err
	}

	t, err := s.tenants.GetByID(ctx, u.TenantID)
	if err != nil {
		return fmt.Errorf("load tenant %d: %w", u.TenantID, err)
	}
	count, err := s.tenants.CountUsers(ctx, u.TenantID)
	if err != nil {
		return fmt.Errorf("count tenant users: %w", err)
	}
	if count >= t.MaxUsers {
		return fmt.Errorf("tenant %d has reached its user limit (%d)", u.TenantID, t.MaxUsers)
	}

	u.Active = true
	return s.users.Create(ctx, u)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	if err := s.az.AuthorizeUser(ctx, id); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

func (s *Service) UpdateUser(ctx context.Context, u *User) error {
	if err := s.az.AuthorizeUser(ctx, u.ID); err != nil {
		return err
	}
	return s.users.Update(ctx, u)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if err := s.az.AuthorizeUser(ctx, id); err != nil {
		return err
	}
	return s.users.Delete(ctx, id)
}

// ListUsers lists users visible under the request's row-security scope.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.List(ctx, limit, offset)
}

// -- CompositeUser --

func (s *Service) CreateCompositeUser(ctx context.Context, cu *CompositeUser) error {
	if cu.Subject == "" {
		return fmt.Errorf("composite user subject is required")
	}
	if cu.Name == "" {
		return fmt.Errorf("composite user name is required")
	}
	return s.composites.Create(ctx, cu)
}

// GetCompositeUser is restricted to the composite user itself and admins.
func (s *Service) GetCompositeUser(ctx context.Context, id int64) (*CompositeUser, error) {
	if err := s.authorizeCompositeAccess(ctx, id); err != nil {
		return nil, err
	}
	return s.composites.GetByID(ctx, id)
}

// SubUsers returns the ids of the sub-users owned by a composite user.
func (s *Service) SubUsers(ctx context.Context, id int64) ([]int64, error) {
	if err := s.authorizeCompositeAccess(ctx, id); err != nil {
		return nil, err
	}
	return s.composites.SubUserIDs(ctx, id)
}

func (s *Service) DeleteCompositeUser(ctx context.Context, id int64) error {
	return s.composites.Delete(ctx, id)
}

func (s *Service) ListCompositeUsers(ctx context.Context, limit, offset int) ([]*CompositeUser, int, error) {
	return s.composites.List(ctx, limit, offset)
}

func (s *Service) authorizeCompositeAccess(ctx context.Context, id int64) error {
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		return authz.ErrNoPrincipal
	}
	if p.HasRole(auth.RoleAdmin) || (p.IsComposite() && p.CompositeUserID == id) {
		return nil
	}
	return &authz.AccessDeniedError{Caller: p.Subject, Resource: "composite user", TargetID: id}
}
