package identity

import (
	"context"

	"github.com/vitalis/vitalis/internal/platform/auth"
)

// AuthStore adapts the identity repositories to the auth.IdentityStore
// interface consumed by the authentication filter.
type AuthStore struct {
	tenants    TenantRepository
	users      UserRepository
	composites CompositeUserRepository
}

// NewAuthStore creates an AuthStore over the given repositories.
func NewAuthStore(tenants TenantRepository, users UserRepository, composites CompositeUserRepository) *AuthStore {
	return &AuthStore{tenants: tenants, users: users, composites: composites}
}

func (s *AuthStore) UserBySubject(ctx context.Context, tenantID int64, subject string) (*auth.UserInfo, error) {
	u, err := s.users.GetBySubject(ctx, tenantID, subject)
	if err != nil || u == nil {
		return nil, err
	}
	return &auth.UserInfo{ID: u.ID, TenantID: u.TenantID, Subject: u.Subject}, nil
}

func (s *AuthStore) CompositeUserBySubject(ctx context.Context, subject string) (*auth.CompositeUserInfo, error) {
	cu, err := s.composites.GetBySubject(ctx, subject)
	if err != nil || cu == nil {
		return nil, err
	}
	return &auth.CompositeUserInfo{ID: cu.ID, Subject: cu.Subject}, nil
}

func (s *AuthStore) TenantExists(ctx context.Context, tenantID int64) (bool, error) {
	return s.tenants.Exists(ctx, tenantID)
}
