package identity

import "context"

// TenantRepository defines the persistence interface for tenants.
type TenantRepository interface {
	Create(ctx context.Context, t *Tenant) error
	GetByID(ctx context.Context, id int64) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, int, error)
	Exists(ctx context.Context, id int64) (bool, error)
	CountUsers(ctx context.Context, id int64) (int, error)
}

// UserRepository defines the persistence interface for direct users.
// GetBySubject returns (nil, nil) when no user matches: the authentication
// filter treats an unknown subject as unauthenticated, not as a storage error.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetBySubject(ctx context.Context, tenantID int64, subject string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
}

// CompositeUserRepository defines the persistence interface for composite
// umbrella accounts. GetBySubject follows the same (nil, nil) convention as
// UserRepository.
type CompositeUserRepository interface {
	Create(ctx context.Context, cu *CompositeUser) error
	GetByID(ctx context.Context, id int64) (*CompositeUser, error)
	GetBySubject(ctx context.Context, subject string) (*CompositeUser, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*CompositeUser, int, error)
	SubUserIDs(ctx context.Context, id int64) ([]int64, error)
	OwnsUser(ctx context.Context, id, userID int64) (bool, error)
}
