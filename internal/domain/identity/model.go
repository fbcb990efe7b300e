package identity

import "time"

// Tenant is an isolated customer organization. Rows in shared tables are
// scoped to exactly one tenant via row-level security.
type Tenant struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	MaxUsers  int       `db:"max_users" json:"max_users"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User is a direct tenant user. Subject is the external authentication
// identifier the upstream gateway asserts; CompositeUserID is set when the
// user is a sub-user of an umbrella account.
type User struct {
	ID              int64      `db:"id" json:"id"`
	TenantID        int64      `db:"tenant_id" json:"tenant_id"`
	CompositeUserID *int64     `db:"composite_user_id" json:"composite_user_id,omitempty"`
	Subject         string     `db:"subject" json:"subject"`
	Email           *string    `db:"email" json:"email,omitempty"`
	FirstName       *string    `db:"first_name" json:"first_name,omitempty"`
	LastName        *string    `db:"last_name" json:"last_name,omitempty"`
	BirthDate       *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// CompositeUser is an umbrella identity owning sub-users across potentially
// different tenants. It never belongs to a tenant itself.
type CompositeUser struct {
	ID        int64     `db:"id" json:"id"`
	Subject   string    `db:"subject" json:"subject"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
