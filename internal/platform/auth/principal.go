// Package auth implements the request filter chain that turns trusted gateway
// headers into an authenticated principal: the identity filter resolves the
// access scope, the authentication filter resolves the concrete identity
// within that scope, and the role filter attaches authorities. The filters are
// order-dependent and each terminates the request on failure.
package auth

import "context"

// Role is an authority level. The set is flat: no role implies another, each
// authorization rule names the roles it accepts.
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// Principal is the authenticated identity for one request: either a direct
// tenant user or a composite umbrella account, never both.
type Principal struct {
	UserID          int64 // set for direct users
	TenantID        int64 // set for direct users
	CompositeUserID int64 // set for composite users
	Subject         string
	Roles           []Role
}

// IsComposite reports whether the principal is a composite umbrella account.
func (p *Principal) IsComposite() bool {
	return p.CompositeUserID != 0
}

// HasRole reports whether the principal holds the given role.
func (p *Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
// The principal is stored by pointer so the role filter can attach authorities
// after authentication without re-installing it.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the authenticated principal, or nil when the
// authentication filter has not run for this request.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
