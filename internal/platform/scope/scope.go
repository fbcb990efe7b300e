// Package scope carries the per-request access scope: whether the caller is a
// direct tenant user or a composite-user umbrella account, and the id of the
// tenant or composite user whose rows are visible for the request. The scope
// travels as a context value so it is isolated per request with no shared
// mutable state between concurrently handled requests.
package scope

import "context"

// CallerKind distinguishes the two identity spaces a request can operate in.
type CallerKind int

const (
	// DirectUser scopes the request to a single tenant.
	DirectUser CallerKind = iota
	// CompositeUser scopes the request to an umbrella account and its sub-users.
	CompositeUser
)

func (k CallerKind) String() string {
	if k == CompositeUser {
		return "composite_user"
	}
	return "direct_user"
}

// Access is the resolved scope for one request. Exactly one of TenantID and
// CompositeUserID is meaningful, selected by Kind; the constructors uphold
// that invariant.
type Access struct {
	Kind            CallerKind
	TenantID        int64
	CompositeUserID int64
}

// DirectAccess returns a tenant-scoped Access.
func DirectAccess(tenantID int64) Access {
	return Access{Kind: DirectUser, TenantID: tenantID}
}

// CompositeAccess returns a composite-user-scoped Access.
func CompositeAccess(compositeUserID int64) Access {
	return Access{Kind: CompositeUser, CompositeUserID: compositeUserID}
}

type ctxKey struct{}

// WithAccess returns a context carrying the given access scope.
func WithAccess(ctx context.Context, a Access) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the access scope established for the request, if any.
func FromContext(ctx context.Context) (Access, bool) {
	a, ok := ctx.Value(ctxKey{}).(Access)
	return a, ok
}
