// Package authz is the policy core every domain service calls before touching
// a protected resource. A decision is derived per call from the authenticated
// principal and fresh relationship lookups; nothing is cached across requests.
//
// The rules are a decision table (resource kind × principal variant × role ×
// relation predicate) evaluated by one generic function, so the full policy is
// visible in one place rather than scattered through per-operation
// conditionals.
package authz

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vitalis/vitalis/internal/platform/auth"
)

// RelationStore supplies the persisted relationship facts the rules depend on.
// All methods are pure reads. Implemented by the domain repositories and
// adapted in main.
type RelationStore interface {
	// ManagesUser reports whether managerID manages userID, i.e. userID is a
	// member of a group managerID manages.
	ManagesUser(ctx context.Context, managerID, userID int64) (bool, error)
	// ManagesGroup reports whether managerID is a manager of groupID.
	ManagesGroup(ctx context.Context, managerID, groupID int64) (bool, error)
	// OwnsSubUser reports whether userID is a sub-user of compositeUserID.
	OwnsSubUser(ctx context.Context, compositeUserID, userID int64) (bool, error)
	// ManagerWearableAccess reports whether managerID currently has manager
	// access to wearableID.
	ManagerWearableAccess(ctx context.Context, managerID, wearableID int64) (bool, error)
	// UserWearableAccess reports whether userID currently has user access to
	// wearableID.
	UserWearableAccess(ctx context.Context, userID, wearableID int64) (bool, error)
	// CompositeWearableAccess reports whether compositeUserID currently has
	// access to wearableID through one of its sub-users.
	CompositeWearableAccess(ctx context.Context, compositeUserID, wearableID int64) (bool, error)
}

// Authorizer is the surface domain services depend on. Each call returns nil
// when the operation is allowed, an *AccessDeniedError when it is not, and
// ErrNoPrincipal when no authenticated principal is reachable.
type Authorizer interface {
	AuthorizeUser(ctx context.Context, targetUserID int64) error
	AuthorizeGroup(ctx context.Context, targetGroupID int64) error
	AuthorizeWearable(ctx context.Context, targetWearableID int64) error
	AuthorizeTenant(ctx context.Context, targetTenantID int64) error
}

// Engine evaluates the decision table. Stateless between calls.
type Engine struct {
	rels   RelationStore
	logger zerolog.Logger
}

// NewEngine creates an Engine backed by the given relation store.
func NewEngine(rels RelationStore, logger zerolog.Logger) *Engine {
	return &Engine{rels: rels, logger: logger}
}

// predicate is a relation check for one rule. A nil predicate means the rule
// grants on principal variant and role alone.
type predicate func(ctx context.Context, e *Engine, p *auth.Principal, targetID int64) (bool, error)

// rule is one row of the decision table. A rule matches when the principal
// variant matches, the principal holds one of the listed roles (empty list:
// any role), and the predicate holds.
type rule struct {
	composite bool
	roles     []auth.Role
	relation  predicate
}

func selfTarget(_ context.Context, _ *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return p.UserID == targetID, nil
}

func managesUser(ctx context.Context, e *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return e.rels.ManagesUser(ctx, p.UserID, targetID)
}

func ownsSubUser(ctx context.Context, e *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return e.rels.OwnsSubUser(ctx, p.CompositeUserID, targetID)
}

func managesGroup(ctx context.Context, e *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return e.rels.ManagesGroup(ctx, p.UserID, targetID)
}

func managerWearableAccess(ctx context.Context, e *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return e.rels.ManagerWearableAccess(ctx, p.UserID, targetID)
}

func userWearableAccess(ctx context.Context, e *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return e.rels.UserWearableAccess(ctx, p.UserID, targetID)
}

func compositeWearableAccess(ctx context.Context, e *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return e.rels.CompositeWearableAccess(ctx, p.CompositeUserID, targetID)
}

func ownTenant(_ context.Context, _ *Engine, p *auth.Principal, targetID int64) (bool, error) {
	return p.TenantID == targetID, nil
}

// The decision table. Composite users have no rows for group or tenant
// operations: they are always denied there. (The prior behavior denied them
// only when their role was exactly USER, but no composite user is ever
// assigned an elevated role, so the partial grant path was dead code; it is
// deliberately closed here.)
var (
	userRules = []rule{
		{relation: selfTarget},
		{roles: []auth.Role{auth.RoleAdmin}},
		{roles: []auth.Role{auth.RoleManager}, relation: managesUser},
		{composite: true, relation: ownsSubUser},
	}

	groupRules = []rule{
		{roles: []auth.Role{auth.RoleAdmin}},
		{roles: []auth.Role{auth.RoleManager}, relation: managesGroup},
	}

	wearableRules = []rule{
		{roles: []auth.Role{auth.RoleAdmin}},
		{roles: []auth.Role{auth.RoleManager}, relation: managerWearableAccess},
		{roles: []auth.Role{auth.RoleUser}, relation: userWearableAccess},
		{composite: true, roles: []auth.Role{auth.RoleUser}, relation: compositeWearableAccess},
	}

	tenantRules = []rule{
		// MANAGER on their own tenant is an intentional carve-out: managers
		// need to read tenant limits during user creation.
		{roles: []auth.Role{auth.RoleAdmin, auth.RoleManager}, relation: ownTenant},
	}
)

// AuthorizeUser decides whether the current principal may operate on the
// target user.
func (e *Engine) AuthorizeUser(ctx context.Context, targetUserID int64) error {
	return e.authorize(ctx, "user", targetUserID, userRules)
}

// AuthorizeGroup decides whether the current principal may operate on the
// target group. Membership alone never grants: group operations require
// management.
func (e *Engine) AuthorizeGroup(ctx context.Context, targetGroupID int64) error {
	return e.authorize(ctx, "group", targetGroupID, groupRules)
}

// AuthorizeWearable decides whether the current principal may operate on the
// target wearable. Only current associations count; expired ones never grant.
func (e *Engine) AuthorizeWearable(ctx context.Context, targetWearableID int64) error {
	return e.authorize(ctx, "wearable", targetWearableID, wearableRules)
}

// AuthorizeTenant decides whether the current principal may operate on the
// target tenant.
func (e *Engine) AuthorizeTenant(ctx context.Context, targetTenantID int64) error {
	return e.authorize(ctx, "tenant", targetTenantID, tenantRules)
}

func (e *Engine) authorize(ctx context.Context, resource string, targetID int64, rules []rule) error {
	p := auth.PrincipalFromContext(ctx)
	if p == nil {
		e.logger.Error().Str("resource", resource).Int64("target_id", targetID).
			Msg("authorization check ran without an authenticated principal")
		return ErrNoPrincipal
	}

	for _, r := range rules {
		if r.composite != p.IsComposite() {
			continue
		}
		if len(r.roles) > 0 && !hasAnyRole(p, r.roles) {
			continue
		}
		if r.relation == nil {
			return nil
		}
		ok, err := r.relation(ctx, e, p, targetID)
		if err != nil {
			return fmt.Errorf("authorize %s %d: %w", resource, targetID, err)
		}
		if ok {
			return nil
		}
	}

	denied := &AccessDeniedError{Caller: p.Subject, Resource: resource, TargetID: targetID}
	e.logger.Info().Str("caller", p.Subject).Str("resource", resource).Int64("target_id", targetID).
		Msg("access denied")
	return denied
}

func hasAnyRole(p *auth.Principal, roles []auth.Role) bool {
	for _, r := range roles {
		if p.HasRole(r) {
			return true
		}
	}
	return false
}
