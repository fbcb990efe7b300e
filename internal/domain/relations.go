// Package domain ties the per-area repositories together where a concern
// spans more than one of them.
package domain

import (
	"context"

	"github.com/vitalis/vitalis/internal/domain/group"
	"github.com/vitalis/vitalis/internal/domain/identity"
	"github.com/vitalis/vitalis/internal/domain/wearable"
	"github.com/vitalis/vitalis/internal/platform/authz"
)

// RelationStore adapts the group, wearable and identity repositories to the
// relationship lookups the authorization engine needs.
type RelationStore struct {
	groups     group.Repository
	wearables  wearable.Repository
	composites identity.CompositeUserRepository
}

var _ authz.RelationStore = (*RelationStore)(nil)

func NewRelationStore(groups group.Repository, wearables wearable.Repository, composites identity.CompositeUserRepository) *RelationStore {
	return &RelationStore{groups: groups, wearables: wearables, composites: composites}
}

func (s *RelationStore) ManagesUser(ctx context.Context, managerID, userID int64) (bool, error) {
	return s.groups.ManagesUser(ctx, managerID, userID)
}

func (s *RelationStore) ManagesGroup(ctx context.Context, managerID, groupID int64) (bool, error) {
	return s.groups.ManagesGroup(ctx, managerID, groupID)
}

func (s *RelationStore) OwnsSubUser(ctx context.Context, compositeUserID, userID int64) (bool, error) {
	return s.composites.OwnsUser(ctx, compositeUserID, userID)
}

func (s *RelationStore) ManagerWearableAccess(ctx context.Context, managerID, wearableID int64) (bool, error) {
	return s.wearables.ManagerHasAccess(ctx, managerID, wearableID)
}

func (s *RelationStore) UserWearableAccess(ctx context.Context, userID, wearableID int64) (bool, error) {
	return s.wearables.UserHasAccess(ctx, userID, wearableID)
}

func (s *RelationStore) CompositeWearableAccess(ctx context.Context, compositeUserID, wearableID int64) (bool, error) {
	return s.wearables.CompositeHasAccess(ctx, compositeUserID, wearableID)
}
