package group

import "context"

// Repository defines persistence operations for groups and their membership
// and management relations.
type Repository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, id int64) (*Group, error)
	Update(ctx context.Context, g *Group) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Group, int, error)

	AddMember(ctx context.Context, groupID, userID int64) error
	RemoveMember(ctx context.Context, groupID, userID int64) error
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	IsMember(ctx context.Context, userID, groupID int64) (bool, error)

	AddManager(ctx context.Context, groupID, managerID int64) error
	RemoveManager(ctx context.Context, groupID, managerID int64) error
	ManagerIDs(ctx context.Context, groupID int64) ([]int64, error)

	// ManagesGroup reports whether managerID holds a management relation to
	// groupID. Membership alone does not count.
	ManagesGroup(ctx context.Context, managerID, groupID int64) (bool, error)

	// ManagesUser reports whether userID is a member of any group that
	// managerID manages.
	ManagesUser(ctx context.Context, managerID, userID int64) (bool, error)
}
