package group

import (
	"context"
	"testing"

	"github.com/vitalis/vitalis/internal/platform/authz"
)

type mockRepo struct {
	groups   map[int64]*Group
	members  map[int64][]int64
	managers map[int64][]int64
	nextID   int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		groups:   make(map[int64]*Group),
		members:  make(map[int64][]int64),
		managers: make(map[int64][]int64),
	}
}

func (m *mockRepo) Create(_ context.Context, g *Group) error {
	m.nextID++
	g.ID = m.nextID
	m.groups[g.ID] = g
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Group, error) {
	return m.groups[id], nil
}

func (m *mockRepo) Update(_ context.Context, g *Group) error {
	m.groups[g.ID] = g
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	delete(m.groups, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, _, _ int) ([]*Group, int, error) {
	var out []*Group
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out, len(out), nil
}

func (m *mockRepo) AddMember(_ context.Context, groupID, userID int64) error {
	m.members[groupID] = append(m.members[groupID], userID)
	return nil
}

func (m *mockRepo) RemoveMember(_ context.Context, groupID, userID int64) error {
	var kept []int64
	for _, id := range m.members[groupID] {
		if id != userID {
			kept = append(kept, id)
		}
	}
	m.members[groupID] = kept
	return nil
}

func (m *mockRepo) MemberIDs(_ context.Context, groupID int64) ([]int64, error) {
	return m.members[groupID], nil
}

func (m *mockRepo) IsMember(_ context.Context, userID, groupID int64) (bool, error) {
	for _, id := range m.members[groupID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) AddManager(_ context.Context, groupID, managerID int64) error {
	m.managers[groupID] = append(m.managers[groupID], managerID)
	return nil
}

func (m *mockRepo) RemoveManager(_ context.Context, groupID, managerID int64) error {
	var kept []int64
	for _, id := range m.managers[groupID] {
		if id != managerID {
			kept = append(kept, id)
		}
	}
	m.managers[groupID] = kept
	return nil
}

func (m *mockRepo) ManagerIDs(_ context.Context, groupID int64) ([]int64, error) {
	return m.managers[groupID], nil
}

func (m *mockRepo) ManagesGroup(_ context.Context, managerID, groupID int64) (bool, error) {
	for _, id := range m.managers[groupID] {
		if id == managerID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ManagesUser(_ context.Context, managerID, userID int64) (bool, error) {
	for groupID, mgrs := range m.managers {
		for _, id := range mgrs {
			if id != managerID {
				continue
			}
			for _, member := range m.members[groupID] {
				if member == userID {
					return true, nil
				}
			}
		}
	}
	return false, nil
}

type allowAll struct{}

func (allowAll) AuthorizeUser(context.Context, int64) error     { return nil }
func (allowAll) AuthorizeGroup(context.Context, int64) error    { return nil }
func (allowAll) AuthorizeWearable(context.Context, int64) error { return nil }
func (allowAll) AuthorizeTenant(context.Context, int64) error   { return nil }

type denyAll struct{}

func (denyAll) deny(resource string, id int64) error {
	return &authz.AccessDeniedError{Caller: "test", Resource: resource, TargetID: id}
}
func (d denyAll) AuthorizeUser(_ context.Context, id int64) error     { return d.deny("user", id) }
func (d denyAll) AuthorizeGroup(_ context.Context, id int64) error    { return d.deny("group", id) }
func (d denyAll) AuthorizeWearable(_ context.Context, id int64) error { return d.deny("wearable", id) }
func (d denyAll) AuthorizeTenant(_ context.Context, id int64) error   { return d.deny("tenant", id) }

func TestCreate(t *testing.T) {
	repo := newMockRepo()
	s := NewService(repo, allowAll{})

	g := &Group{TenantID: 1, Name: "ward-a"}
	if err := s.Create(context.Background(), g); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.ID == 0 {
		t.Fatal("group not stored")
	}
}

func TestCreate_Validation(t *testing.T) {
	s := NewService(newMockRepo(), allowAll{})

	if err := s.Create(context.Background(), &Group{TenantID: 1}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := s.Create(context.Background(), &Group{Name: "ward-a"}); err == nil {
		t.Error("expected error for missing tenant_id")
	}
}

func TestCreate_Denied(t *testing.T) {
	repo := newMockRepo()
	s := NewService(repo, denyAll{})

	err := s.Create(context.Background(), &Group{TenantID: 1, Name: "ward-a"})
	if !authz.IsDenied(err) {
		t.Fatalf("expected denial, got %v", err)
	}
	if len(repo.groups) != 0 {
		t.Fatal("denied create must not store")
	}
}

func TestMembershipLifecycle(t *testing.T) {
	repo := newMockRepo()
	s := NewService(repo, allowAll{})

	g := &Group{TenantID: 1, Name: "ward-a"}
	if err := s.Create(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	if err := s.AddMember(context.Background(), g.ID, 7); err != nil {
		t.Fatal(err)
	}
	if err := s.AddManager(context.Background(), g.ID, 5); err != nil {
		t.Fatal(err)
	}

	members, err := s.Members(context.Background(), g.ID)
	if err != nil || len(members) != 1 || members[0] != 7 {
		t.Fatalf("members = %v, err = %v", members, err)
	}

	// Manager of the group manages its members, and nobody else.
	if ok, _ := repo.ManagesUser(context.Background(), 5, 7); !ok {
		t.Error("manager should manage group member")
	}
	if ok, _ := repo.ManagesUser(context.Background(), 5, 8); ok {
		t.Error("manager should not manage a non-member")
	}
	if ok, _ := repo.ManagesUser(context.Background(), 7, 7); ok {
		t.Error("membership must not confer management")
	}

	if err := s.RemoveMember(context.Background(), g.ID, 7); err != nil {
		t.Fatal(err)
	}
	if ok, _ := repo.ManagesUser(context.Background(), 5, 7); ok {
		t.Error("removed member should no longer be managed")
	}
}

func TestGuardedOperations_Denied(t *testing.T) {
	s := NewService(newMockRepo(), denyAll{})
	ctx := context.Background()

	if _, err := s.Get(ctx, 4); !authz.IsDenied(err) {
		t.Errorf("Get: %v", err)
	}
	if err := s.Update(ctx, &Group{ID: 4, Name: "x"}); !authz.IsDenied(err) {
		t.Errorf("Update: %v", err)
	}
	if err := s.Delete(ctx, 4); !authz.IsDenied(err) {
		t.Errorf("Delete: %v", err)
	}
	if _, err := s.Members(ctx, 4); !authz.IsDenied(err) {
		t.Errorf("Members: %v", err)
	}
	if err := s.AddMember(ctx, 4, 7); !authz.IsDenied(err) {
		t.Errorf("AddMember: %v", err)
	}
	if err := s.AddManager(ctx, 4, 5); !authz.IsDenied(err) {
		t.Errorf("AddManager: %v", err)
	}
}

func TestList_NotGuarded(t *testing.T) {
	// Listing is left to row security; a denial engine must not block it.
	repo := newMockRepo()
	s := NewService(repo, denyAll{})

	if _, _, err := s.List(context.Background(), 20, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
