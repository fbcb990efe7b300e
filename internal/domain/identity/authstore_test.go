package identity

import (
	"context"
	"testing"
)

func TestAuthStore_UserBySubject(t *testing.T) {
	users := newMockUserRepo()
	store := NewAuthStore(newMockTenantRepo(), users, newMockCompositeRepo())

	u := &User{TenantID: 1, Subject: "alice"}
	if err := users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	got, err := store.UserBySubject(context.Background(), 1, "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != u.ID || got.TenantID != 1 || got.Subject != "alice" {
		t.Fatalf("unexpected info: %+v", got)
	}

	// Unknown subject resolves to (nil, nil), not an error.
	got, err = store.UserBySubject(context.Background(), 1, "ghost")
	if err != nil || got != nil {
		t.Fatalf("got (%+v, %v)", got, err)
	}

	// Same subject in a different tenant does not match.
	got, err = store.UserBySubject(context.Background(), 2, "alice")
	if err != nil || got != nil {
		t.Fatalf("got (%+v, %v)", got, err)
	}
}

func TestAuthStore_CompositeUserBySubject(t *testing.T) {
	composites := newMockCompositeRepo()
	store := NewAuthStore(newMockTenantRepo(), newMockUserRepo(), composites)

	cu := &CompositeUser{Subject: "fam-1", Name: "family"}
	if err := composites.Create(context.Background(), cu); err != nil {
		t.Fatal(err)
	}

	got, err := store.CompositeUserBySubject(context.Background(), "fam-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != cu.ID {
		t.Fatalf("unexpected info: %+v", got)
	}

	got, err = store.CompositeUserBySubject(context.Background(), "ghost")
	if err != nil || got != nil {
		t.Fatalf("got (%+v, %v)", got, err)
	}
}

func TestAuthStore_TenantExists(t *testing.T) {
	tenants := newMockTenantRepo()
	store := NewAuthStore(tenants, newMockUserRepo(), newMockCompositeRepo())

	tn := &Tenant{Name: "clinic-a", MaxUsers: 10}
	if err := tenants.Create(context.Background(), tn); err != nil {
		t.Fatal(err)
	}

	if ok, _ := store.TenantExists(context.Background(), tn.ID); !ok {
		t.Error("expected tenant to exist")
	}
	if ok, _ := store.TenantExists(context.Background(), 99); ok {
		t.Error("expected tenant 99 to not exist")
	}
}
