package integration

import (
	"context"
	"testing"

	"github.com/vitalis/vitalis/internal/platform/scope"
)

// backendPID returns the server process id of the connection in ctx, used to
// verify that consecutive checkouts really reuse one physical connection.
func backendPID(ctx context.Context, t *testing.T) int {
	t.Helper()
	n, err := countRows(ctx, `SELECT pg_backend_pid()`)
	if err != nil {
		t.Fatalf("query backend pid: %v", err)
	}
	return n
}

// Two tenants take turns on the single-connection app pool. Each checkout must
// see exactly its own rows: the scope settings are re-applied on every Acquire,
// so the connection cannot carry the previous tenant's visibility forward.
func TestRowSecurity_InterleavedTenantCheckouts(t *testing.T) {
	ctx := context.Background()

	tenantA := seedTenant(t, ctx, "clinic-north")
	tenantB := seedTenant(t, ctx, "clinic-south")

	userA := seedUser(t, ctx, tenantA, "alice@north", nil)
	userB := seedUser(t, ctx, tenantB, "bob@south", nil)

	wearA := seedWearable(t, ctx, tenantA)
	wearB := seedWearable(t, ctx, tenantB)

	seedReading(t, ctx, tenantA, userA, wearA, "heart_rate", 62)
	seedReading(t, ctx, tenantA, userA, wearA, "heart_rate", 64)
	seedReading(t, ctx, tenantA, userA, wearA, "steps", 4200)
	seedReading(t, ctx, tenantB, userB, wearB, "heart_rate", 71)
	seedReading(t, ctx, tenantB, userB, wearB, "steps", 1800)

	var pidA, pidB, pidA2 int

	withScope(ctx, t, scope.DirectAccess(tenantA), func(ctx context.Context) error {
		pidA = backendPID(ctx, t)

		n, err := countRows(ctx, `SELECT COUNT(*) FROM reading WHERE user_id = $1`, userA)
		if err != nil {
			return err
		}
		if n != 3 {
			t.Errorf("tenant A: expected 3 own readings, got %d", n)
		}

		cross, err := countRows(ctx, `SELECT COUNT(*) FROM reading WHERE tenant_id <> $1`, tenantA)
		if err != nil {
			return err
		}
		if cross != 0 {
			t.Errorf("tenant A: expected 0 cross-tenant readings, got %d", cross)
		}
		return nil
	})

	withScope(ctx, t, scope.DirectAccess(tenantB), func(ctx context.Context) error {
		pidB = backendPID(ctx, t)

		n, err := countRows(ctx, `SELECT COUNT(*) FROM reading WHERE user_id = $1`, userB)
		if err != nil {
			return err
		}
		if n != 2 {
			t.Errorf("tenant B: expected 2 own readings, got %d", n)
		}

		cross, err := countRows(ctx, `SELECT COUNT(*) FROM reading WHERE tenant_id <> $1`, tenantB)
		if err != nil {
			return err
		}
		if cross != 0 {
			t.Errorf("tenant B: expected 0 cross-tenant readings, got %d", cross)
		}

		users, err := countRows(ctx, `SELECT COUNT(*) FROM app_user WHERE id = $1`, userA)
		if err != nil {
			return err
		}
		if users != 0 {
			t.Errorf("tenant B: expected tenant A's user to be invisible, got %d rows", users)
		}
		return nil
	})

	// Back to tenant A on the same physical connection: tenant B's scope must
	// be gone.
	withScope(ctx, t, scope.DirectAccess(tenantA), func(ctx context.Context) error {
		pidA2 = backendPID(ctx, t)

		n, err := countRows(ctx, `SELECT COUNT(*) FROM reading WHERE tenant_id = $1`, tenantA)
		if err != nil {
			return err
		}
		if n != 3 {
			t.Errorf("tenant A after B: expected 3 own readings, got %d", n)
		}

		cross, err := countRows(ctx, `SELECT COUNT(*) FROM reading WHERE tenant_id = $1`, tenantB)
		if err != nil {
			return err
		}
		if cross != 0 {
			t.Errorf("tenant A after B: expected 0 of tenant B's readings, got %d", cross)
		}
		return nil
	})

	if pidA != pidB || pidB != pidA2 {
		t.Errorf("expected all checkouts on one physical connection, got pids %d, %d, %d", pidA, pidB, pidA2)
	}
}

// A connection checked out with no access scope carries the sentinel on both
// session parameters and must see nothing.
func TestRowSecurity_UnscopedConnectionSeesNoRows(t *testing.T) {
	ctx := context.Background()

	tenantID := seedTenant(t, ctx, "clinic-east")
	userID := seedUser(t, ctx, tenantID, "carol@east", nil)
	wearID := seedWearable(t, ctx, tenantID)
	seedReading(t, ctx, tenantID, userID, wearID, "heart_rate", 58)

	withoutScope(ctx, t, func(ctx context.Context) error {
		for _, table := range []string{"tenant", "app_user", "wearable", "reading"} {
			n, err := countRows(ctx, `SELECT COUNT(*) FROM `+table)
			if err != nil {
				return err
			}
			if n != 0 {
				t.Errorf("unscoped connection sees %d rows in %s, expected 0", n, table)
			}
		}
		return nil
	})
}

// A composite user sees its linked sub-users and their readings across
// tenants, and nothing belonging to unlinked users in the same tenants.
func TestRowSecurity_CompositeScopeCrossesTenants(t *testing.T) {
	ctx := context.Background()

	tenantA := seedTenant(t, ctx, "gym-west")
	tenantB := seedTenant(t, ctx, "rehab-center")

	compositeID := seedCompositeUser(t, ctx, "dana@umbrella", "Dana")

	subA := seedUser(t, ctx, tenantA, "dana@gym-west", &compositeID)
	subB := seedUser(t, ctx, tenantB, "dana@rehab-center", &compositeID)
	other := seedUser(t, ctx, tenantA, "erin@gym-west", nil)

	wearA := seedWearable(t, ctx, tenantA)
	wearB := seedWearable(t, ctx, tenantB)

	seedReading(t, ctx, tenantA, subA, wearA, "steps", 9000)
	seedReading(t, ctx, tenantB, subB, wearB, "heart_rate", 66)
	seedReading(t, ctx, tenantA, other, wearA, "steps", 3000)

	withScope(ctx, t, scope.CompositeAccess(compositeID), func(ctx context.Context) error {
		users, err := countRows(ctx, `SELECT COUNT(*) FROM app_user`)
		if err != nil {
			return err
		}
		if users != 2 {
			t.Errorf("composite: expected 2 visible sub-users, got %d", users)
		}

		tenants, err := countRows(ctx, `SELECT COUNT(*) FROM tenant`)
		if err != nil {
			return err
		}
		if tenants != 2 {
			t.Errorf("composite: expected 2 visible tenants, got %d", tenants)
		}

		readings, err := countRows(ctx, `SELECT COUNT(*) FROM reading`)
		if err != nil {
			return err
		}
		if readings != 2 {
			t.Errorf("composite: expected 2 visible readings, got %d", readings)
		}

		foreign, err := countRows(ctx, `SELECT COUNT(*) FROM reading WHERE user_id = $1`, other)
		if err != nil {
			return err
		}
		if foreign != 0 {
			t.Errorf("composite: expected unlinked user's readings to be invisible, got %d", foreign)
		}
		return nil
	})

	// The same connection under tenant A's direct scope sees both of tenant
	// A's users but not the sub-user placed in tenant B.
	withScope(ctx, t, scope.DirectAccess(tenantA), func(ctx context.Context) error {
		users, err := countRows(ctx, `SELECT COUNT(*) FROM app_user WHERE tenant_id = $1`, tenantA)
		if err != nil {
			return err
		}
		if users != 2 {
			t.Errorf("tenant A: expected 2 users, got %d", users)
		}

		n, err := countRows(ctx, `SELECT COUNT(*) FROM app_user WHERE id = $1`, subB)
		if err != nil {
			return err
		}
		if n != 0 {
			t.Errorf("tenant A: expected tenant B's sub-user to be invisible, got %d rows", n)
		}
		return nil
	})
}
