package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/vitalis/vitalis/internal/platform/db"
	"github.com/vitalis/vitalis/internal/platform/scope"
)

// testDB holds the shared database infrastructure for integration tests.
//
// AdminPool connects as the container superuser and is used only for
// migrations and seeding; superusers bypass row security entirely. AppPool
// connects as a plain application role that neither owns the tables nor holds
// any bypass attribute, so every statement on it goes through the row-security
// policies, exactly as in production. AppPool is capped at one connection so
// that consecutive checkouts under different scopes reuse the same physical
// connection.
type testDB struct {
	AdminPool     *pgxpool.Pool
	AppPool       *pgxpool.Pool
	ConnStr       string
	MigrationsDir string
}

// globalDB is the package-level test database, initialized once in TestMain.
var globalDB *testDB

const (
	appRole     = "vitalis_app"
	appPassword = "apppass"
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	tdb, cleanup, err := setupDatabase(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup postgres container: %v\n", err)
		os.Exit(1)
	}

	globalDB = tdb
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setupDatabase(ctx context.Context) (*testDB, func(), error) {
	migrationsDir := findMigrationsDir()

	connStr, stopContainer, err := startPostgresContainer(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres container: %w", err)
	}

	adminPool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		stopContainer()
		return nil, nil, fmt.Errorf("create admin pool: %w", err)
	}

	if _, err := db.NewMigrator(adminPool, migrationsDir).Up(ctx); err != nil {
		adminPool.Close()
		stopContainer()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	if err := createAppRole(ctx, adminPool); err != nil {
		adminPool.Close()
		stopContainer()
		return nil, nil, fmt.Errorf("create application role: %w", err)
	}

	appPool, err := newAppPool(ctx, connStr)
	if err != nil {
		adminPool.Close()
		stopContainer()
		return nil, nil, fmt.Errorf("create app pool: %w", err)
	}

	cleanup := func() {
		appPool.Close()
		adminPool.Close()
		stopContainer()
	}

	return &testDB{
		AdminPool:     adminPool,
		AppPool:       appPool,
		ConnStr:       connStr,
		MigrationsDir: migrationsDir,
	}, cleanup, nil
}

// createAppRole provisions the role the application connects as: LOGIN plus
// table grants, nothing more. It must not own the tables, since owners bypass
// row security unless FORCE is set.
func createAppRole(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		fmt.Sprintf("CREATE ROLE %s LOGIN PASSWORD '%s'", appRole, appPassword),
		fmt.Sprintf("GRANT USAGE ON SCHEMA public TO %s", appRole),
		fmt.Sprintf("GRANT SELECT, INSERT, UPDATE, DELETE ON ALL TABLES IN SCHEMA public TO %s", appRole),
		fmt.Sprintf("GRANT USAGE, SELECT ON ALL SEQUENCES IN SCHEMA public TO %s", appRole),
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("exec %q: %w", s, err)
		}
	}
	return nil
}

// newAppPool opens a single-connection pool as the application role.
func newAppPool(ctx context.Context, adminConnStr string) (*pgxpool.Pool, error) {
	connStr := strings.Replace(adminConnStr,
		"testuser:testpass", appRole+":"+appPassword, 1)

	cfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse app conn string: %w", err)
	}
	cfg.MaxConns = 1
	cfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping as %s: %w", appRole, err)
	}
	return pool, nil
}

// findMigrationsDir locates the migrations directory relative to this test file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)
	// test/integration -> module root
	root := filepath.Join(dir, "..", "..")
	return filepath.Join(root, "migrations")
}

// withScope checks a connection out of the single-connection app pool with the
// given access scope applied, stores it in the context the way the request
// middleware does, and passes the context to the callback. The connection is
// released afterwards, so the next withScope call gets the same physical
// connection back.
func withScope(ctx context.Context, t *testing.T, access scope.Access, fn func(ctx context.Context) error) {
	t.Helper()

	ctx = scope.WithAccess(ctx, access)
	conn, err := db.Acquire(ctx, globalDB.AppPool, zerolog.Nop())
	if err != nil {
		t.Fatalf("acquire scoped connection: %v", err)
	}
	defer conn.Release()

	ctx = context.WithValue(ctx, db.DBConnKey, conn)
	if err := fn(ctx); err != nil {
		t.Fatalf("scoped callback: %v", err)
	}
}

// withoutScope checks a connection out with no access scope established, as a
// background job or CLI command would.
func withoutScope(ctx context.Context, t *testing.T, fn func(ctx context.Context) error) {
	t.Helper()

	conn, err := db.Acquire(ctx, globalDB.AppPool, zerolog.Nop())
	if err != nil {
		t.Fatalf("acquire unscoped connection: %v", err)
	}
	defer conn.Release()

	ctx = context.WithValue(ctx, db.DBConnKey, conn)
	if err := fn(ctx); err != nil {
		t.Fatalf("unscoped callback: %v", err)
	}
}

// countRows runs a COUNT query on the scoped connection stored in ctx.
func countRows(ctx context.Context, sql string, args ...interface{}) (int, error) {
	conn := db.ConnFromContext(ctx)
	var n int
	if err := conn.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Seed helpers run on the admin pool, which bypasses row security.

func seedTenant(t *testing.T, ctx context.Context, name string) int64 {
	t.Helper()
	var id int64
	err := globalDB.AdminPool.QueryRow(ctx,
		`INSERT INTO tenant (name, max_users) VALUES ($1, 100) RETURNING id`,
		name).Scan(&id)
	if err != nil {
		t.Fatalf("seed tenant %s: %v", name, err)
	}
	return id
}

func seedCompositeUser(t *testing.T, ctx context.Context, subject, name string) int64 {
	t.Helper()
	var id int64
	err := globalDB.AdminPool.QueryRow(ctx,
		`INSERT INTO composite_user (subject, name) VALUES ($1, $2) RETURNING id`,
		subject, name).Scan(&id)
	if err != nil {
		t.Fatalf("seed composite user %s: %v", subject, err)
	}
	return id
}

func seedUser(t *testing.T, ctx context.Context, tenantID int64, subject string, compositeUserID *int64) int64 {
	t.Helper()
	var id int64
	err := globalDB.AdminPool.QueryRow(ctx,
		`INSERT INTO app_user (tenant_id, composite_user_id, subject, active)
		 VALUES ($1, $2, $3, TRUE) RETURNING id`,
		tenantID, compositeUserID, subject).Scan(&id)
	if err != nil {
		t.Fatalf("seed user %s: %v", subject, err)
	}
	return id
}

func seedWearable(t *testing.T, ctx context.Context, tenantID int64) int64 {
	t.Helper()
	var id int64
	err := globalDB.AdminPool.QueryRow(ctx,
		`INSERT INTO wearable (tenant_id, hardware_id, model, active)
		 VALUES ($1, $2, 'test-band', TRUE) RETURNING id`,
		tenantID, uuid.New()).Scan(&id)
	if err != nil {
		t.Fatalf("seed wearable for tenant %d: %v", tenantID, err)
	}
	return id
}

func seedReading(t *testing.T, ctx context.Context, tenantID, userID, wearableID int64, kind string, value float64) {
	t.Helper()
	_, err := globalDB.AdminPool.Exec(ctx,
		`INSERT INTO reading (tenant_id, user_id, wearable_id, kind, value, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		tenantID, userID, wearableID, kind, value, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed reading for user %d: %v", userID, err)
	}
}
