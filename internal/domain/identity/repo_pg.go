package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalis/vitalis/internal/platform/db"
)

// queryable abstracts pgxpool.Pool and pgxpool.Conn so that queries run on the
// request's scope-configured connection when one is present.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// -- Tenant Repository --

type tenantRepoPG struct {
	pool *pgxpool.Pool
}

// NewTenantRepo creates a new Postgres-backed TenantRepository.
func NewTenantRepo(pool *pgxpool.Pool) TenantRepository {
	return &tenantRepoPG{pool: pool}
}

func (r *tenantRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const tenantColumns = `id, name, max_users, created_at, updated_at`

func (r *tenantRepoPG) Create(ctx context.Context, t *Tenant) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO tenant (name, max_users) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		t.Name, t.MaxUsers,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *tenantRepoPG) GetByID(ctx context.Context, id int64) (*Tenant, error) {
	var t Tenant
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenant WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.MaxUsers, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tenantRepoPG) Update(ctx context.Context, t *Tenant) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE tenant SET name = $2, max_users = $3, updated_at = NOW()
		WHERE id = $1`,
		t.ID, t.Name, t.MaxUsers,
	)
	return err
}

func (r *tenantRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM tenant WHERE id = $1`, id)
	return err
}

func (r *tenantRepoPG) List(ctx context.Context, limit, offset int) ([]*Tenant, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM tenant`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+tenantColumns+` FROM tenant ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.MaxUsers, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, &t)
	}
	return tenants, total, rows.Err()
}

func (r *tenantRepoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenant WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *tenantRepoPG) CountUsers(ctx context.Context, id int64) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM app_user WHERE tenant_id = $1`, id).Scan(&count)
	return count, err
}

// -- User Repository --

type userRepoPG struct {
	pool *pgxpool.Pool
}

// NewUserRepo creates a new Postgres-backed UserRepository.
func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const userColumns = `id, tenant_id, composite_user_id, subject, email, first_name, last_name, birth_date, active, created_at, updated_at`

func (r *userRepoPG) Create(ctx context.Context, u *User) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO app_user (tenant_id, composite_user_id, subject, email, first_name, last_name, birth_date, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		u.TenantID, u.CompositeUserID, u.Subject, u.Email, u.FirstName, u.LastName, u.BirthDate, u.Active,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *userRepoPG) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, id))
}

func (r *userRepoPG) GetBySubject(ctx context.Context, tenantID int64, subject string) (*User, error) {
	u, err := r.scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE tenant_id = $1 AND subject = $2`, tenantID, subject))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepoPG) Update(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE app_user SET
			composite_user_id = $2, email = $3, first_name = $4, last_name = $5,
			birth_date = $6, active = $7, updated_at = NOW()
		WHERE id = $1`,
		u.ID, u.CompositeUserID, u.Email, u.FirstName, u.LastName, u.BirthDate, u.Active,
	)
	return err
}

func (r *userRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	return err
}

func (r *userRepoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM app_user`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM app_user ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.TenantID, &u.CompositeUserID, &u.Subject, &u.Email,
			&u.FirstName, &u.LastName, &u.BirthDate, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, &u)
	}
	return users, total, rows.Err()
}

func (r *userRepoPG) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.TenantID, &u.CompositeUserID, &u.Subject, &u.Email,
		&u.FirstName, &u.LastName, &u.BirthDate, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// -- CompositeUser Repository --

type compositeUserRepoPG struct {
	pool *pgxpool.Pool
}

// NewCompositeUserRepo creates a new Postgres-backed CompositeUserRepository.
func NewCompositeUserRepo(pool *pgxpool.Pool) CompositeUserRepository {
	return &compositeUserRepoPG{pool: pool}
}

func (r *compositeUserRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const compositeColumns = `id, subject, name, created_at, updated_at`

func (r *compositeUserRepoPG) Create(ctx context.Context, cu *CompositeUser) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO composite_user (subject, name) VALUES ($1, $2)
		RETURNING id, created_at, updated_at`,
		cu.Subject, cu.Name,
	).Scan(&cu.ID, &cu.CreatedAt, &cu.UpdatedAt)
}

func (r *compositeUserRepoPG) GetByID(ctx context.Context, id int64) (*CompositeUser, error) {
	var cu CompositeUser
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+compositeColumns+` FROM composite_user WHERE id = $1`, id,
	).Scan(&cu.ID, &cu.Subject, &cu.Name, &cu.CreatedAt, &cu.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &cu, nil
}

func (r *compositeUserRepoPG) GetBySubject(ctx context.Context, subject string) (*CompositeUser, error) {
	var cu CompositeUser
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+compositeColumns+` FROM composite_user WHERE subject = $1`, subject,
	).Scan(&cu.ID, &cu.Subject, &cu.Name, &cu.CreatedAt, &cu.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cu, nil
}

func (r *compositeUserRepoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM composite_user WHERE id = $1`, id)
	return err
}

func (r *compositeUserRepoPG) List(ctx context.Context, limit, offset int) ([]*CompositeUser, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM composite_user`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+compositeColumns+` FROM composite_user ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*CompositeUser
	for rows.Next() {
		var cu CompositeUser
		if err := rows.Scan(&cu.ID, &cu.Subject, &cu.Name, &cu.CreatedAt, &cu.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &cu)
	}
	return out, total, rows.Err()
}

func (r *compositeUserRepoPG) SubUserIDs(ctx context.Context, id int64) ([]int64, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT id FROM app_user WHERE composite_user_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var uid int64
		if err := rows.Scan(&uid); err != nil {
			return nil, err
		}
		ids = append(ids, uid)
	}
	return ids, rows.Err()
}

func (r *compositeUserRepoPG) OwnsUser(ctx context.Context, id, userID int64) (bool, error) {
	var owns bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM app_user WHERE id = $1 AND composite_user_id = $2)`,
		userID, id).Scan(&owns)
	return owns, err
}
