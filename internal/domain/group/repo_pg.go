package group

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vitalis/vitalis/internal/platform/db"
)

type queryable interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepo creates a new Postgres-backed group Repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const groupColumns = `id, tenant_id, name, description, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, g *Group) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO user_group (tenant_id, name, description) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		g.TenantID, g.Name, g.Description,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Group, error) {
	var g Group
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+groupColumns+` FROM user_group WHERE id = $1`, id,
	).Scan(&g.ID, &g.TenantID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repoPG) Update(ctx context.Context, g *Group) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE user_group SET name = $2, description = $3, updated_at = NOW()
		WHERE id = $1`,
		g.ID, g.Name, g.Description,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM user_group WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Group, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM user_group`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+groupColumns+` FROM user_group ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.TenantID, &g.Name, &g.Description, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, 0, err
		}
		groups = append(groups, &g)
	}
	return groups, total, rows.Err()
}

func (r *repoPG) AddMember(ctx context.Context, groupID, userID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO group_member (group_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		groupID, userID,
	)
	return err
}

func (r *repoPG) RemoveMember(ctx context.Context, groupID, userID int64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM group_member WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	return err
}

func (r *repoPG) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT user_id FROM group_member WHERE group_id = $1 ORDER BY user_id`, groupID)
}

func (r *repoPG) IsMember(ctx context.Context, userID, groupID int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_member WHERE group_id = $1 AND user_id = $2
		)`, groupID, userID,
	).Scan(&ok)
	return ok, err
}

func (r *repoPG) AddManager(ctx context.Context, groupID, managerID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO group_manager (group_id, manager_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		groupID, managerID,
	)
	return err
}

func (r *repoPG) RemoveManager(ctx context.Context, groupID, managerID int64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM group_manager WHERE group_id = $1 AND manager_id = $2`,
		groupID, managerID,
	)
	return err
}

func (r *repoPG) ManagerIDs(ctx context.Context, groupID int64) ([]int64, error) {
	return r.ids(ctx, `SELECT manager_id FROM group_manager WHERE group_id = $1 ORDER BY manager_id`, groupID)
}

func (r *repoPG) ManagesGroup(ctx context.Context, managerID, groupID int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM group_manager WHERE group_id = $1 AND manager_id = $2
		)`, groupID, managerID,
	).Scan(&ok)
	return ok, err
}

func (r *repoPG) ManagesUser(ctx context.Context, managerID, userID int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM group_manager gm
			JOIN group_member mem ON mem.group_id = gm.group_id
			WHERE gm.manager_id = $1 AND mem.user_id = $2
		)`, managerID, userID,
	).Scan(&ok)
	return ok, err
}

func (r *repoPG) ids(ctx context.Context, query string, arg int64) ([]int64, error) {
	rows, err := r.conn(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
