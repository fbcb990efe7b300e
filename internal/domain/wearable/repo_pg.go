package wearable

import (
	"context"
	"time"

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

// NewRepo creates a new Postgres-backed wearable Repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const wearableColumns = `id, tenant_id, hardware_id, model, active, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, w *Wearable) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO wearable (tenant_id, hardware_id, model, active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		w.TenantID, w.HardwareID, w.Model, w.Active,
	).Scan(&w.ID, &w.CreatedAt, &w.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Wearable, error) {
	var w Wearable
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+wearableColumns+` FROM wearable WHERE id = $1`, id,
	).Scan(&w.ID, &w.TenantID, &w.HardwareID, &w.Model, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *repoPG) Update(ctx context.Context, w *Wearable) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE wearable SET model = $2, active = $3, updated_at = NOW()
		WHERE id = $1`,
		w.ID, w.Model, w.Active,
	)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM wearable WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Wearable, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM wearable`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+wearableColumns+` FROM wearable ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var wearables []*Wearable
	for rows.Next() {
		var w Wearable
		if err := rows.Scan(&w.ID, &w.TenantID, &w.HardwareID, &w.Model, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		wearables = append(wearables, &w)
	}
	return wearables, total, rows.Err()
}

func (r *repoPG) Assign(ctx context.Context, a *Assignment) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO wearable_assignment (wearable_id, group_id, valid_from, valid_until)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		a.WearableID, a.GroupID, a.ValidFrom, a.ValidUntil,
	).Scan(&a.ID)
}

func (r *repoPG) EndAssignment(ctx context.Context, assignmentID int64, until time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE wearable_assignment SET valid_until = $2 WHERE id = $1`,
		assignmentID, until,
	)
	return err
}

func (r *repoPG) Assignments(ctx context.Context, wearableID int64) ([]*Assignment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, wearable_id, group_id, valid_from, valid_until
		FROM wearable_assignment
		WHERE wearable_id = $1
		ORDER BY valid_from DESC`,
		wearableID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.WearableID, &a.GroupID, &a.ValidFrom, &a.ValidUntil); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// currentAssignment restricts an assignment join to windows containing NOW().
const currentAssignment = `
	wa.wearable_id = $2
	AND wa.valid_from <= NOW()
	AND (wa.valid_until IS NULL OR wa.valid_until > NOW())`

func (r *repoPG) ManagerHasAccess(ctx context.Context, managerID, wearableID int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM wearable_assignment wa
			JOIN group_manager gm ON gm.group_id = wa.group_id
			WHERE gm.manager_id = $1 AND `+currentAssignment+`
		)`, managerID, wearableID,
	).Scan(&ok)
	return ok, err
}

func (r *repoPG) UserHasAccess(ctx context.Context, userID, wearableID int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM wearable_assignment wa
			JOIN group_member mem ON mem.group_id = wa.group_id
			WHERE mem.user_id = $1 AND `+currentAssignment+`
		)`, userID, wearableID,
	).Scan(&ok)
	return ok, err
}

func (r *repoPG) CompositeHasAccess(ctx context.Context, compositeUserID, wearableID int64) (bool, error) {
	var ok bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM wearable_assignment wa
			JOIN group_member mem ON mem.group_id = wa.group_id
			JOIN app_user u ON u.id = mem.user_id
			WHERE u.composite_user_id = $1 AND `+currentAssignment+`
		)`, compositeUserID, wearableID,
	).Scan(&ok)
	return ok, err
}
