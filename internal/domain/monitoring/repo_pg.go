package monitoring

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

// NewRepo creates a new Postgres-backed readings Repository.
func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const readingColumns = `id, tenant_id, user_id, wearable_id, kind, value, recorded_at`

func (r *repoPG) Insert(ctx context.Context, rd *Reading) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO reading (tenant_id, user_id, wearable_id, kind, value, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		rd.TenantID, rd.UserID, rd.WearableID, rd.Kind, rd.Value, rd.RecordedAt,
	).Scan(&rd.ID)
}

func (r *repoPG) ListByUser(ctx context.Context, userID int64, limit, offset int) ([]*Reading, int, error) {
	return r.list(ctx, `user_id`, userID, limit, offset)
}

func (r *repoPG) ListByWearable(ctx context.Context, wearableID int64, limit, offset int) ([]*Reading, int, error) {
	return r.list(ctx, `wearable_id`, wearableID, limit, offset)
}

func (r *repoPG) list(ctx context.Context, column string, id int64, limit, offset int) ([]*Reading, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM reading WHERE `+column+` = $1`, id,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+readingColumns+` FROM reading WHERE `+column+` = $1
		 ORDER BY recorded_at DESC LIMIT $2 OFFSET $3`,
		id, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var readings []*Reading
	for rows.Next() {
		var rd Reading
		if err := rows.Scan(&rd.ID, &rd.TenantID, &rd.UserID, &rd.WearableID, &rd.Kind, &rd.Value, &rd.RecordedAt); err != nil {
			return nil, 0, err
		}
		readings = append(readings, &rd)
	}
	return readings, total, rows.Err()
}

func (r *repoPG) ValuesByUser(ctx context.Context, userID int64, kind ReadingKind, from, to time.Time) ([]float64, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT value FROM reading
		WHERE user_id = $1 AND kind = $2 AND recorded_at >= $3 AND recorded_at < $4
		ORDER BY recorded_at`,
		userID, kind, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
