package db

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vitalis/vitalis/internal/platform/scope"
)

type contextKey string

const (
	// DBConnKey is the context key under which the request-scoped connection
	// is stored.
	DBConnKey contextKey = "db_conn"

	// TenantParam and CompositeUserParam are the session settings read by the
	// row-level-security policies defined in the schema migrations.
	TenantParam        = "app.tenant_id"
	CompositeUserParam = "app.composite_user_id"

	// NoScope is the sentinel value for the side of the scope that is not
	// active. Real ids start at 1, so "0" never matches a row.
	NoScope = "0"
)

// SessionSettings maps an access scope to the (tenant, composite user) session
// parameter values. Exactly one side carries a real id; the other carries the
// NoScope sentinel.
func SessionSettings(a scope.Access) (tenantID, compositeUserID string) {
	if a.Kind == scope.CompositeUser {
		return NoScope, strconv.FormatInt(a.CompositeUserID, 10)
	}
	return strconv.FormatInt(a.TenantID, 10), NoScope
}

// Acquire checks a connection out of the pool and applies the current access
// scope as session settings, so that row-security policies filter every
// statement issued on the connection. The settings are re-applied on every
// checkout: pooled connections must never retain a previous request's scope.
//
// A failure to apply the settings is logged and the connection is still
// returned; application-level authorization remains in force, the schema-level
// enforcement is merely degraded for this one connection.
func Acquire(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) (*pgxpool.Conn, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	access, ok := scope.FromContext(ctx)
	if !ok {
		// No scope established (CLI commands, migrations). Reset both
		// parameters so a pooled connection cannot leak a stale scope.
		access = scope.Access{}
	}

	tenantID, compositeUserID := SessionSettings(access)
	_, err = conn.Exec(ctx,
		`SELECT set_config($1, $2, false), set_config($3, $4, false)`,
		TenantParam, tenantID, CompositeUserParam, compositeUserID)
	if err != nil {
		logger.Error().Err(err).
			Str("caller_kind", access.Kind.String()).
			Msg("failed to apply row-security session settings; schema-level enforcement degraded for this connection")
	}

	return conn, nil
}

// RLSMiddleware acquires a scope-configured connection for the duration of the
// request and stores it in the request context for repositories. It must run
// after the identity filter has established the access scope.
func RLSMiddleware(pool *pgxpool.Pool, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			conn, err := Acquire(ctx, pool, logger)
			if err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "database unavailable")
			}
			defer conn.Release()

			ctx = context.WithValue(ctx, DBConnKey, conn)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// ConnFromContext retrieves the scope-configured database connection from context.
func ConnFromContext(ctx context.Context) *pgxpool.Conn {
	conn, _ := ctx.Value(DBConnKey).(*pgxpool.Conn)
	return conn
}
