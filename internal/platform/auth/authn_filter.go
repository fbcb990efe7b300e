package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vitalis/vitalis/internal/platform/scope"
)

// UserInfo is the identity-store view of a direct user.
type UserInfo struct {
	ID       int64
	TenantID int64
	Subject  string
}

// CompositeUserInfo is the identity-store view of a composite umbrella account.
type CompositeUserInfo struct {
	ID      int64
	Subject string
}

// IdentityStore resolves gateway subjects to stored identities. Lookups return
// (nil, nil) when no identity matches; a non-nil error means the store itself
// failed. Implemented by the identity domain repositories and adapted in main.
type IdentityStore interface {
	UserBySubject(ctx context.Context, tenantID int64, subject string) (*UserInfo, error)
	CompositeUserBySubject(ctx context.Context, subject string) (*CompositeUserInfo, error)
	TenantExists(ctx context.Context, tenantID int64) (bool, error)
}

// AuthnFilter resolves the concrete principal for the request within the
// access scope the identity filter established, and installs it in the request
// context. Any failure terminates the request as unauthorized; nothing may
// fall through to a handler unauthenticated.
func AuthnFilter(store IdentityStore, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			access, ok := scope.FromContext(ctx)
			if !ok {
				// Identity filter did not run: filter ordering defect.
				logger.Error().Str("path", c.Path()).Msg("no access scope established before authentication")
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}

			subject := c.Request().Header.Get(AuthSubjectHeader)
			if subject == "" {
				// The gateway always sets the subject; absence means a
				// misconfigured upstream, not a benign auth failure.
				logger.Error().Str("path", c.Path()).Msg("missing " + AuthSubjectHeader + " header; upstream gateway misconfigured")
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}

			var principal *Principal
			switch access.Kind {
			case scope.CompositeUser:
				cu, err := store.CompositeUserBySubject(ctx, subject)
				if err != nil {
					logger.Error().Err(err).Msg("composite user lookup failed")
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
				if cu == nil {
					logger.Info().Str("subject", subject).Msg("no composite user for subject")
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
				principal = &Principal{CompositeUserID: cu.ID, Subject: cu.Subject}

			default:
				exists, err := store.TenantExists(ctx, access.TenantID)
				if err != nil {
					logger.Error().Err(err).Msg("tenant lookup failed")
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
				if !exists {
					logger.Info().Int64("tenant_id", access.TenantID).Msg("scope names a nonexistent tenant")
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
				u, err := store.UserBySubject(ctx, access.TenantID, subject)
				if err != nil {
					logger.Error().Err(err).Msg("user lookup failed")
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
				if u == nil {
					// Plausibly a benign race: a caller that switched tenant
					// scope while holding a stale session.
					logger.Info().Str("subject", subject).Int64("tenant_id", access.TenantID).Msg("no user for subject in tenant")
					return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
				}
				principal = &Principal{UserID: u.ID, TenantID: u.TenantID, Subject: u.Subject}
			}

			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, principal)))
			return next(c)
		}
	}
}

// DevAuthnFilter authenticates every request as one fixed development
// identity, bypassing the subject header. Local development only.
func DevAuthnFilter(tenantID int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := &Principal{
				UserID:   1,
				TenantID: tenantID,
				Subject:  "dev-user",
				Roles:    []Role{RoleAdmin},
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(c.Request().Context(), p)))
			return next(c)
		}
	}
}
