package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// externalRoles maps the role names the gateway emits to internal authorities.
// Every external name maps to exactly one role; names outside this table are
// dropped, never escalated.
var externalRoles = map[string]Role{
	"ROLE_ADMIN":   RoleAdmin,
	"ROLE_MANAGER": RoleManager,
	"ROLE_USER":    RoleUser,
}

// MapExternalRoles resolves a comma-separated gateway role list to the
// internal role set. Unrecognized names are returned in dropped; an empty
// result defaults to USER.
func MapExternalRoles(header string) (roles []Role, dropped []string) {
	seen := make(map[Role]bool, 3)
	for _, name := range strings.Split(header, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		role, ok := externalRoles[name]
		if !ok {
			dropped = append(dropped, name)
			continue
		}
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		roles = []Role{RoleUser}
	}
	return roles, dropped
}

// RoleFilter attaches the caller's authorities to the already-authenticated
// principal. It must run after AuthnFilter; a missing principal is a filter
// ordering defect and terminates the request.
func RoleFilter(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p == nil {
				logger.Error().Str("path", c.Path()).Msg("role filter ran without an authenticated principal")
				return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
			}

			roles, dropped := MapExternalRoles(c.Request().Header.Get(AuthRolesHeader))
			for _, name := range dropped {
				logger.Warn().Str("role", name).Str("subject", p.Subject).Msg("dropping unrecognized external role")
			}
			p.Roles = roles

			return next(c)
		}
	}
}

// DevRoleFilter unconditionally grants ADMIN. Local development only.
func DevRoleFilter() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if p := PrincipalFromContext(c.Request().Context()); p != nil {
				p.Roles = []Role{RoleAdmin}
			}
			return next(c)
		}
	}
}
