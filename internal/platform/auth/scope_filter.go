package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/vitalis/vitalis/internal/platform/scope"
)

// Headers populated by the upstream gateway. The gateway has already
// authenticated the caller; these values are trusted as-is.
const (
	CallerKindHeader      = "X-Caller-Kind"
	TenantIDHeader        = "X-Tenant-ID"
	CompositeUserIDHeader = "X-Composite-User-ID"
	AuthSubjectHeader     = "X-Auth-Subject"
	AuthRolesHeader       = "X-Auth-Roles"
)

// CallerKindComposite is the recognized composite value of the caller-kind
// header. Any other value selects direct-user scoping.
const CallerKindComposite = "composite"

// ScopeFilter resolves the access scope for the request from the gateway
// headers and stores it in the request context. It runs before authentication;
// every later stage (connection checkout, identity resolution, authorization)
// reads the scope it establishes.
func ScopeFilter() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			kind := c.Request().Header.Get(CallerKindHeader)
			if kind == "" {
				return echo.NewHTTPError(http.StatusBadRequest,
					"missing required header "+CallerKindHeader)
			}

			var access scope.Access
			if strings.EqualFold(kind, CallerKindComposite) {
				id, err := strconv.ParseInt(c.Request().Header.Get(CompositeUserIDHeader), 10, 64)
				if err != nil || id <= 0 {
					return echo.NewHTTPError(http.StatusBadRequest,
						"missing or invalid header "+CompositeUserIDHeader)
				}
				access = scope.CompositeAccess(id)
			} else {
				id, err := strconv.ParseInt(c.Request().Header.Get(TenantIDHeader), 10, 64)
				if err != nil || id <= 0 {
					return echo.NewHTTPError(http.StatusBadRequest,
						"missing or invalid header "+TenantIDHeader)
				}
				access = scope.DirectAccess(id)
			}

			c.SetRequest(c.Request().WithContext(scope.WithAccess(c.Request().Context(), access)))
			return next(c)
		}
	}
}

// DevScopeFilter unconditionally scopes every request to the given tenant,
// skipping all header checks. Local development only; config.Validate refuses
// to start production with the dev filters active.
func DevScopeFilter(tenantID int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := scope.WithAccess(c.Request().Context(), scope.DirectAccess(tenantID))
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
