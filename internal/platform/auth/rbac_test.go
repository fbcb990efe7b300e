package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func rbacProbe(t *testing.T, mw echo.MiddlewareFunc, p *Principal) error {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	if p != nil {
		req = req.WithContext(WithPrincipal(req.Context(), p))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	return mw(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})(c)
}

func TestRequireRole_Allowed(t *testing.T) {
	p := &Principal{UserID: 7, Subject: "alice", Roles: []Role{RoleManager}}
	if err := rbacProbe(t, RequireRole(RoleAdmin, RoleManager), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireRole_Forbidden(t *testing.T) {
	p := &Principal{UserID: 7, Subject: "alice", Roles: []Role{RoleUser}}
	err := rbacProbe(t, RequireRole(RoleAdmin), p)
	wantHTTPStatus(t, err, http.StatusForbidden)
}

func TestRequireRole_NoPrincipal(t *testing.T) {
	err := rbacProbe(t, RequireRole(RoleAdmin), nil)
	wantHTTPStatus(t, err, http.StatusUnauthorized)
}
