package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/vitalis/vitalis/internal/platform/scope"
)

// scopeProbe runs the filter and captures the scope the next handler sees.
func scopeProbe(t *testing.T, mw echo.MiddlewareFunc, headers map[string]string) (scope.Access, bool, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured scope.Access
	var ok bool
	err := mw(func(c echo.Context) error {
		captured, ok = scope.FromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	return captured, ok, err
}

func wantHTTPStatus(t *testing.T, err error, status int) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	if he.Code != status {
		t.Fatalf("expected status %d, got %d (%v)", status, he.Code, he.Message)
	}
}

func TestScopeFilter_DirectUser(t *testing.T) {
	access, ok, err := scopeProbe(t, ScopeFilter(), map[string]string{
		CallerKindHeader: "user",
		TenantIDHeader:   "42",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("no scope installed")
	}
	if access.Kind != scope.DirectUser || access.TenantID != 42 {
		t.Fatalf("unexpected access: %+v", access)
	}
}

func TestScopeFilter_CompositeUser(t *testing.T) {
	access, ok, err := scopeProbe(t, ScopeFilter(), map[string]string{
		CallerKindHeader:      "Composite",
		CompositeUserIDHeader: "9",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("no scope installed")
	}
	if access.Kind != scope.CompositeUser || access.CompositeUserID != 9 {
		t.Fatalf("unexpected access: %+v", access)
	}
}

func TestScopeFilter_MissingKind(t *testing.T) {
	_, _, err := scopeProbe(t, ScopeFilter(), nil)
	wantHTTPStatus(t, err, http.StatusBadRequest)
}

func TestScopeFilter_BadTenantID(t *testing.T) {
	for _, tenantID := range []string{"", "abc", "0", "-3"} {
		_, _, err := scopeProbe(t, ScopeFilter(), map[string]string{
			CallerKindHeader: "user",
			TenantIDHeader:   tenantID,
		})
		wantHTTPStatus(t, err, http.StatusBadRequest)
	}
}

func TestScopeFilter_BadCompositeUserID(t *testing.T) {
	for _, id := range []string{"", "xyz", "0"} {
		_, _, err := scopeProbe(t, ScopeFilter(), map[string]string{
			CallerKindHeader:      CallerKindComposite,
			CompositeUserIDHeader: id,
		})
		wantHTTPStatus(t, err, http.StatusBadRequest)
	}
}

func TestDevScopeFilter_IgnoresHeaders(t *testing.T) {
	access, ok, err := scopeProbe(t, DevScopeFilter(7), map[string]string{
		CallerKindHeader:      CallerKindComposite,
		CompositeUserIDHeader: "99",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("no scope installed")
	}
	if access.Kind != scope.DirectUser || access.TenantID != 7 {
		t.Fatalf("expected direct scope for tenant 7, got %+v", access)
	}
}
