package db

import (
	"testing"

	"github.com/vitalis/vitalis/internal/platform/scope"
)

func TestSessionSettings_Direct(t *testing.T) {
	tenantID, compositeUserID := SessionSettings(scope.DirectAccess(42))
	if tenantID != "42" || compositeUserID != NoScope {
		t.Fatalf("got (%q, %q)", tenantID, compositeUserID)
	}
}

func TestSessionSettings_Composite(t *testing.T) {
	tenantID, compositeUserID := SessionSettings(scope.CompositeAccess(9))
	if tenantID != NoScope || compositeUserID != "9" {
		t.Fatalf("got (%q, %q)", tenantID, compositeUserID)
	}
}

func TestSessionSettings_ZeroScope(t *testing.T) {
	// An unset scope must pin both parameters to the sentinel so a pooled
	// connection matches no rows rather than a stale scope's rows.
	tenantID, compositeUserID := SessionSettings(scope.Access{})
	if tenantID != NoScope || compositeUserID != NoScope {
		t.Fatalf("got (%q, %q)", tenantID, compositeUserID)
	}
}
