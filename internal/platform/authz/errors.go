package authz

import (
	"errors"
	"fmt"
)

// ErrNoPrincipal is returned when an authorization check runs without an
// authenticated principal in context. Callers surface it as a denial, but it
// signals a filter-ordering defect rather than a legitimate access decision,
// so it is kept distinct for logging and monitoring.
var ErrNoPrincipal = errors.New("failed to validate authenticated user: no principal in request context")

// AccessDeniedError is a denial of a specific operation by a specific caller.
// The detail is for logs and audit; handlers surface a generic forbidden
// response regardless of the rule that triggered the denial.
type AccessDeniedError struct {
	Caller   string // subject of the denied principal
	Resource string // resource kind: user, group, wearable, tenant
	TargetID int64
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: caller %q may not operate on %s %d", e.Caller, e.Resource, e.TargetID)
}

// IsDenied reports whether err is an authorization denial, including the
// no-principal case.
func IsDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied) || errors.Is(err, ErrNoPrincipal)
}
