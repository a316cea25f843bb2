// Package access enforces the owner-only rule for delegation endpoints: a
// caller may read or mutate only the user record whose id appears in the
// request path.
package access

import (
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	dErrors "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain-errors"
)

// Check compares the authenticated caller against the target user id.
// A nil caller means the request never passed authentication.
func Check(authenticated, target id.UserID) error {
	if authenticated.IsNil() {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if authenticated != target {
		return dErrors.New(dErrors.CodeForbidden, "callers may only act on their own account")
	}
	return nil
}
