// Package ledger tracks which invitation tokens have been redeemed.
//
// Each issued token carries a unique jti. The first account to redeem a jti
// claims it; the same account may redeem again (idempotent retry after a
// dropped response), any other account is refused.
package ledger

import (
	"context"

	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
)

// Ledger records invitation token redemptions.
type Ledger interface {
	// Mark claims jti for userID. Returns nil when the claim succeeds or the
	// same user already holds it, sentinel.ErrAlreadyUsed when a different
	// user holds it.
	Mark(ctx context.Context, jti string, userID id.UserID) error
}
