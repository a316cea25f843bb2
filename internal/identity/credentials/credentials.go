// Package credentials re-verifies account passwords for sensitive
// operations. Nominating a trusted user grants future control over the
// account's disclosure, so the stored credential is checked again even on an
// already-authenticated request.
package credentials

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrMismatch reports that the supplied password does not match the stored
// hash. Anything else is an infrastructure failure.
var ErrMismatch = errors.New("password mismatch")

// Verifier checks a plaintext password against a stored hash.
type Verifier interface {
	Verify(passwordHash, password string) error
}

// BcryptVerifier verifies bcrypt hashes, the scheme the user records store.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(passwordHash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("compare password hash: %w", err)
	}
	return nil
}

// HashPassword hashes a plaintext password for storage. Used by the dev seed
// and by tests; account registration itself lives outside this service.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
