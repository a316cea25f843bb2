package models

import (
	"strings"
	"time"

	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	dErrors "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain-errors"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
)

// TrustedUser records who this user nominated to judge their status.
// UserID stays nil until the invitee redeems the invitation token; Confirmed
// flips only through the mutual confirmation step.
type TrustedUser struct {
	Email     string     `json:"email"`
	UserID    *id.UserID `json:"userId,omitempty"`
	Confirmed bool       `json:"confirmed"`
}

// ManagedUser is one designator this account has been nominated to judge.
type ManagedUser struct {
	Email     string    `json:"email"`
	UserID    id.UserID `json:"userId"`
	Confirmed bool      `json:"confirmed"`
}

// User is the aggregate root for an account.
//
// Invariants:
//   - Email is non-empty and unique across the store
//   - At most one ManagedUsers entry per distinct designator ID
//   - Once both sides of a delegation exist, the TrustedUser.Confirmed flag
//     on the designator and the matching ManagedUsers entry on the trustee
//     carry the same value; mutation goes through Confirm only
//
// PasswordHash is never serialized; responses carry everything else.
type User struct {
	ID           id.UserID     `json:"id"`
	Email        string        `json:"email"`
	FullName     string        `json:"fullName"`
	DateOfBirth  string        `json:"dateOfBirth,omitempty"`
	PasswordHash string        `json:"-"`
	TrustedUser  *TrustedUser  `json:"trustedUser,omitempty"`
	ManagedUsers []ManagedUser `json:"managedUsers"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

func NewUser(userID id.UserID, email, fullName, passwordHash string, now time.Time) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email cannot be empty")
	}
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "full name cannot be empty")
	}
	return &User{
		ID:           userID,
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		ManagedUsers: []ManagedUser{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Nominate replaces the trusted-user nomination with a fresh pending one.
// Overwrite is unconditional: issuing a new invitation supersedes any prior
// nomination, confirmed or not (last write wins).
func (u *User) Nominate(inviteeEmail string, now time.Time) {
	u.TrustedUser = &TrustedUser{Email: inviteeEmail, Confirmed: false}
	u.UpdatedAt = now
}

// ManagedUserFor finds the managed entry for a designator, if any.
func (u *User) ManagedUserFor(designator id.UserID) (int, bool) {
	for i := range u.ManagedUsers {
		if u.ManagedUsers[i].UserID == designator {
			return i, true
		}
	}
	return -1, false
}

// LinkManagedUser appends a pending managed entry unless one already exists
// for the same designator. Reports whether the entry was appended, so redeem
// can skip the store write on a repeat redemption.
func (u *User) LinkManagedUser(entry ManagedUser, now time.Time) bool {
	if _, ok := u.ManagedUserFor(entry.UserID); ok {
		return false
	}
	u.ManagedUsers = append(u.ManagedUsers, entry)
	u.UpdatedAt = now
	return true
}

// ConfirmManagedUser marks the managed entry for a designator as confirmed.
// Returns sentinel.ErrNotFound when no entry exists. Confirming an already
// confirmed entry is a no-op so Confirm retries converge.
func (u *User) ConfirmManagedUser(designator id.UserID, now time.Time) error {
	i, ok := u.ManagedUserFor(designator)
	if !ok {
		return sentinel.ErrNotFound
	}
	u.ManagedUsers[i].Confirmed = true
	u.UpdatedAt = now
	return nil
}

// ApplyTrusteeConfirmation finalizes the designator side: the existing
// nominated email is kept, the trustee's account ID is linked, and the
// relation flips to confirmed. Returns sentinel.ErrInvalidState when no
// nomination exists to confirm.
func (u *User) ApplyTrusteeConfirmation(trustee id.UserID, now time.Time) error {
	if u.TrustedUser == nil {
		return sentinel.ErrInvalidState
	}
	linked := trustee
	u.TrustedUser = &TrustedUser{
		Email:     u.TrustedUser.Email,
		UserID:    &linked,
		Confirmed: true,
	}
	u.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so in-memory store reads never alias the stored
// record's slices.
func (u *User) Clone() *User {
	clone := *u
	if u.TrustedUser != nil {
		tu := *u.TrustedUser
		if u.TrustedUser.UserID != nil {
			linked := *u.TrustedUser.UserID
			tu.UserID = &linked
		}
		clone.TrustedUser = &tu
	}
	clone.ManagedUsers = make([]ManagedUser, len(u.ManagedUsers))
	copy(clone.ManagedUsers, u.ManagedUsers)
	return &clone
}
