package handler

import (
	"strings"

	dErrors "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain-errors"
)

// IssueInvitationRequest is the body of PATCH /api/auth/{userId}/trustedUser.
// The account password rides along because nomination is re-authenticated.
type IssueInvitationRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
}

func (r *IssueInvitationRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeBadRequest, "email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return dErrors.New(dErrors.CodeBadRequest, "email is not a valid address")
	}
	if r.CurrentPassword == "" {
		return dErrors.New(dErrors.CodeBadRequest, "currentPassword is required")
	}
	return nil
}
