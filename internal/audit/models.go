package audit

import "time"

// Actions recorded on the delegation trail.
const (
	ActionInvitationIssued   = "invitation_issued"
	ActionInvitationRedeemed = "invitation_redeemed"
	ActionConfirmed          = "delegation_confirmed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	// UserID is the account the action was performed on.
	UserID string `json:"userId"`
	// Actor is the authenticated caller, when known.
	Actor  string `json:"actor,omitempty"`
	Action string `json:"action"`
	// Counterparty is the other side of the delegation, by email.
	Counterparty string `json:"counterparty,omitempty"`
	Detail       string `json:"detail,omitempty"`
}
