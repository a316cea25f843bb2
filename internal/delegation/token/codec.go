// Package token mints and verifies invitation tokens.
//
// An invitation token is the bearer credential proving a designator nominated
// a specific email address. It travels out of band (email deep link) and must
// survive the invitee not yet having an account, so it is a self-contained
// signed JWT rather than a store reference. Tokens deliberately carry no
// expiry: the designator's invitation stands until superseded, matching the
// original service's behavior.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	dErrors "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain-errors"
)

// Claim names are the original wire names; changing them would invalidate
// tokens already sitting in inboxes.
const (
	claimDesignatorID    = "managedUserId"
	claimDesignatorEmail = "managedUserEmail"
	claimInviteeEmail    = "trustedUserEmail"
)

// Claims is the verified payload of an invitation token.
type Claims struct {
	DesignatorID    id.UserID
	DesignatorEmail string
	InviteeEmail    string
	// JTI uniquely identifies this issuance; the redemption ledger keys on
	// it to enforce first-redeemer-wins.
	JTI string
}

// Codec signs and verifies invitation tokens with the process-wide secret.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue mints a signed invitation token. No exp claim on purpose.
func (c *Codec) Issue(designatorID id.UserID, designatorEmail, inviteeEmail string) (string, error) {
	if designatorID.IsNil() || designatorEmail == "" || inviteeEmail == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invitation token requires designator id, designator email and invitee email")
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		claimDesignatorID:    designatorID.String(),
		claimDesignatorEmail: designatorEmail,
		claimInviteeEmail:    inviteeEmail,
		"jti":                uuid.New().String(),
		"iat":                time.Now().Unix(),
	})
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to sign invitation token")
	}
	return signed, nil
}

// Verify checks signature and payload. Every failure collapses into
// invalid_token; the codec never fails open.
func (c *Codec) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidToken, "invitation token is invalid")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invitation token is invalid")
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invitation token is invalid")
	}

	rawID, _ := mapClaims[claimDesignatorID].(string)
	designatorEmail, _ := mapClaims[claimDesignatorEmail].(string)
	inviteeEmail, _ := mapClaims[claimInviteeEmail].(string)
	jti, _ := mapClaims["jti"].(string)

	designatorID, err := id.ParseUserID(rawID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invitation token is missing a valid designator id")
	}
	if designatorEmail == "" || inviteeEmail == "" || jti == "" {
		return nil, dErrors.New(dErrors.CodeInvalidToken, "invitation token is missing required fields")
	}

	return &Claims{
		DesignatorID:    designatorID,
		DesignatorEmail: designatorEmail,
		InviteeEmail:    inviteeEmail,
		JTI:             jti,
	}, nil
}
