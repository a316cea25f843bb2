// Package service implements the delegation lifecycle: a designator nominates
// a trusted contact by email, the invitee redeems the emailed token into a
// pending link, and confirmation makes both user records consistent.
package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/audit"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/ledger"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/metrics"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/token"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/credentials"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/store"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	dErrors "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain-errors"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/sentinel"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/requestcontext"
)

// InvitationSender delivers the invitation email. Delivery is fire-and-forget;
// a send error never fails the nomination.
type InvitationSender interface {
	SendInvitation(inviteeEmail, designatorName, token string) error
}

// TxRunner executes fn atomically when the backing store supports it. The
// default passthrough runner gives no atomicity; Confirm documents the
// partial-state contract for that case.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// AuditEmitter records delegation actions on the audit trail.
type AuditEmitter interface {
	Emit(ctx context.Context, event audit.Event)
}

// Service coordinates user records, the token codec, the redemption ledger
// and the outbound notifier.
type Service struct {
	users    store.UserStore
	codec    *token.Codec
	creds    credentials.Verifier
	notifier InvitationSender
	ledger   ledger.Ledger
	tx       TxRunner
	metrics  *metrics.Metrics
	audit    AuditEmitter
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLedger(l ledger.Ledger) Option {
	return func(s *Service) { s.ledger = l }
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAudit(a AuditEmitter) Option {
	return func(s *Service) { s.audit = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(users store.UserStore, codec *token.Codec, creds credentials.Verifier, notifier InvitationSender, opts ...Option) *Service {
	s := &Service{
		users:    users,
		codec:    codec,
		creds:    creds,
		notifier: notifier,
		ledger:   ledger.NewMemoryLedger(),
		tx:       passthroughTx{},
		logger:   slog.New(slog.NewTextHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// GetUser returns the caller's own record.
func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return user, nil
}

// IssueInvitation nominates inviteeEmail as the designator's trusted contact
// and emails them an invitation token. The stored password is re-verified
// because nomination hands over control of the account's disclosure. A new
// nomination always supersedes the previous one, confirmed or not.
func (s *Service) IssueInvitation(ctx context.Context, designatorID id.UserID, inviteeEmail, currentPassword string) (*models.User, error) {
	if inviteeEmail == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invitee email cannot be empty")
	}

	user, err := s.users.FindByID(ctx, designatorID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := s.creds.Verify(user.PasswordHash, currentPassword); err != nil {
		if errors.Is(err, credentials.ErrMismatch) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "current password does not match")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	user.Nominate(inviteeEmail, requestcontext.Now(ctx))
	if err := s.users.Update(ctx, user); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save nomination")
	}

	signed, err := s.codec.Issue(user.ID, user.Email, inviteeEmail)
	if err != nil {
		return nil, err
	}

	if err := s.notifier.SendInvitation(inviteeEmail, user.FullName, signed); err != nil {
		s.logger.WarnContext(ctx, "failed to queue invitation email",
			"user_id", user.ID,
			"error", err)
	}

	s.metrics.IncrementInvitationIssued()
	s.emitAudit(ctx, audit.Event{
		UserID:       user.ID.String(),
		Actor:        user.ID.String(),
		Action:       audit.ActionInvitationIssued,
		Counterparty: inviteeEmail,
	})
	return user, nil
}

// RedeemInvitation links the authenticated caller to the designator named in
// the token. The token's jti is claimed in the ledger first: the first account
// to redeem wins it, the same account may redeem again without effect, any
// other account is refused.
func (s *Service) RedeemInvitation(ctx context.Context, trusteeID id.UserID, rawToken string) (*models.User, error) {
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	trustee, err := s.users.FindByID(ctx, trusteeID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	if err := s.ledger.Mark(ctx, claims.JTI, trusteeID); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "invitation was already redeemed by another account")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record redemption")
	}

	entry := models.ManagedUser{
		Email:  claims.DesignatorEmail,
		UserID: claims.DesignatorID,
	}
	if appended := trustee.LinkManagedUser(entry, requestcontext.Now(ctx)); appended {
		if err := s.users.Update(ctx, trustee); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save managed user link")
		}
		s.metrics.IncrementInvitationRedeemed()
		s.emitAudit(ctx, audit.Event{
			UserID:       trustee.ID.String(),
			Actor:        trustee.ID.String(),
			Action:       audit.ActionInvitationRedeemed,
			Counterparty: claims.DesignatorEmail,
		})
	}
	return trustee, nil
}

// ConfirmationResult carries both records after a confirmation, designator
// first, matching the original response shape.
type ConfirmationResult struct {
	MainUserInfo    *models.User `json:"mainUserInfo"`
	TrustedUserInfo *models.User `json:"trustedUserInfo"`
}

// Confirm finalizes the delegation: the trustee's pending entry for the
// designator flips to confirmed, and the designator's nomination is linked to
// the trustee's account and confirmed.
//
// Both updates run inside the TxRunner. With the passthrough runner the
// trustee-side write can land while the designator-side write fails; that
// surfaces as partial_confirmation, and a retry converges because every step
// is idempotent.
func (s *Service) Confirm(ctx context.Context, trusteeID, designatorID id.UserID) (*ConfirmationResult, error) {
	start := time.Now()
	defer s.metrics.ObserveConfirm(start)

	var result *ConfirmationResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		trustee, err := s.users.FindByID(ctx, trusteeID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
		}

		if err := trustee.ConfirmManagedUser(designatorID, now); err != nil {
			return dErrors.New(dErrors.CodeNotFound, "no pending delegation for this designator")
		}
		if err := s.users.Update(ctx, trustee); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save trustee confirmation")
		}

		// From here on the trustee side may already be persisted.
		designator, err := s.users.FindByID(ctx, designatorID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodePartialConfirmation, "trustee confirmed but designator record could not be loaded")
		}
		if err := designator.ApplyTrusteeConfirmation(trusteeID, now); err != nil {
			return dErrors.Wrap(err, dErrors.CodePartialConfirmation, "trustee confirmed but designator holds no nomination")
		}
		if err := s.users.Update(ctx, designator); err != nil {
			return dErrors.Wrap(err, dErrors.CodePartialConfirmation, "trustee confirmed but designator record could not be saved")
		}

		result = &ConfirmationResult{MainUserInfo: designator, TrustedUserInfo: trustee}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementConfirmation()
	s.emitAudit(ctx, audit.Event{
		UserID:       result.MainUserInfo.ID.String(),
		Actor:        trusteeID.String(),
		Action:       audit.ActionConfirmed,
		Counterparty: result.TrustedUserInfo.Email,
	})
	return result, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.audit != nil {
		s.audit.Emit(ctx, event)
	}
}
