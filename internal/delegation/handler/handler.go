// Package handler exposes the delegation operations over HTTP. Routes are
// userId-scoped; the access guard runs before every operation so a caller can
// only touch their own record.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/access"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/delegation/service"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/internal/identity/models"
	id "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain"
	dErrors "github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/domain-errors"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/platform/httputil"
	"github.com/shbaek1997/Elice-SW2-Project-Goodbye/pkg/requestcontext"
)

// Service defines the delegation operations the handler exposes.
type Service interface {
	GetUser(ctx context.Context, userID id.UserID) (*models.User, error)
	IssueInvitation(ctx context.Context, designatorID id.UserID, inviteeEmail, currentPassword string) (*models.User, error)
	RedeemInvitation(ctx context.Context, trusteeID id.UserID, rawToken string) (*models.User, error)
	Confirm(ctx context.Context, trusteeID, designatorID id.UserID) (*service.ConfirmationResult, error)
}

// Handler handles delegation endpoints.
type Handler struct {
	logger *slog.Logger
	svc    Service
}

// New creates a new delegation Handler.
func New(svc Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, svc: svc}
}

// Register registers the delegation routes. The caller mounts this inside an
// authenticated route group.
func (h *Handler) Register(r chi.Router) {
	r.Get("/{userId}", h.handleGetUser)
	r.Patch("/{userId}/trustedUser", h.handleIssueInvitation)
	r.Patch("/{userId}/managedUsers", h.handleRedeemInvitation)
	r.Patch("/{userId}/managedUsers/{managedUserId}/confirmation", h.handleConfirm)
}

// guardedUserID parses the {userId} path segment and checks that the
// authenticated caller owns it.
func (h *Handler) guardedUserID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	ctx := r.Context()

	userID, err := id.ParseUserID(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "userId is not a valid user id"))
		return id.UserID{}, false
	}
	if err := access.Check(requestcontext.UserID(ctx), userID); err != nil {
		h.logger.WarnContext(ctx, "rejected access to foreign user record",
			"request_id", chimw.GetReqID(ctx),
			"target_user_id", userID,
		)
		httputil.WriteError(w, err)
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.guardedUserID(w, r)
	if !ok {
		return
	}

	user, err := h.svc.GetUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "failed to load user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleIssueInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.guardedUserID(w, r)
	if !ok {
		return
	}

	var req IssueInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid invitation request body",
			"request_id", chimw.GetReqID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.svc.IssueInvitation(ctx, userID, req.Email, req.CurrentPassword)
	if err != nil {
		h.writeServiceError(w, r, "failed to issue invitation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleRedeemInvitation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.guardedUserID(w, r)
	if !ok {
		return
	}

	rawToken := r.URL.Query().Get("token")
	if rawToken == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "token query parameter is required"))
		return
	}

	user, err := h.svc.RedeemInvitation(ctx, userID, rawToken)
	if err != nil {
		h.writeServiceError(w, r, "failed to redeem invitation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.guardedUserID(w, r)
	if !ok {
		return
	}

	designatorID, err := id.ParseUserID(chi.URLParam(r, "managedUserId"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "managedUserId is not a valid user id"))
		return
	}

	result, err := h.svc.Confirm(ctx, userID, designatorID)
	if err != nil {
		h.writeServiceError(w, r, "failed to confirm delegation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// writeServiceError logs unexpected failures and writes the coded envelope.
// Expected domain outcomes pass through without an error-level log line.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	code := dErrors.CodeOf(err)
	switch code {
	case dErrors.CodeInternal, dErrors.CodePartialConfirmation:
		h.logger.ErrorContext(ctx, msg,
			"request_id", chimw.GetReqID(ctx),
			"error", err.Error(),
		)
	default:
		h.logger.WarnContext(ctx, msg,
			"request_id", chimw.GetReqID(ctx),
			"code", string(code),
		)
	}
	httputil.WriteError(w, err)
}
