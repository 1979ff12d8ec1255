// Package handler exposes the insurance registry over HTTP. It owns request
// decoding, caller extraction, and error-to-status mapping; all domain rules
// live in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"coverbook/internal/insurance/models"
	platformmetrics "coverbook/internal/platform/metrics"
	"coverbook/internal/platform/middleware"
	id "coverbook/pkg/domain"
	dErrors "coverbook/pkg/domain-errors"
)

// Service defines the registry operations the handler depends on.
type Service interface {
	AuthorizeInsurer(ctx context.Context, caller, insurer id.Principal) error
	RevokeInsurer(ctx context.Context, caller, insurer id.Principal) error
	IsAuthorizedInsurer(ctx context.Context, insurer id.Principal) (bool, error)
	IssuePolicy(ctx context.Context, caller, holder id.Principal, premium, coverage, durationDays int64) (id.PolicyID, error)
	PayPremium(ctx context.Context, caller id.Principal, policyID id.PolicyID, amount int64) error
	SubmitClaim(ctx context.Context, caller id.Principal, policyID id.PolicyID, amount int64, reason string) (id.ClaimID, error)
	ApproveClaim(ctx context.Context, caller id.Principal, claimID id.ClaimID) error
	PayClaim(ctx context.Context, caller id.Principal, claimID id.ClaimID) error
	UserPolicies(ctx context.Context, user id.Principal) ([]id.PolicyID, error)
	UserClaims(ctx context.Context, user id.Principal) ([]id.ClaimID, error)
	Policy(ctx context.Context, policyID id.PolicyID) (*models.Policy, error)
	Claim(ctx context.Context, claimID id.ClaimID) (*models.Claim, error)
	PremiumsReceived(ctx context.Context) (int64, error)
}

// Handler handles the registry endpoints.
type Handler struct {
	registry     Service
	logger       *slog.Logger
	metrics      *platformmetrics.Metrics
	jwtValidator middleware.JWTValidator
}

// New creates a registry Handler.
func New(registry Service, logger *slog.Logger, metrics *platformmetrics.Metrics, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		registry:     registry,
		logger:       logger,
		metrics:      metrics,
		jwtValidator: jwtValidator,
	}
}

// Register registers the registry routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.LatencyMiddleware(h.metrics))
	router.Use(middleware.RequireAuth(h.jwtValidator, h.logger))

	router.Post("/insurers/{principal}/authorize", h.handleAuthorizeInsurer)
	router.Post("/insurers/{principal}/revoke", h.handleRevokeInsurer)
	router.Get("/insurers/{principal}", h.handleInsurerStatus)

	router.Post("/policies", h.handleIssuePolicy)
	router.Get("/policies/{policyID}", h.handleGetPolicy)
	router.Post("/policies/{policyID}/premium", h.handlePayPremium)
	router.Post("/policies/{policyID}/claims", h.handleSubmitClaim)

	router.Get("/claims/{claimID}", h.handleGetClaim)
	router.Post("/claims/{claimID}/approve", h.handleApproveClaim)
	router.Post("/claims/{claimID}/pay", h.handlePayClaim)

	router.Get("/users/{principal}/policies", h.handleUserPolicies)
	router.Get("/users/{principal}/claims", h.handleUserClaims)
	router.Get("/premiums/total", h.handlePremiumsReceived)

	r.Mount("/", router)
}

func (h *Handler) handleAuthorizeInsurer(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())
	insurer := id.Principal(chi.URLParam(r, "principal"))
	if err := h.registry.AuthorizeInsurer(r.Context(), caller, insurer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.InsurerStatusResponse{Insurer: insurer.String(), Authorized: true})
}

func (h *Handler) handleRevokeInsurer(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())
	insurer := id.Principal(chi.URLParam(r, "principal"))
	if err := h.registry.RevokeInsurer(r.Context(), caller, insurer); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.InsurerStatusResponse{Insurer: insurer.String(), Authorized: false})
}

func (h *Handler) handleInsurerStatus(w http.ResponseWriter, r *http.Request) {
	insurer := id.Principal(chi.URLParam(r, "principal"))
	authorized, err := h.registry.IsAuthorizedInsurer(r.Context(), insurer)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.InsurerStatusResponse{Insurer: insurer.String(), Authorized: authorized})
}

func (h *Handler) handleIssuePolicy(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())

	var req models.IssuePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	policyID, err := h.registry.IssuePolicy(r.Context(), caller, id.Principal(req.Holder), req.PremiumAmount, req.CoverageAmount, req.DurationDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.IssuePolicyResponse{PolicyID: policyID})
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid policy id"))
		return
	}
	policy, err := h.registry.Policy(r.Context(), policyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (h *Handler) handlePayPremium(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid policy id"))
		return
	}

	var req models.PayPremiumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	if err := h.registry.PayPremium(r.Context(), caller, policyID, req.Amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())
	policyID, err := id.ParsePolicyID(chi.URLParam(r, "policyID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid policy id"))
		return
	}

	var req models.SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid request body"))
		return
	}

	claimID, err := h.registry.SubmitClaim(r.Context(), caller, policyID, req.Amount, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.SubmitClaimResponse{ClaimID: claimID})
}

func (h *Handler) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid claim id"))
		return
	}
	claim, err := h.registry.Claim(r.Context(), claimID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claim)
}

func (h *Handler) handleApproveClaim(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())
	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid claim id"))
		return
	}
	if err := h.registry.ApproveClaim(r.Context(), caller, claimID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePayClaim(w http.ResponseWriter, r *http.Request) {
	caller := middleware.GetPrincipal(r.Context())
	claimID, err := id.ParseClaimID(chi.URLParam(r, "claimID"))
	if err != nil {
		writeError(w, dErrors.New(dErrors.CodeInvalidArgument, "invalid claim id"))
		return
	}
	if err := h.registry.PayClaim(r.Context(), caller, claimID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUserPolicies(w http.ResponseWriter, r *http.Request) {
	user := id.Principal(chi.URLParam(r, "principal"))
	ids, err := h.registry.UserPolicies(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UserPoliciesResponse{PolicyIDs: ids})
}

func (h *Handler) handleUserClaims(w http.ResponseWriter, r *http.Request) {
	user := id.Principal(chi.URLParam(r, "principal"))
	ids, err := h.registry.UserClaims(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.UserClaimsResponse{ClaimIDs: ids})
}

func (h *Handler) handlePremiumsReceived(w http.ResponseWriter, r *http.Request) {
	total, err := h.registry.PremiumsReceived(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.PremiumsReceivedResponse{Total: total})
}
