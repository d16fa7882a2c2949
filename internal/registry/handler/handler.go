// Package handler exposes the verifier registry over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"carefund/internal/registry/models"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	"carefund/pkg/platform/httputil"
	"carefund/pkg/requestcontext"
)

// Service is the slice of the registry service the handler needs.
type Service interface {
	Apply(ctx context.Context, applicant id.Principal, vtype id.VerifierType, docs models.Documents) (*models.VerifierRecord, error)
	ApplyAsGenesis(ctx context.Context, applicant id.Principal, docs models.Documents) (*models.VerifierRecord, error)
	HandleGenesisApplication(ctx context.Context, actor, applicant id.Principal, approve bool) error
	VoteOnApplication(ctx context.Context, voter, target id.Principal, support bool) error
	FinalizeApplication(ctx context.Context, target id.Principal) error
	ProposeRevocation(ctx context.Context, proposer, target id.Principal) error
	VoteOnRevocation(ctx context.Context, voter, target id.Principal, support bool) error
	FinalizeRevocation(ctx context.Context, target id.Principal) error
	GetVerifier(ctx context.Context, principal id.Principal) (*models.VerifierRecord, error)
	CommitteeSnapshot() models.Committee
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	SetCapacities(ctx context.Context, maxHealth, maxDao int) error
}

type Handler struct {
	registry Service
	logger   *slog.Logger
	admin    func(http.Handler) http.Handler
}

// New creates the registry HTTP handler. The admin middleware guards the
// genesis decision and operational endpoints.
func New(registry Service, logger *slog.Logger, admin func(http.Handler) http.Handler) *Handler {
	return &Handler{registry: registry, logger: logger, admin: admin}
}

// Register mounts the registry routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/registry", func(r chi.Router) {
		r.Post("/applications", h.handleApply)
		r.Post("/applications/{principal}/votes", h.handleVote)
		r.Post("/applications/{principal}/finalize", h.handleFinalize)

		r.Post("/genesis/applications", h.handleGenesisApply)

		r.Post("/revocations", h.handlePropose)
		r.Post("/revocations/{principal}/votes", h.handleRevocationVote)
		r.Post("/revocations/{principal}/finalize", h.handleRevocationFinalize)

		r.Get("/verifiers/{principal}", h.handleGetVerifier)
		r.Get("/committee", h.handleGetCommittee)

		r.Group(func(r chi.Router) {
			r.Use(h.admin)
			r.Post("/genesis/applications/{principal}/decision", h.handleGenesisDecision)
			r.Post("/pause", h.handlePause)
			r.Post("/resume", h.handleResume)
			r.Put("/capacities", h.handleSetCapacities)
		})
	})
}

type applyRequest struct {
	Type      string           `json:"type"`
	Documents models.Documents `json:"documents"`
}

type verifierResponse struct {
	Principal    id.Principal      `json:"principal"`
	Type         id.VerifierType   `json:"type"`
	Status       id.VerifierStatus `json:"status"`
	CredentialID uint64            `json:"credential_id,omitempty"`
}

func toVerifierResponse(rec *models.VerifierRecord) verifierResponse {
	return verifierResponse{
		Principal:    rec.Principal,
		Type:         rec.Type,
		Status:       rec.Status,
		CredentialID: rec.CredentialID,
	}
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.registry.Apply(ctx, caller, id.VerifierType(req.Type), req.Documents)
	if err != nil {
		h.logger.WarnContext(ctx, "application rejected", "principal", caller, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVerifierResponse(rec))
}

func (h *Handler) handleGenesisApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.registry.ApplyAsGenesis(ctx, caller, req.Documents)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toVerifierResponse(rec))
}

type genesisDecisionRequest struct {
	Approve bool `json:"approve"`
}

func (h *Handler) handleGenesisDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	applicant, err := pathPrincipal(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req genesisDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.HandleGenesisApplication(ctx, requestcontext.Caller(ctx), applicant, req.Approve); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type voteRequest struct {
	Support bool `json:"support"`
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := pathPrincipal(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.VoteOnApplication(ctx, requestcontext.Caller(ctx), target, req.Support); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := pathPrincipal(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.FinalizeApplication(ctx, target); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type proposeRevocationRequest struct {
	Target id.Principal `json:"target"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req proposeRevocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.ProposeRevocation(ctx, requestcontext.Caller(ctx), req.Target); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleRevocationVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := pathPrincipal(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.registry.VoteOnRevocation(ctx, requestcontext.Caller(ctx), target, req.Support); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRevocationFinalize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target, err := pathPrincipal(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.registry.FinalizeRevocation(ctx, target); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGetVerifier(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, err := pathPrincipal(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	rec, err := h.registry.GetVerifier(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toVerifierResponse(rec))
}

type committeeResponse struct {
	Members         []id.Principal `json:"members"`
	Active          bool           `json:"active"`
	HealthApprovals uint64         `json:"health_approvals"`
	DaoApprovals    uint64         `json:"dao_approvals"`
}

func (h *Handler) handleGetCommittee(w http.ResponseWriter, r *http.Request) {
	committee := h.registry.CommitteeSnapshot()
	httputil.WriteJSON(w, http.StatusOK, committeeResponse{
		Members:         committee.Members,
		Active:          committee.Active,
		HealthApprovals: committee.HealthApprovals,
		DaoApprovals:    committee.DaoApprovals,
	})
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Pause(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Resume(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type capacitiesRequest struct {
	MaxHealth int `json:"max_health"`
	MaxDao    int `json:"max_dao"`
}

func (h *Handler) handleSetCapacities(w http.ResponseWriter, r *http.Request) {
	var req capacitiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := h.registry.SetCapacities(r.Context(), req.MaxHealth, req.MaxDao); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathPrincipal(r *http.Request) (id.Principal, error) {
	return id.ParsePrincipal(chi.URLParam(r, "principal"))
}
