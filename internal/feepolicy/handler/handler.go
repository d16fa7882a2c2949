// Package handler exposes fee-rate governance over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	"carefund/pkg/platform/httputil"
	"carefund/pkg/requestcontext"
)

// Service is the slice of fee governance the handler needs.
type Service interface {
	CurrentBps() uint64
	ProposeFeeAdjustment(ctx context.Context, proposer id.Principal, bps uint64) error
	VoteOnFeeAdjustment(ctx context.Context, voter id.Principal, support bool) error
	FinalizeProposal(ctx context.Context) error
}

type Handler struct {
	feePolicy Service
	logger    *slog.Logger
}

func New(feePolicy Service, logger *slog.Logger) *Handler {
	return &Handler{feePolicy: feePolicy, logger: logger}
}

// Register mounts the fee governance routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/fee-policy", func(r chi.Router) {
		r.Get("/", h.handleCurrent)
		r.Post("/proposals", h.handlePropose)
		r.Post("/proposals/votes", h.handleVote)
		r.Post("/proposals/finalize", h.handleFinalize)
	})
}

type currentResponse struct {
	FeeBps uint64 `json:"fee_bps"`
}

func (h *Handler) handleCurrent(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, currentResponse{FeeBps: h.feePolicy.CurrentBps()})
}

type proposeRequest struct {
	FeeBps uint64 `json:"fee_bps"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req proposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.feePolicy.ProposeFeeAdjustment(ctx, caller, req.FeeBps); err != nil {
		h.logger.WarnContext(ctx, "fee proposal rejected", "principal", caller, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

type voteRequest struct {
	Support bool `json:"support"`
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.feePolicy.VoteOnFeeAdjustment(ctx, requestcontext.Caller(ctx), req.Support); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	if err := h.feePolicy.FinalizeProposal(r.Context()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
