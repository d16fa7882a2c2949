// Package handler exposes donations and fee-account operations over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	"carefund/pkg/platform/httputil"
	"carefund/pkg/requestcontext"
)

// Service is the slice of the ledger the handler needs.
type Service interface {
	Donate(ctx context.Context, donor id.Principal, campaignID id.CampaignID, nativeAmount *big.Int) error
	WithdrawFees(ctx context.Context, principal id.Principal, amount *big.Int) error
	SettleFees(ctx context.Context, campaignID id.CampaignID) error
	FinalizeCampaignIfExpired(ctx context.Context, campaignID id.CampaignID) error
	GetFeeBalance(ctx context.Context, principal id.Principal) (*big.Int, error)
	GetAccruedFees(ctx context.Context, campaignID id.CampaignID, principal id.Principal) (*big.Int, error)
}

type Handler struct {
	ledger Service
	logger *slog.Logger
}

func New(ledger Service, logger *slog.Logger) *Handler {
	return &Handler{ledger: ledger, logger: logger}
}

// Register mounts the donation and fee routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/campaigns/{campaignID}/donations", h.handleDonate)
	r.Post("/campaigns/{campaignID}/expire", h.handleExpire)
	r.Post("/campaigns/{campaignID}/fees/settle", h.handleSettle)
	r.Get("/campaigns/{campaignID}/fees/accrued", h.handleAccrued)
	r.Route("/fees", func(r chi.Router) {
		r.Get("/balance", h.handleBalance)
		r.Post("/withdrawals", h.handleWithdraw)
	})
}

type amountRequest struct {
	Amount string `json:"amount"`
}

func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid amount")
	}
	return amount, nil
}

func (h *Handler) handleDonate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.ledger.Donate(ctx, caller, campaignID, amount); err != nil {
		h.logger.WarnContext(ctx, "donation rejected", "principal", caller, "campaign_id", campaignID, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleExpire(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.FinalizeCampaignIfExpired(r.Context(), campaignID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSettle(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.ledger.SettleFees(r.Context(), campaignID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	Principal id.Principal `json:"principal"`
	Balance   string       `json:"balance"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	balance, err := h.ledger.GetFeeBalance(ctx, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balanceResponse{Principal: caller, Balance: balance.String()})
}

func (h *Handler) handleAccrued(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	accrued, err := h.ledger.GetAccruedFees(ctx, campaignID, caller)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, balanceResponse{Principal: caller, Balance: accrued.String()})
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.ledger.WithdrawFees(ctx, caller, amount); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathCampaignID(r *http.Request) (id.CampaignID, error) {
	raw := chi.URLParam(r, "campaignID")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid campaign id")
	}
	return id.CampaignID(n), nil
}
