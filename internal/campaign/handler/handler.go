// Package handler exposes campaign lifecycle operations over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"carefund/internal/campaign/models"
	"carefund/internal/campaign/service"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	"carefund/pkg/platform/httputil"
	"carefund/pkg/requestcontext"
)

// Service is the slice of the campaign service the handler needs.
type Service interface {
	CreateCampaign(ctx context.Context, patient id.Principal, params service.CreateParams) (*models.Campaign, error)
	VoteOnCampaign(ctx context.Context, voter id.Principal, campaignID id.CampaignID, support bool, comment string) error
	FinalizeVoting(ctx context.Context, campaignID id.CampaignID) error
	AppealCampaign(ctx context.Context, patient id.Principal, campaignID id.CampaignID) error
	GetCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error)
	GetCampaignDocuments(ctx context.Context, caller id.Principal, campaignID id.CampaignID) (models.Documents, error)
}

type Handler struct {
	campaigns Service
	logger    *slog.Logger
}

func New(campaigns Service, logger *slog.Logger) *Handler {
	return &Handler{campaigns: campaigns, logger: logger}
}

// Register mounts the campaign routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/campaigns", func(r chi.Router) {
		r.Post("/", h.handleCreate)
		r.Get("/{campaignID}", h.handleGet)
		r.Get("/{campaignID}/documents", h.handleGetDocuments)
		r.Post("/{campaignID}/votes", h.handleVote)
		r.Post("/{campaignID}/finalize", h.handleFinalize)
		r.Post("/{campaignID}/appeal", h.handleAppeal)
	})
}

type createRequest struct {
	TargetUSD       string                 `json:"target_usd"`
	DurationSeconds int64                  `json:"duration_seconds"`
	Comment         string                 `json:"comment"`
	PatientDetails  models.PatientDetails  `json:"patient_details"`
	Documents       models.Documents       `json:"documents"`
	Consent         models.ConsentFlags    `json:"consent"`
	Guardian        models.GuardianDetails `json:"guardian"`
}

type campaignResponse struct {
	ID             id.CampaignID     `json:"id"`
	Patient        id.Principal      `json:"patient"`
	Status         id.CampaignStatus `json:"status"`
	TargetUSD      string            `json:"target_usd"`
	DonatedUSD     string            `json:"donated_usd"`
	Comment        string            `json:"comment"`
	AppealCount    int               `json:"appeal_count"`
	VotingDeadline time.Time         `json:"voting_deadline"`
	HealthYes      uint64            `json:"health_yes"`
	HealthNo       uint64            `json:"health_no"`
	DaoYes         uint64            `json:"dao_yes"`
	DaoNo          uint64            `json:"dao_no"`
}

func toCampaignResponse(c *models.Campaign) campaignResponse {
	return campaignResponse{
		ID:             c.ID,
		Patient:        c.Patient,
		Status:         c.Status,
		TargetUSD:      c.TargetUSD.String(),
		DonatedUSD:     c.DonatedUSD.String(),
		Comment:        c.Comment,
		AppealCount:    c.AppealCount,
		VotingDeadline: c.VotingDeadline,
		HealthYes:      c.HealthYes,
		HealthNo:       c.HealthNo,
		DaoYes:         c.DaoYes,
		DaoNo:          c.DaoNo,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.Caller(ctx)

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	target, ok := new(big.Int).SetString(req.TargetUSD, 10)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid target amount"))
		return
	}

	campaign, err := h.campaigns.CreateCampaign(ctx, caller, service.CreateParams{
		TargetUSD:      target,
		Duration:       time.Duration(req.DurationSeconds) * time.Second,
		Comment:        req.Comment,
		PatientDetails: req.PatientDetails,
		Documents:      req.Documents,
		Consent:        req.Consent,
		Guardian:       req.Guardian,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "campaign rejected", "principal", caller, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toCampaignResponse(campaign))
}

type voteRequest struct {
	Support bool   `json:"support"`
	Comment string `json:"comment"`
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.campaigns.VoteOnCampaign(ctx, requestcontext.Caller(ctx), campaignID, req.Support, req.Comment); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.campaigns.FinalizeVoting(r.Context(), campaignID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAppeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.campaigns.AppealCampaign(ctx, requestcontext.Caller(ctx), campaignID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	campaign, err := h.campaigns.GetCampaign(r.Context(), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toCampaignResponse(campaign))
}

func (h *Handler) handleGetDocuments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	campaignID, err := pathCampaignID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	docs, err := h.campaigns.GetCampaignDocuments(ctx, requestcontext.Caller(ctx), campaignID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}

func pathCampaignID(r *http.Request) (id.CampaignID, error) {
	raw := chi.URLParam(r, "campaignID")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeBadRequest, "invalid campaign id")
	}
	return id.CampaignID(n), nil
}
