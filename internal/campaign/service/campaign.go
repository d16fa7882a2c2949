package service

import (
	"context"
	"math/big"
	"time"

	"carefund/internal/campaign/models"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// CreateParams carries everything a patient submits with a new campaign.
type CreateParams struct {
	TargetUSD      *big.Int
	Duration       time.Duration
	Comment        string
	PatientDetails models.PatientDetails
	Documents      models.Documents
	Consent        models.ConsentFlags
	Guardian       models.GuardianDetails
}

// CreateCampaign validates a submission and stores it as Pending with a
// voting deadline one voting period out.
func (s *Service) CreateCampaign(ctx context.Context, patient id.Principal, params CreateParams) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry.Paused() {
		return nil, dErrors.New(dErrors.CodeConflict, "platform is paused")
	}
	if params.TargetUSD == nil || params.TargetUSD.Cmp(s.cfg.MinDonationUSD) <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "target must exceed the minimum donation floor")
	}
	if params.Duration <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "duration must be positive")
	}
	if err := models.ValidateComment(params.Comment); err != nil {
		return nil, err
	}
	if err := params.PatientDetails.Validate(); err != nil {
		return nil, err
	}
	if err := params.Documents.Validate(); err != nil {
		return nil, err
	}
	if err := params.Guardian.Validate(patient); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	campaign := &models.Campaign{
		Patient:        patient,
		Guardian:       params.Guardian,
		TargetUSD:      new(big.Int).Set(params.TargetUSD),
		Duration:       params.Duration,
		Comment:        params.Comment,
		PatientDetails: params.PatientDetails,
		Documents:      params.Documents,
		Consent:        params.Consent,

		Status:         id.CampaignStatusPending,
		CreatedAt:      now,
		VotingDeadline: now.Add(s.cfg.VotingPeriod),
		Voted:          make(map[id.Principal]bool),

		HealthCountAtStart: s.registry.ApprovedCount(id.ClassHealth),
		DaoCountAtStart:    s.registry.ApprovedCount(id.ClassDao),

		DonatedUSD:        new(big.Int),
		TotalFeeCollected: new(big.Int),
		HealthAccumulator: new(big.Int),
		DaoAccumulator:    new(big.Int),
		Baselines:         make(map[id.Principal]*big.Int),
	}
	if err := s.store.Create(ctx, campaign); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create campaign")
	}

	s.logAudit(ctx, audit.EventCampaignCreated, patient, "campaign_id", campaign.ID)
	if s.metrics != nil {
		s.metrics.CampaignsCreated.Inc()
	}
	return campaign, nil
}

// AppealCampaign reopens a rejected campaign for a fresh voting round.
func (s *Service) AppealCampaign(ctx context.Context, patient id.Principal, campaignID id.CampaignID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Patient != patient {
		return dErrors.New(dErrors.CodeForbidden, "only the campaign patient may appeal")
	}
	if campaign.Status != id.CampaignStatusRejected {
		return dErrors.New(dErrors.CodeConflict, "campaign is not rejected")
	}
	if campaign.AppealCount >= 2 {
		return dErrors.New(dErrors.CodeConflict, "appeal limit reached")
	}

	now := requestcontext.Now(ctx)
	campaign.ResetVotes()
	campaign.Status = id.CampaignStatusPending
	campaign.VotingDeadline = now.Add(s.cfg.VotingPeriod)
	campaign.AppealCount++

	if err := s.store.Update(ctx, campaign); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update campaign")
	}

	s.logAudit(ctx, audit.EventCampaignAppealed, patient, "campaign_id", campaign.ID, "appeal", campaign.AppealCount)
	if s.metrics != nil {
		s.metrics.CampaignsAppealed.Inc()
	}
	return nil
}

// GetCampaign returns a copy of the campaign record.
func (s *Service) GetCampaign(ctx context.Context, campaignID id.CampaignID) (*models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCampaign(ctx, campaignID)
}

// GetCampaignStatus returns just the lifecycle status.
func (s *Service) GetCampaignStatus(ctx context.Context, campaignID id.CampaignID) (id.CampaignStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return "", err
	}
	return campaign.Status, nil
}

// GetCampaignDocuments returns the document references visible to caller.
// Approved verifiers see everything; anyone else sees only what the patient
// consented to share.
func (s *Service) GetCampaignDocuments(ctx context.Context, caller id.Principal, campaignID id.CampaignID) (models.Documents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return models.Documents{}, err
	}
	if s.registry.IsApprovedVerifier(ctx, caller) {
		return campaign.Documents, nil
	}
	return campaign.Consent.Redact(campaign.Documents), nil
}
