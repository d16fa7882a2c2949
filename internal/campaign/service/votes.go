package service

import (
	"context"

	"carefund/internal/campaign/models"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// VoteOnCampaign records an approval vote. Voting against requires a comment.
// A first-time voter also joins their partition's fee-participant list with a
// baseline at the current accumulator, so fee accrual starts at this moment.
func (s *Service) VoteOnCampaign(ctx context.Context, voter id.Principal, campaignID id.CampaignID, support bool, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != id.CampaignStatusPending {
		return dErrors.New(dErrors.CodeConflict, "campaign is not pending approval")
	}
	now := requestcontext.Now(ctx)
	if now.After(campaign.VotingDeadline) {
		return dErrors.New(dErrors.CodeConflict, "voting period ended")
	}
	if !s.registry.IsApprovedVerifier(ctx, voter) {
		return dErrors.New(dErrors.CodeForbidden, "voter is not an approved verifier")
	}
	if !support {
		if err := models.ValidateComment(comment); err != nil {
			return err
		}
	}
	if campaign.HasVoted(voter) {
		return dErrors.New(dErrors.CodeConflict, "already voted")
	}

	class, err := s.registry.EffectiveClassOf(ctx, voter)
	if err != nil {
		return err
	}

	campaign.RecordVote(voter, class, support)
	campaign.AddParticipant(voter, class)

	if campaign.VotingClosed(now) {
		s.finalizeLocked(ctx, campaign)
	}

	if err := s.store.Update(ctx, campaign); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update campaign")
	}

	s.logAudit(ctx, audit.EventCampaignVote, voter, "campaign_id", campaign.ID, "support", support)
	if s.metrics != nil {
		s.metrics.CampaignVotes.Inc()
	}
	return nil
}

// FinalizeVoting resolves a pending campaign after its deadline passes.
func (s *Service) FinalizeVoting(ctx context.Context, campaignID id.CampaignID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.getCampaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != id.CampaignStatusPending {
		return dErrors.New(dErrors.CodeConflict, "campaign is not pending approval")
	}
	now := requestcontext.Now(ctx)
	if now.Before(campaign.VotingDeadline) {
		return dErrors.New(dErrors.CodeConflict, "voting period not ended")
	}

	s.finalizeLocked(ctx, campaign)
	if err := s.store.Update(ctx, campaign); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update campaign")
	}
	return nil
}

// finalizeLocked applies the dual-partition quorum decision. Both the Health
// and DAO partitions must pass against live registry counts; either failing
// rejects the campaign. Approval opens the funding window.
func (s *Service) finalizeLocked(ctx context.Context, campaign *models.Campaign) {
	healthEligible := s.registry.ApprovedCount(id.ClassHealth)
	daoEligible := s.registry.ApprovedCount(id.ClassDao)

	if campaign.PartitionsPass(healthEligible, daoEligible, s.cfg.ParticipationPct, s.cfg.ApprovalPct) {
		campaign.Status = id.CampaignStatusActive
		campaign.StartTime = requestcontext.Now(ctx)
		s.logAudit(ctx, audit.EventCampaignApproved, campaign.Patient, "campaign_id", campaign.ID)
		if s.metrics != nil {
			s.metrics.CampaignsApproved.Inc()
		}
		return
	}

	campaign.Status = id.CampaignStatusRejected
	s.logAudit(ctx, audit.EventCampaignRejected, campaign.Patient, "campaign_id", campaign.ID)
	if s.metrics != nil {
		s.metrics.CampaignsRejected.Inc()
	}
}
