package service

import (
	"context"
	"errors"
	"math/big"

	"carefund/internal/campaign/models"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/platform/sentinel"
	"carefund/pkg/requestcontext"
)

// completeCampaign marks the campaign Completed and settles accrued fees.
// Runs inside a WithCampaign callback.
func (s *Service) completeCampaign(ctx context.Context, campaign *models.Campaign) error {
	campaign.Status = id.CampaignStatusCompleted
	if err := s.settle(ctx, campaign); err != nil {
		return err
	}
	s.logAudit(ctx, audit.EventCampaignCompleted, campaign.Patient, campaign.DonatedUSD, "campaign_id", campaign.ID)
	return nil
}

// settle moves every participant's pending accrual into their withdrawable
// fee account and advances their baseline. Idempotent through the
// feesDistributed flag.
func (s *Service) settle(ctx context.Context, campaign *models.Campaign) error {
	if campaign.FeesDistributed {
		return nil
	}

	settleOne := func(p id.Principal, accumulator *big.Int) error {
		baseline := campaign.Baselines[p]
		if baseline == nil {
			baseline = new(big.Int)
		}
		pending := new(big.Int).Sub(accumulator, baseline)
		if pending.Sign() > 0 {
			if err := s.fees.Credit(ctx, p, pending); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit fee account")
			}
		}
		campaign.Baselines[p] = new(big.Int).Set(accumulator)
		return nil
	}

	for _, p := range campaign.HealthParticipants {
		if err := settleOne(p, campaign.HealthAccumulator); err != nil {
			return err
		}
	}
	for _, p := range campaign.DaoParticipants {
		if err := settleOne(p, campaign.DaoAccumulator); err != nil {
			return err
		}
	}
	campaign.FeesDistributed = true

	s.logAudit(ctx, audit.EventFeesSettled, campaign.Patient, campaign.TotalFeeCollected, "campaign_id", campaign.ID)
	if s.metrics != nil {
		s.metrics.FeeSettlements.Inc()
	}
	return nil
}

// SettleFees settles a completed campaign's fees. Safe to call repeatedly.
func (s *Service) SettleFees(ctx context.Context, campaignID id.CampaignID) error {
	return s.campaigns.WithCampaign(ctx, campaignID, func(campaign *models.Campaign) error {
		if campaign.Status != id.CampaignStatusCompleted {
			return dErrors.New(dErrors.CodeConflict, "campaign is not completed")
		}
		return s.settle(ctx, campaign)
	})
}

// FinalizeCampaignIfExpired is a permissionless maintenance call: an active
// campaign past its funding window is completed and settled, anything else
// is left alone.
func (s *Service) FinalizeCampaignIfExpired(ctx context.Context, campaignID id.CampaignID) error {
	var completed bool
	err := s.campaigns.WithCampaign(ctx, campaignID, func(campaign *models.Campaign) error {
		if !campaign.Expired(requestcontext.Now(ctx)) {
			return nil
		}
		completed = true
		return s.completeCampaign(ctx, campaign)
	})
	if err != nil {
		return err
	}
	if completed && s.metrics != nil {
		s.metrics.CampaignsCompleted.Inc()
	}
	return nil
}

// WithdrawFees pays out part of a principal's settled fee balance. The
// balance is debited before the transfer and restored if the transfer fails.
func (s *Service) WithdrawFees(ctx context.Context, principal id.Principal, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "withdrawal must be positive")
	}

	if err := s.fees.Debit(ctx, principal, amount); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "insufficient fee balance")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit fee account")
	}
	if err := s.bank.Transfer(ctx, principal, amount); err != nil {
		if creditErr := s.fees.Credit(ctx, principal, amount); creditErr != nil {
			return dErrors.Wrap(creditErr, dErrors.CodeInternal, "failed to restore balance after transfer failure")
		}
		return dErrors.Wrap(err, dErrors.CodeTransferFailed, "withdrawal transfer failed")
	}

	s.logAudit(ctx, audit.EventFeesWithdrawn, principal, amount)
	if s.metrics != nil {
		s.metrics.FeeWithdrawals.Inc()
	}
	return nil
}

// GetFeeBalance reads a principal's withdrawable balance.
func (s *Service) GetFeeBalance(ctx context.Context, principal id.Principal) (*big.Int, error) {
	balance, err := s.fees.Balance(ctx, principal)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read fee account")
	}
	return balance, nil
}

// GetAccruedFees reads a participant's unsettled accrual on one campaign:
// the partition accumulator minus their baseline, zero for non-participants.
func (s *Service) GetAccruedFees(ctx context.Context, campaignID id.CampaignID, principal id.Principal) (*big.Int, error) {
	campaign, err := s.campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	baseline, ok := campaign.Baselines[principal]
	if !ok {
		return new(big.Int), nil
	}
	for _, p := range campaign.HealthParticipants {
		if p == principal {
			return new(big.Int).Sub(campaign.HealthAccumulator, baseline), nil
		}
	}
	return new(big.Int).Sub(campaign.DaoAccumulator, baseline), nil
}
