package service

import (
	"context"
	"math/big"

	"carefund/internal/campaign/models"
	"carefund/internal/oracle"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// Donate accepts a native-denominated donation against an active campaign.
//
// The donation is atomic: every validation and both outbound transfers
// (patient payout and operator share) happen before any campaign state is
// written, so a failed transfer leaves the campaign untouched. The service
// fee is split into a Health pool and a DAO pool whose per-participant
// shares advance the partition accumulators; the structural residual and
// every truncation remainder go to the operator.
func (s *Service) Donate(ctx context.Context, donor id.Principal, campaignID id.CampaignID, nativeAmount *big.Int) error {
	if s.registry.Paused() {
		return dErrors.New(dErrors.CodeConflict, "platform is paused")
	}
	if nativeAmount == nil || nativeAmount.Sign() <= 0 {
		return dErrors.New(dErrors.CodeValidation, "donation must be positive")
	}

	var completed bool
	err := s.campaigns.WithCampaign(ctx, campaignID, func(campaign *models.Campaign) error {
		now := requestcontext.Now(ctx)
		if !campaign.FundingOpen(now) {
			return dErrors.New(dErrors.CodeConflict, "campaign is not accepting donations")
		}

		price, decimals, err := s.oracle.GetLatestPrice(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "price feed unavailable")
		}
		usd, err := oracle.ConvertToUSD(nativeAmount, price, decimals)
		if err != nil {
			return err
		}
		if usd.Cmp(s.cfg.MinDonationUSD) < 0 {
			return dErrors.New(dErrors.CodeValidation, "donation below the minimum amount")
		}

		fee := new(big.Int).Mul(nativeAmount, new(big.Int).SetUint64(s.feePolicy.CurrentBps()))
		fee.Quo(fee, big.NewInt(bpsDenominator))

		healthPool := poolShare(fee, s.cfg.HealthPoolPct)
		daoPool := poolShare(fee, s.cfg.DaoPoolPct)
		operatorShare := new(big.Int).Sub(fee, healthPool)
		operatorShare.Sub(operatorShare, daoPool)

		healthPerShare, healthRemainder := splitPool(healthPool, len(campaign.HealthParticipants))
		daoPerShare, daoRemainder := splitPool(daoPool, len(campaign.DaoParticipants))
		operatorShare.Add(operatorShare, healthRemainder)
		operatorShare.Add(operatorShare, daoRemainder)

		patientAmount := new(big.Int).Sub(nativeAmount, fee)

		// Transfers first. Either failing aborts the donation with no state
		// recorded.
		if err := s.bank.Transfer(ctx, campaign.Patient, patientAmount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeTransferFailed, "patient payout failed")
		}
		if operatorShare.Sign() > 0 {
			if err := s.bank.Transfer(ctx, s.operator, operatorShare); err != nil {
				return dErrors.Wrap(err, dErrors.CodeTransferFailed, "operator payout failed")
			}
		}

		campaign.DonatedUSD.Add(campaign.DonatedUSD, usd)
		campaign.TotalFeeCollected.Add(campaign.TotalFeeCollected, fee)
		campaign.Donors = append(campaign.Donors, donor)
		campaign.HealthAccumulator.Add(campaign.HealthAccumulator, healthPerShare)
		campaign.DaoAccumulator.Add(campaign.DaoAccumulator, daoPerShare)

		if err := s.registry.RecordDonation(ctx, donor, campaign.ID); err != nil {
			return err
		}

		if campaign.DonatedUSD.Cmp(campaign.TargetUSD) >= 0 || campaign.Expired(requestcontext.Now(ctx)) {
			if err := s.completeCampaign(ctx, campaign); err != nil {
				return err
			}
			completed = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventDonationReceived, donor, nativeAmount, "campaign_id", campaignID)
	if s.metrics != nil {
		s.metrics.DonationsReceived.Inc()
		if completed {
			s.metrics.CampaignsCompleted.Inc()
		}
	}
	return nil
}

// poolShare is pct percent of the fee, truncating.
func poolShare(fee *big.Int, pct uint64) *big.Int {
	share := new(big.Int).Mul(fee, new(big.Int).SetUint64(pct))
	return share.Quo(share, big.NewInt(100))
}

// splitPool divides a pool across participants, returning the per-share
// amount and the truncation remainder. An empty partition keeps nothing; the
// whole pool is the remainder.
func splitPool(pool *big.Int, participants int) (perShare, remainder *big.Int) {
	if participants == 0 {
		return new(big.Int), new(big.Int).Set(pool)
	}
	n := big.NewInt(int64(participants))
	perShare = new(big.Int).Quo(pool, n)
	used := new(big.Int).Mul(perShare, n)
	remainder = new(big.Int).Sub(pool, used)
	return perShare, remainder
}
