package service

import (
	"context"
	"errors"

	"carefund/internal/registry/models"
	id "carefund/pkg/domain"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/platform/sentinel"
	"carefund/pkg/requestcontext"
)

// RecordDonation tracks how many distinct campaigns a donor has supported and
// silently promotes the donor to DAO verifier once the threshold is reached.
// Promotion is skipped, without error, when the donor already has a registry
// record or the DAO class is at capacity.
func (s *Service) RecordDonation(ctx context.Context, donor id.Principal, campaignID id.CampaignID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	if donor.IsZero() {
		return nil
	}

	campaigns, ok := s.donations[donor]
	if !ok {
		campaigns = make(map[id.CampaignID]bool)
		s.donations[donor] = campaigns
	}
	campaigns[campaignID] = true

	if len(campaigns) < s.cfg.AutoDaoCampaignThreshold {
		return nil
	}
	if _, err := s.store.Get(ctx, donor); err == nil {
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return err
	}
	if s.classAtCapacity(id.ClassDao) {
		return nil
	}

	now := requestcontext.Now(ctx)
	credID, err := s.credentials.Mint(donor)
	if err != nil {
		return nil
	}
	rec := &models.VerifierRecord{
		Principal:    donor,
		Type:         id.VerifierTypeAutoDao,
		Status:       id.VerifierStatusApproved,
		CredentialID: credID,
		AppliedAt:    now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		_ = s.credentials.Burn(credID)
		return nil
	}
	s.incrementClass(id.ClassDao)

	s.logAudit(ctx, audit.EventAutoDaoPromoted, donor, "campaigns", len(campaigns))
	if s.metrics != nil {
		s.metrics.AutoDaoPromotions.Inc()
	}
	return nil
}
