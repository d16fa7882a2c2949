package service

import (
	"context"

	"carefund/internal/registry/models"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// ApplyAsGenesis submits a bootstrap committee application. The cap counts
// approved members plus applications still pending, so five outstanding
// candidacies close the door even before approval.
func (s *Service) ApplyAsGenesis(ctx context.Context, applicant id.Principal, docs models.Documents) (*models.VerifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	if err := s.requireNotPaused(); err != nil {
		return nil, err
	}
	if err := docs.Validate(false); err != nil {
		return nil, err
	}

	pending, err := s.pendingGenesisCount(ctx)
	if err != nil {
		return nil, err
	}
	if s.committee.Size()+pending >= s.cfg.GenesisCommitteeCap {
		return nil, dErrors.New(dErrors.CodeResourceExhausted, "genesis committee is full")
	}

	now := requestcontext.Now(ctx)
	rec := &models.VerifierRecord{
		Principal:         applicant,
		Type:              id.VerifierTypeGenesis,
		Status:            id.VerifierStatusPending,
		Documents:         docs,
		AppliedAt:         now,
		ApplicationExpiry: now.Add(s.cfg.GenesisApplicationTTL),
	}
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, dErrors.New(dErrors.CodeConflict, "already applied")
	}

	s.logAudit(ctx, audit.EventGenesisApplied, applicant)
	return rec, nil
}

// HandleGenesisApplication is the administrative approval path. Rejection
// deletes the record entirely, which is the single reapply path in the
// system; approval seats the applicant and mints their credential.
func (s *Service) HandleGenesisApplication(ctx context.Context, actor, applicant id.Principal, approve bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	if actor != s.admin {
		return dErrors.New(dErrors.CodeForbidden, "admin authority required")
	}

	rec, err := s.getRecord(ctx, applicant)
	if err != nil {
		return err
	}
	if rec.Type != id.VerifierTypeGenesis || rec.Status != id.VerifierStatusPending {
		return dErrors.New(dErrors.CodeConflict, "not a pending genesis application")
	}

	if !approve {
		if err := s.store.Delete(ctx, applicant); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete genesis application")
		}
		s.logAudit(ctx, audit.EventGenesisRejected, applicant)
		return nil
	}

	now := requestcontext.Now(ctx)
	// Expired applications read as missing even though the record remains.
	if now.After(rec.ApplicationExpiry) {
		return dErrors.New(dErrors.CodeNotFound, "genesis application not found")
	}
	if s.committee.Size() >= s.cfg.GenesisCommitteeCap {
		return dErrors.New(dErrors.CodeResourceExhausted, "genesis committee is full")
	}

	credID, err := s.credentials.Mint(applicant)
	if err != nil {
		return err
	}
	rec.Status = id.VerifierStatusApproved
	rec.CredentialID = credID
	if err := s.store.Update(ctx, rec); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verifier record")
	}

	if s.committee.Size() == 0 {
		s.committee.Active = true
		s.committee.StartTime = now
	}
	s.committee.Members = append(s.committee.Members, applicant)

	s.logAudit(ctx, audit.EventGenesisApproved, applicant, "credential_id", credID)
	return nil
}

// CheckGenesisTimeout lazily converts the committee once its deadline has
// passed. Permissionless and idempotent; every mutating entry point also
// calls it so the conversion never waits for an explicit poke.
func (s *Service) CheckGenesisTimeout(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)
}

func (s *Service) checkGenesisTimeoutLocked(ctx context.Context) {
	if !s.committee.Active {
		return
	}
	now := requestcontext.Now(ctx)
	if now.After(s.committee.StartTime.Add(s.cfg.GenesisTimeout)) {
		s.convertCommitteeLocked(ctx, "timeout")
	}
}

// convertCommitteeLocked folds the committee into the permanent DAO: every
// member's record is rewritten to Dao, the DAO capacity ceiling is raised to
// absorb them, and the committee never reactivates. The Active flag is the
// only guard; callers must check it before calling.
func (s *Service) convertCommitteeLocked(ctx context.Context, reason string) {
	s.committee.Active = false
	for _, member := range s.committee.Members {
		rec, err := s.getRecord(ctx, member)
		if err != nil {
			continue
		}
		if rec.Type != id.VerifierTypeGenesis {
			continue
		}
		rec.Type = id.VerifierTypeDao
		if err := s.store.Update(ctx, rec); err != nil {
			continue
		}
		s.daoCount++
	}
	if s.daoCount > uint64(s.maxDao) {
		s.maxDao = int(s.daoCount)
	}

	s.logAudit(ctx, audit.EventGenesisConverted, id.ZeroPrincipal, "reason", reason, "members", s.committee.Size())
	if s.metrics != nil {
		s.metrics.GenesisConversions.Inc()
	}
}

// recordGenesisApprovalLocked advances the early-graduation counters after a
// Genesis-attributed approval and converts once both targets are met.
func (s *Service) recordGenesisApprovalLocked(ctx context.Context, class id.VerifierClass) {
	if !s.committee.Active {
		return
	}
	switch class {
	case id.ClassHealth:
		s.committee.HealthApprovals++
	case id.ClassDao:
		s.committee.DaoApprovals++
	}
	if s.committee.HealthApprovals >= s.cfg.GenesisGraduationTarget &&
		s.committee.DaoApprovals >= s.cfg.GenesisGraduationTarget {
		s.convertCommitteeLocked(ctx, "graduation")
	}
}

func (s *Service) pendingGenesisCount(ctx context.Context) (int, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list verifier records")
	}
	count := 0
	for _, rec := range records {
		if rec.Type == id.VerifierTypeGenesis && rec.Status == id.VerifierStatusPending {
			count++
		}
	}
	return count, nil
}
