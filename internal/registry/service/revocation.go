package service

import (
	"context"

	"carefund/internal/voting"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// ProposeRevocation opens a revocation ballot against an approved verifier.
// One attempt per target per cooldown window, regardless of outcome.
func (s *Service) ProposeRevocation(ctx context.Context, proposer, target id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	if proposer == target {
		return dErrors.New(dErrors.CodeForbidden, "cannot propose revoking yourself")
	}

	proposerRec, err := s.getRecord(ctx, proposer)
	if err != nil {
		return err
	}
	targetRec, err := s.getRecord(ctx, target)
	if err != nil {
		return err
	}
	if !proposerRec.IsApproved() || !targetRec.IsApproved() {
		return dErrors.New(dErrors.CodeForbidden, "proposer and target must both be approved verifiers")
	}
	if s.effectiveClass(targetRec) == id.ClassGenesis {
		return dErrors.New(dErrors.CodeForbidden, "genesis committee members cannot be revoked")
	}
	if s.effectiveClass(proposerRec) != s.effectiveClass(targetRec) {
		return dErrors.New(dErrors.CodeForbidden, "proposer type does not match target type")
	}

	now := requestcontext.Now(ctx)
	if ballot, ok := s.revocations[target]; ok && ballot.Open && !ballot.Closed(now) {
		return dErrors.New(dErrors.CodeConflict, "revocation already proposed for target")
	}
	if last, ok := s.lastRevocationAttempt[target]; ok && now.Before(last.Add(s.cfg.RevocationCooldown)) {
		return dErrors.New(dErrors.CodeConflict, "revocation cooldown active for target")
	}

	ballot := voting.NewBallot()
	ballot.OpenWindow(now, s.cfg.VotingPeriod)
	s.revocations[target] = ballot
	s.lastRevocationAttempt[target] = now

	s.logAudit(ctx, audit.EventRevocationProposed, proposer, "target", target)
	return nil
}

// VoteOnRevocation records one vote on an open revocation ballot.
func (s *Service) VoteOnRevocation(ctx context.Context, voter, target id.Principal, support bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	targetRec, err := s.getRecord(ctx, target)
	if err != nil {
		return err
	}
	voterRec, err := s.getRecord(ctx, voter)
	if err != nil {
		return err
	}
	if !voterRec.IsApproved() {
		return dErrors.New(dErrors.CodeForbidden, "voter is not an approved verifier")
	}
	if s.effectiveClass(voterRec) != s.effectiveClass(targetRec) {
		return dErrors.New(dErrors.CodeForbidden, "voter type does not match target type")
	}

	ballot, ok := s.revocations[target]
	if !ok || !ballot.Open {
		return dErrors.New(dErrors.CodeConflict, "no open revocation ballot for target")
	}

	now := requestcontext.Now(ctx)
	if err := ballot.Cast(voter, support, now); err != nil {
		return err
	}

	s.logAudit(ctx, audit.EventRevocationVote, voter, "target", target, "support", support)

	if ballot.Closed(now) {
		return s.finalizeRevocationLocked(ctx, target, ballot)
	}
	return nil
}

// FinalizeRevocation resolves a revocation ballot after its window closes.
// Quorum is measured against the current, not snapshotted, class count.
func (s *Service) FinalizeRevocation(ctx context.Context, target id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	ballot, ok := s.revocations[target]
	if !ok || !ballot.Open {
		return dErrors.New(dErrors.CodeConflict, "no open revocation ballot for target")
	}
	now := requestcontext.Now(ctx)
	if !ballot.Closed(now) {
		return dErrors.New(dErrors.CodeConflict, "voting period not ended")
	}
	return s.finalizeRevocationLocked(ctx, target, ballot)
}

func (s *Service) finalizeRevocationLocked(ctx context.Context, target id.Principal, ballot *voting.Ballot) error {
	rec, err := s.getRecord(ctx, target)
	if err != nil {
		return err
	}
	class := s.effectiveClass(rec)
	eligible := s.classCount(class)
	if eligible == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "no eligible verifiers to measure quorum against")
	}

	if voting.Passed(ballot.Yes, ballot.No, eligible, s.cfg.ParticipationPct, s.cfg.ApprovalPct) {
		if rec.CredentialID != 0 {
			_ = s.credentials.Burn(rec.CredentialID)
		}
		rec.Status = id.VerifierStatusRevoked
		rec.CredentialID = 0
		if err := s.store.Update(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verifier record")
		}
		s.decrementClass(class)

		s.logAudit(ctx, audit.EventVerifierRevoked, target)
		if s.metrics != nil {
			s.metrics.VerifiersRevoked.Inc()
		}
	}

	ballot.Reset()
	delete(s.revocations, target)
	return nil
}
