package service

import (
	"context"

	"carefund/internal/registry/models"
	"carefund/internal/voting"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/requestcontext"
)

// VoteOnApplication records one vote on a pending verifier application. The
// first vote opens the window; a vote landing exactly on the window's end
// finalizes the application within the same operation.
func (s *Service) VoteOnApplication(ctx context.Context, voter, target id.Principal, support bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	targetRec, err := s.getRecord(ctx, target)
	if err != nil {
		return err
	}
	if targetRec.Status != id.VerifierStatusPending || targetRec.Type == id.VerifierTypeGenesis {
		return dErrors.New(dErrors.CodeConflict, "target has no pending application")
	}

	voterRec, err := s.getRecord(ctx, voter)
	if err != nil {
		return err
	}
	if !voterRec.IsApproved() {
		return dErrors.New(dErrors.CodeForbidden, "voter is not an approved verifier")
	}

	voterClass := s.effectiveClass(voterRec)
	targetClass := targetRec.Type.Class()
	if voterClass != id.ClassGenesis && voterClass != targetClass {
		return dErrors.New(dErrors.CodeForbidden, "voter type does not match application type")
	}

	now := requestcontext.Now(ctx)
	ballot, ok := s.applications[target]
	if !ok {
		ballot = voting.NewBallot()
		s.applications[target] = ballot
	}
	if !ballot.Opened() {
		ballot.OpenWindow(now, s.cfg.VotingPeriod)
	}
	if err := ballot.Cast(voter, support, now); err != nil {
		return err
	}
	if voterClass == id.ClassGenesis && support {
		ballot.GenesisYes++
	}

	s.logAudit(ctx, audit.EventApplicationVote, voter, "target", target, "support", support)
	if s.metrics != nil {
		s.metrics.ApplicationVotes.Inc()
	}

	if ballot.Closed(now) {
		return s.finalizeApplicationLocked(ctx, target, targetRec, ballot)
	}
	return nil
}

// FinalizeApplication resolves an application whose voting window has closed.
// Calling it again after resolution is a state-conflict error, never a
// double application of effects.
func (s *Service) FinalizeApplication(ctx context.Context, target id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	targetRec, err := s.getRecord(ctx, target)
	if err != nil {
		return err
	}
	ballot, ok := s.applications[target]
	if !ok || !ballot.Open {
		return dErrors.New(dErrors.CodeConflict, "no open application ballot")
	}
	now := requestcontext.Now(ctx)
	if !ballot.Closed(now) {
		return dErrors.New(dErrors.CodeConflict, "voting period not ended")
	}
	return s.finalizeApplicationLocked(ctx, target, targetRec, ballot)
}

func (s *Service) finalizeApplicationLocked(ctx context.Context, target id.Principal, rec *models.VerifierRecord, ballot *voting.Ballot) error {
	targetClass := rec.Type.Class()

	// Genesis-driven ballots are measured against the committee, everything
	// else against the live count of the target's class.
	var eligible uint64
	if ballot.GenesisYes > 0 {
		eligible = uint64(s.committee.Size())
	} else {
		eligible = s.classCount(targetClass)
	}
	if eligible == 0 {
		return dErrors.New(dErrors.CodeInvariantViolation, "no eligible verifiers to measure quorum against")
	}

	approved := voting.Passed(ballot.Yes, ballot.No, eligible, s.cfg.ParticipationPct, s.cfg.ApprovalPct)
	genesisDriven := ballot.GenesisYes > 0

	if approved {
		if s.classAtCapacity(targetClass) {
			return dErrors.New(dErrors.CodeResourceExhausted, "verifier type at capacity")
		}
		credID, err := s.credentials.Mint(target)
		if err != nil {
			return err
		}
		rec.Status = id.VerifierStatusApproved
		rec.CredentialID = credID
		if err := s.store.Update(ctx, rec); err != nil {
			_ = s.credentials.Burn(credID)
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verifier record")
		}
		s.incrementClass(targetClass)

		s.logAudit(ctx, audit.EventVerifierApproved, target, "type", rec.Type, "credential_id", credID)
		if s.metrics != nil {
			s.metrics.VerifiersApproved.WithLabelValues(rec.Type.String()).Inc()
		}
		if genesisDriven {
			s.recordGenesisApprovalLocked(ctx, targetClass)
		}
	} else {
		rec.Status = id.VerifierStatusRejected
		if err := s.store.Update(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update verifier record")
		}
		s.logAudit(ctx, audit.EventVerifierRejected, target)
		if s.metrics != nil {
			s.metrics.VerifiersRejected.Inc()
		}
	}

	ballot.Reset()
	delete(s.applications, target)

	return nil
}
