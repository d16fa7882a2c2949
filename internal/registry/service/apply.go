package service

import (
	"context"
	"errors"

	"carefund/internal/registry/models"
	id "carefund/pkg/domain"
	dErrors "carefund/pkg/domain-errors"
	audit "carefund/pkg/platform/audit"
	"carefund/pkg/platform/sentinel"
	"carefund/pkg/requestcontext"
)

// Apply submits a verifier application for voting. Genesis applications go
// through ApplyAsGenesis instead.
//
// Preconditions: the registry is not paused, the principal has never applied
// (a revoked principal is permanently blocked), the documents pass the
// field-indexed validation, and at least one Genesis member exists to anchor
// governance.
func (s *Service) Apply(ctx context.Context, applicant id.Principal, vtype id.VerifierType, docs models.Documents) (*models.VerifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)

	if err := s.requireNotPaused(); err != nil {
		return nil, err
	}
	if !vtype.IsValid() || vtype == id.VerifierTypeGenesis {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid verifier type")
	}
	if err := docs.Validate(vtype == id.VerifierTypeHealthProfessional); err != nil {
		return nil, err
	}
	if s.committee.Size() == 0 {
		return nil, dErrors.New(dErrors.CodeConflict, "no active genesis verifiers")
	}

	now := requestcontext.Now(ctx)
	rec := &models.VerifierRecord{
		Principal: applicant,
		Type:      vtype,
		Status:    id.VerifierStatusPending,
		Documents: docs,
		AppliedAt: now,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "already applied")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create verifier record")
	}

	s.logAudit(ctx, audit.EventApplicationSubmitted, applicant, "type", vtype)
	if s.metrics != nil {
		s.metrics.ApplicationsSubmitted.Inc()
	}
	return rec, nil
}
