package service

import (
	"context"

	"carefund/internal/registry/models"
	id "carefund/pkg/domain"
)

// IsApprovedVerifier reports whether principal currently holds approved status.
func (s *Service) IsApprovedVerifier(ctx context.Context, principal id.Principal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.getRecord(ctx, principal)
	if err != nil {
		return false
	}
	return rec.IsApproved()
}

// GetVerifier returns a copy of the registry record for principal.
func (s *Service) GetVerifier(ctx context.Context, principal id.Principal) (*models.VerifierRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkGenesisTimeoutLocked(ctx)
	return s.getRecord(ctx, principal)
}

// EffectiveClassOf resolves the voting class for an approved verifier.
// Genesis members vote with the DAO class outside committee business.
func (s *Service) EffectiveClassOf(ctx context.Context, principal id.Principal) (id.VerifierClass, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.getRecord(ctx, principal)
	if err != nil {
		return id.ClassNone, err
	}
	if !rec.IsApproved() {
		return id.ClassNone, nil
	}
	class := s.effectiveClass(rec)
	if class == id.ClassGenesis {
		class = id.ClassDao
	}
	return class, nil
}

// ApprovedCount returns the number of approved verifiers in a class. Active
// genesis members count toward the DAO class here.
func (s *Service) ApprovedCount(class id.VerifierClass) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch class {
	case id.ClassHealth:
		return s.healthCount
	case id.ClassDao:
		n := s.daoCount
		if s.committee.Active {
			n += uint64(s.committee.Size())
		}
		return n
	default:
		return 0
	}
}

// TotalApproved returns the count of all approved verifiers of every type.
func (s *Service) TotalApproved() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.healthCount + s.daoCount
	if s.committee.Active {
		n += uint64(s.committee.Size())
	}
	return n
}

// CommitteeSnapshot returns a copy of the genesis committee state.
func (s *Service) CommitteeSnapshot() models.Committee {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.committee
	out.Members = append([]id.Principal(nil), s.committee.Members...)
	return out
}

// Paused reports whether the platform-wide emergency pause is in effect.
func (s *Service) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}
